package controller

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	queueport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/queue/port"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/task"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/adapter"
)

// SendMessageController handles the send-message endpoint (one controller
// per endpoint). Persist first, then fan out; the recipient's unread badge
// refresh runs in the background.
type SendMessageController struct {
	UC *usecase.SendMessageUseCase
	Q  queueport.Client
}

func NewSendMessageController(pool *pgxpool.Pool, dispatcher *realtime.Dispatcher, client queueport.Client) *SendMessageController {
	return &SendMessageController{
		UC: usecase.NewSendMessageUseCase(repoAdapter.NewPgMessageRepository(pool), dispatcher),
		Q:  client,
	}
}

type sendMessageRequest struct {
	SenderID    string `json:"sender_id" binding:"required"`
	RecipientID string `json:"recipient_id" binding:"required"`
	Content     string `json:"content"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			SenderID:    req.SenderID,
			RecipientID: req.RecipientID,
			Content:     req.Content,
		})
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}

		h.enqueueUnreadRefresh(ctx, msg.RecipientID)

		c.JSON(http.StatusCreated, gin.H{"message": msg})
	}
}

func (h *SendMessageController) enqueueUnreadRefresh(ctx context.Context, userID string) {
	if h.Q == nil {
		return
	}
	t, err := task.NewRefreshUnreadTask(userID)
	if err != nil {
		return
	}
	if _, err := h.Q.Enqueue(ctx, t, queueport.EnqueueOption{Queue: "messaging", MaxRetry: 5}); err != nil {
		log.Printf("enqueue unread refresh: %v", err)
	}
}
