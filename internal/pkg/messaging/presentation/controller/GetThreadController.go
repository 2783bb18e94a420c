package controller

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	queueport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/queue/port"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/task"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/adapter"
)

// GetThreadController returns the message history between the caller and one
// contact. With mark_read=true it also applies open-conversation read state
// before responding, so the thread is ready for display.
type GetThreadController struct {
	Thread   *usecase.GetThreadUseCase
	MarkRead *usecase.MarkReadUseCase
	Q        queueport.Client
}

func NewGetThreadController(pool *pgxpool.Pool, client queueport.Client) *GetThreadController {
	messages := repoAdapter.NewPgMessageRepository(pool)
	return &GetThreadController{
		Thread:   usecase.NewGetThreadUseCase(messages),
		MarkRead: usecase.NewMarkReadUseCase(messages),
		Q:        client,
	}
}

func (h *GetThreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		contactID := c.Query("contact_id")
		if userID == "" || contactID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and contact_id are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if c.Query("mark_read") == "true" {
			if _, err := h.MarkRead.Execute(ctx, userID, contactID); err != nil {
				c.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			h.enqueueUnreadRefresh(ctx, userID)
		}

		msgs, err := h.Thread.Execute(ctx, userID, contactID)
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": msgs,
			"count":    len(msgs),
		})
	}
}

// enqueueUnreadRefresh updates the reader's badge in the background.
// Best-effort: a failed enqueue never fails the request.
func (h *GetThreadController) enqueueUnreadRefresh(ctx context.Context, userID string) {
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
