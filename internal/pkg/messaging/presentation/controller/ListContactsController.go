package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/adapter"
)

// ListContactsController handles the contact-list endpoint (one controller
// per endpoint).
type ListContactsController struct {
	UC *usecase.ListContactsUseCase
}

func NewListContactsController(pool *pgxpool.Pool) *ListContactsController {
	return &ListContactsController{
		UC: usecase.NewListContactsUseCase(repoAdapter.NewPgDirectoryRepository(pool)),
	}
}

func (h *ListContactsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		contacts, err := h.UC.Execute(ctx, userID)
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"contacts": contacts,
			"count":    len(contacts),
		})
	}
}
