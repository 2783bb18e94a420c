package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/cache/port"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/task"
	repoAdapter "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/adapter"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// UnreadCountController serves the unread badge. Cache-first: the refresh
// task keeps the counter warm, and a miss falls through to the store.
type UnreadCountController struct {
	Messages repository.MessageRepository
	Cache    cacheport.Cache
}

func NewUnreadCountController(pool *pgxpool.Pool, cache cacheport.Cache) *UnreadCountController {
	return &UnreadCountController{
		Messages: repoAdapter.NewPgMessageRepository(pool),
		Cache:    cache,
	}
}

func (h *UnreadCountController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if n, ok := h.fromCache(ctx, userID); ok {
			c.JSON(http.StatusOK, gin.H{"unread": n, "source": "cache"})
			return
		}

		n, err := h.Messages.CountUnread(ctx, userID)
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": n, "source": "store"})
	}
}

func (h *UnreadCountController) fromCache(ctx context.Context, userID string) (int64, bool) {
	if h.Cache == nil {
		return 0, false
	}
	v, err := h.Cache.Get(ctx, task.UnreadCacheKey(userID))
	if err != nil {
		// Miss or transport failure: fall through to the store either way.
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
