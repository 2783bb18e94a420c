package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/cache/port"
	queueport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/queue/port"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	httpHandler "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, dispatcher *realtime.Dispatcher, client queueport.Client, cache cacheport.Cache) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, dispatcher, client, cache)
}
