package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/cache/port"
	queueport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/queue/port"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/presentation/controller"
)

// RegisterRoutes registers the messaging endpoints under the given group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, dispatcher *realtime.Dispatcher, client queueport.Client, cache cacheport.Cache) {
	contactsCtl := controller.NewListContactsController(pool)
	threadCtl := controller.NewGetThreadController(pool, client)
	sendCtl := controller.NewSendMessageController(pool, dispatcher, client)
	unreadCtl := controller.NewUnreadCountController(pool, cache)
	socketCtl := controller.NewConversationSocketController(pool, dispatcher, client)

	// GET /api/v1/contacts -> contacts the caller may message right now
	g.GET("/contacts", contactsCtl.Handle())

	// GET /api/v1/messages/thread -> history with one contact
	g.GET("/messages/thread", threadCtl.Handle())

	// POST /api/v1/messages -> send a direct message
	g.POST("/messages", sendCtl.Handle())

	// GET /api/v1/messages/unread -> unread badge count
	g.GET("/messages/unread", unreadCtl.Handle())

	// GET /api/v1/messages/ws -> live conversation session
	g.GET("/messages/ws", socketCtl.Handle())
}
