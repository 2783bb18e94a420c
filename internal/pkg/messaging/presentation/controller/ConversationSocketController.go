package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	queueport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/queue/port"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/realtime"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/conversation"
	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/task"
	"github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/adapter"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// ConversationSocketController is the websocket endpoint behind the portal's
// messages view. Each connection owns one conversation.Controller: the
// server resolves contacts, opens threads, relays dispatcher events and
// applies read state; the client only renders frames and sends drafts.
type ConversationSocketController struct {
	dispatcher      *realtime.Dispatcher
	directory       repository.DirectoryRepository
	messages        repository.MessageRepository
	q               queueport.Client
	inflightTimeout time.Duration
}

func NewConversationSocketController(pool *pgxpool.Pool, dispatcher *realtime.Dispatcher, client queueport.Client) *ConversationSocketController {
	return &ConversationSocketController{
		dispatcher:      dispatcher,
		directory:       repoAdapter.NewPgDirectoryRepository(pool),
		messages:        repoAdapter.NewPgMessageRepository(pool),
		q:               client,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth lands.
		return true
	},
}

type inboundFrame struct {
	Type      string `json:"type"`
	ContactID string `json:"contact_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type contactsFrame struct {
	Type     string              `json:"type"`
	Contacts []messaging.Contact `json:"contacts"`
}

type threadFrame struct {
	Type      string              `json:"type"`
	ContactID string              `json:"contact_id"`
	Messages  []messaging.Message `json:"messages"`
}

type messageFrame struct {
	Type    string            `json:"type"`
	Message messaging.Message `json:"message"`
}

type statusFrame struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades the request and serves the conversation session until the
// client disconnects. The controller's subscription is released on every
// exit path.
func (ctl *ConversationSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		profileCtx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
		user, err := ctl.directory.Profile(profileCtx, userID)
		cancel()
		if err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		conn.Start()

		ctrl := conversation.NewController(user, conversation.Deps{
			ListContacts: usecase.NewListContactsUseCase(ctl.directory),
			GetThread:    usecase.NewGetThreadUseCase(ctl.messages),
			SendMessage:  usecase.NewSendMessageUseCase(ctl.messages, ctl.dispatcher),
			MarkRead:     usecase.NewMarkReadUseCase(ctl.messages),
			Messages:     ctl.messages,
			Dispatcher:   ctl.dispatcher,
		})
		ctrl.SetAppendListener(func(m messaging.Message) {
			ctl.reply(conn, messageFrame{Type: "message", Message: m})
		})
		defer func() {
			ctrl.Close()
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 16)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		startCtx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
		contacts := ctrl.Start(startCtx)
		cancel()
		ctl.reply(conn, contactsFrame{Type: "contacts", Contacts: contacts})
		ctl.pushSessionState(conn, ctrl)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "open":
				ctl.handleOpen(conn, ctrl, frame)
			case "send":
				ctl.handleSend(conn, ctrl, frame)
			case "close":
				return
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *ConversationSocketController) handleOpen(conn *realtime.Connection, ctrl *conversation.Controller, frame inboundFrame) {
	if frame.ContactID == "" {
		ctl.replyError(conn, "bad_request", "contact_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
	defer cancel()

	ctrl.Open(ctx, frame.ContactID)
	ctl.pushSessionState(conn, ctrl)
}

func (ctl *ConversationSocketController) handleSend(conn *realtime.Connection, ctrl *conversation.Controller, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
	defer cancel()

	msg, err := ctrl.Send(ctx, frame.Content)
	if err != nil {
		// The client keeps the draft; no thread mutation happened.
		ctl.replyError(conn, "send_failed", err.Error())
		return
	}
	ctl.enqueueUnreadRefresh(ctx, msg.RecipientID)
	// No echo here: the dispatcher's outbound event appends the message.
}

// pushSessionState reports the outcome of the last transition: the freshly
// opened thread, or the controller's status when something failed.
func (ctl *ConversationSocketController) pushSessionState(conn *realtime.Connection, ctrl *conversation.Controller) {
	if status := ctrl.Status(); status != "" {
		ctl.reply(conn, statusFrame{Type: "status", Status: status})
		return
	}
	if focused := ctrl.Focused(); focused != "" && ctrl.State() == conversation.StateConversationOpen {
		ctl.reply(conn, threadFrame{Type: "thread", ContactID: focused, Messages: ctrl.Thread()})

		ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
		ctl.enqueueUnreadRefresh(ctx, conn.UserID)
		cancel()
	}
}

func (ctl *ConversationSocketController) enqueueUnreadRefresh(ctx context.Context, userID string) {
	if ctl.q == nil {
		return
	}
	t, err := task.NewRefreshUnreadTask(userID)
	if err != nil {
		return
	}
	if _, err := ctl.q.Enqueue(ctx, t, queueport.EnqueueOption{Queue: "messaging", MaxRetry: 5}); err != nil {
		log.Printf("enqueue unread refresh: %v", err)
	}
}

func (ctl *ConversationSocketController) reply(conn *realtime.Connection, frame any) {
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ConversationSocketController) replyError(conn *realtime.Connection, code string, message string) {
	ctl.reply(conn, errorFrame{Type: "error", Code: code, Error: message})
}
