package task

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	cport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/cache/port"
	qport "github.com/L2402/TeleasistenciaAdultoMayores/internal/infrastructure/queue/port"
	repository "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/persistence/repository/port"
)

// RefreshUnreadTaskType recomputes a user's unread badge into the cache.
// Enqueued after message creation (for the recipient) and after mark-read
// (for the reader), so the badge converges without the portal polling the
// message table.
const RefreshUnreadTaskType = "messaging:refresh_unread"

const unreadCacheTTL = 10 * time.Minute

// RefreshUnreadPayload is the JSON payload transported via the queue.
type RefreshUnreadPayload struct {
	UserID string `json:"userId"`
}

// UnreadCacheKey is the cache key holding a user's unread total.
func UnreadCacheKey(userID string) string {
	return "messaging:unread:" + userID
}

// NewRefreshUnreadTask builds the queue task for userID.
func NewRefreshUnreadTask(userID string) (qport.Task, error) {
	b, err := json.Marshal(RefreshUnreadPayload{UserID: userID})
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: RefreshUnreadTaskType, Payload: b}, nil
}

// RegisterRefreshUnreadTask binds the handler to the worker server. The
// handler is idempotent: it always writes the current count, so redelivery
// is harmless.
func RegisterRefreshUnreadTask(srv qport.Server, messages repository.MessageRepository, cache cport.Cache) {
	srv.Register(RefreshUnreadTaskType, func(ctx context.Context, t qport.Task) error {
		var p RefreshUnreadPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		n, err := messages.CountUnread(ctx, p.UserID)
		if err != nil {
			return err
		}
		return cache.Set(ctx, UnreadCacheKey(p.UserID), strconv.FormatInt(n, 10), unreadCacheTTL)
	})
}
