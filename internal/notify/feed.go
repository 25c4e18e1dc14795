// Package notify keeps the user-visible notices raised by session, wallet and
// profile operations so the client can show them as toasts.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/requestcontext"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is one user-visible message. Code is set for failures.
type Notice struct {
	ID        uint64       `json:"id"`
	Level     Level        `json:"level"`
	Message   string       `json:"message"`
	Code      dErrors.Code `json:"code,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func Success(msg string) Notice {
	return Notice{Level: LevelSuccess, Message: msg}
}

func Failure(code dErrors.Code, msg string) Notice {
	return Notice{Level: LevelError, Code: code, Message: msg}
}

// Feed is a bounded in-memory list of notices. Oldest notices are dropped
// once capacity is reached.
type Feed struct {
	mu       sync.Mutex
	items    []Notice
	nextID   uint64
	capacity int
	logger   *slog.Logger
}

type Option func(*Feed)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		f.logger = logger
	}
}

func NewFeed(capacity int, opts ...Option) *Feed {
	if capacity <= 0 {
		capacity = 50
	}
	f := &Feed{capacity: capacity}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Notify records n, assigning its id and timestamp.
func (f *Feed) Notify(ctx context.Context, n Notice) {
	f.mu.Lock()
	f.nextID++
	n.ID = f.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = requestcontext.Now(ctx)
	}
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append([]Notice(nil), f.items[over:]...)
	}
	f.mu.Unlock()

	if f.logger != nil {
		f.logger.DebugContext(ctx, "notice raised",
			"level", string(n.Level),
			"code", string(n.Code),
			"message", n.Message,
		)
	}
}

// List returns notices with an id greater than afterID, oldest first.
func (f *Feed) List(afterID uint64) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, 0, len(f.items))
	for _, n := range f.items {
		if n.ID > afterID {
			out = append(out, n)
		}
	}
	return out
}
