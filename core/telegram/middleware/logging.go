package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/vitorynet/configbot/core/logger"
	"github.com/vitorynet/configbot/core/telegram/callbacks"
	tghelpers "github.com/vitorynet/configbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// The middleware runs on every branch a route wires it into, so update
// receipt lines are deduplicated by update id over a short window.
var (
	recentMu     sync.Mutex
	recentUpdate = make(map[int]time.Time)
	keepFor      = 10 * time.Second
)

func alreadyLogged(updateID int) bool {
	now := time.Now()
	recentMu.Lock()
	defer recentMu.Unlock()

	for id, ts := range recentUpdate {
		if now.Sub(ts) > keepFor {
			delete(recentUpdate, id)
		}
	}
	if _, seen := recentUpdate[updateID]; seen {
		return true
	}
	recentUpdate[updateID] = now
	return false
}

// LoggerMiddleware builds the correlation context (rid, update metadata) for
// downstream handlers and emits one sampled debug line per inbound update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()

		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(context.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && !alreadyLogged(upd.ID) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received",
				receiptAttrs(c, chatID, userID)...)
		}

		return next(c)
	}
}

func receiptAttrs(c tele.Context, chatID, userID int64) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.Int("update_id", upd.ID),
	}
	if chatID != 0 {
		attrs = append(attrs,
			slog.Int64("chat_id", chatID),
			slog.String("chat_type", string(c.Chat().Type)),
		)
	}
	if userID != 0 {
		attrs = append(attrs, slog.Int64("user_id", userID))
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
	}

	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil && upd.Message.Photo != nil:
		attrs = append(attrs, slog.String("payload", "<photo>"))
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
