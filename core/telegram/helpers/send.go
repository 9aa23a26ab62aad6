package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/vitorynet/configbot/core/logger"
	"github.com/vitorynet/configbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var activeDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// Passing nil switches helpers back to synchronous sending.
func SetDispatcher(d *sender.Dispatcher) {
	activeDispatcher.Store(d)
}

// dispatch runs the send through the dispatcher queue when one is wired,
// falling back to a synchronous call when the queue rejects the job.
func dispatch(c tele.Context, action, endpoint string, run func() error) error {
	disp := activeDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	default:
		return err
	}
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	return dispatch(c, "send.text", "sendMessage", func() error {
		if len(opts) > 0 && opts[0] != nil {
			return c.Send(text, opts[0])
		}
		return c.Send(text)
	})
}

// SendHTML sends a message with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return SendText(c, text, opts)
}

// ForwardTo forwards the current message to another recipient. A context
// without a message is a no-op.
func ForwardTo(c tele.Context, to tele.Recipient) error {
	if c.Message() == nil {
		return nil
	}
	return dispatch(c, "forward", "forwardMessage", func() error {
		return c.ForwardTo(to)
	})
}
