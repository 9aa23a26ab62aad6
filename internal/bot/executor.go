package bot

import (
	"sync/atomic"

	"log/slog"

	"github.com/vitorynet/configbot/core/logger"
	"github.com/vitorynet/configbot/core/telegram/helpers"
	"github.com/vitorynet/configbot/core/telegram/keyboard"
	"github.com/vitorynet/configbot/internal/order"

	tele "gopkg.in/telebot.v4"
)

// Executor translates order intents into Telegram API calls. The bot instance
// becomes available only once the runtime is up, so it is bound late.
type Executor struct {
	bot atomic.Pointer[tele.Bot]
}

func NewExecutor() *Executor {
	return &Executor{}
}

// Bind attaches the running bot instance. Must be called before any intent
// that sends outside the current chat.
func (e *Executor) Bind(b *tele.Bot) {
	e.bot.Store(b)
}

// Run executes each intent in order against the current update context.
// The first failure stops the run and is returned to the router.
func (e *Executor) Run(c tele.Context, intents []order.Intent) error {
	for _, in := range intents {
		if err := e.run(c, in); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) run(c tele.Context, in order.Intent) error {
	switch v := in.(type) {
	case order.Reply:
		markup := buildMarkup(v.Keyboard)
		if v.HTML {
			if markup != nil {
				return helpers.SendHTML(c, v.Text, markup)
			}
			return helpers.SendHTML(c, v.Text)
		}
		if markup != nil {
			return helpers.SendText(c, v.Text, &tele.SendOptions{ReplyMarkup: markup})
		}
		return helpers.SendText(c, v.Text)

	case order.DirectMessage:
		b := e.bot.Load()
		if b == nil {
			logger.Warn(helpers.BuildContext(c), "tg", "intent.dm.skip",
				slog.Int64("to", v.To),
				slog.String("reason", "bot_not_bound"),
			)
			return nil
		}
		_, err := b.Send(&tele.User{ID: v.To}, v.Text)
		return err

	case order.ForwardReceipt:
		return helpers.ForwardTo(c, &tele.User{ID: v.To})

	default:
		logger.Warn(helpers.BuildContext(c), "tg", "intent.unknown")
		return nil
	}
}

func buildMarkup(rows [][]order.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Label, Unique: b.Key, Data: b.Payload})
		}
		out = append(out, r)
	}
	return keyboard.InlineButtonsRows(out...)
}
