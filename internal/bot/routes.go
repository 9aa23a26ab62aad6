package bot

import (
	tg "github.com/vitorynet/configbot/core/telegram"
	"github.com/vitorynet/configbot/core/telegram/callbacks"
	"github.com/vitorynet/configbot/core/telegram/commands"
	"github.com/vitorynet/configbot/core/telegram/helpers"
	"github.com/vitorynet/configbot/internal/order"

	tele "gopkg.in/telebot.v4"
)

// BuildRegistry wires the order machine into the command and callback registry.
func BuildRegistry(m *order.Machine, exec *Executor) *tg.Registry {
	reg := tg.NewRegistry()

	// stale keyboards from old sessions get an expired-button toast
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "دکمه منقضی شده است"})
	})

	reg.RegisterCommand("/start", commands.Command{
		Description: "شروع",
		Handler: func(c tele.Context) error {
			return exec.Run(c, m.Start(c.Sender().ID))
		},
	})

	reg.RegisterCommand("/send_config", commands.Command{
		Description: "ارسال کانفیگ به کاربر",
		AdminOnly:   true,
		Hidden:      true,
		Handler: func(c tele.Context) error {
			ctx := helpers.BuildContext(c)
			return exec.Run(c, m.Fulfill(ctx, c.Sender().ID, c.Text()))
		},
	})

	for _, key := range order.CallbackKeys {
		k := key
		_ = reg.RegisterCallback(k, func(c tele.Context) error {
			ctx := helpers.BuildContext(c)
			payload := callbacks.CallbackPayload(c)
			return exec.Run(c, m.Select(ctx, c.Sender().ID, k, payload))
		})
	}

	return reg
}

// PhotoHandler treats every incoming photo as a payment receipt.
func PhotoHandler(m *order.Machine, exec *Executor) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		return exec.Run(c, m.SubmitReceipt(ctx, c.Sender().ID))
	}
}
