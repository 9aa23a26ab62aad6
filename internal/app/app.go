package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vitorynet/configbot/core/bootstrap"
	coretelegram "github.com/vitorynet/configbot/core/telegram"
	"github.com/vitorynet/configbot/core/telegram/router"
	"github.com/vitorynet/configbot/internal/bot"
	"github.com/vitorynet/configbot/internal/order"
)

// App holds the assembled bot components.
type App struct {
	cfg *Config
	db  *sqlx.DB

	machine  *order.Machine
	executor *bot.Executor
}

// Bootstrap initializes infrastructure and assembles the order machine.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	var archive order.Archive
	if res.DB != nil {
		archive = order.NewPGArchive(res.DB)
	}

	payment := order.PaymentDetails{
		CardNumber: cfg.Payment.CardNumber,
		CardHolder: cfg.Payment.CardHolder,
	}
	machine := order.NewMachine(order.NewMemoryStore(), cfg.Core.Telegram.AdminID, payment, archive)

	return &App{
		cfg:      cfg,
		db:       res.DB,
		machine:  machine,
		executor: bot.NewExecutor(),
	}, nil
}

// TelegramRunOptions builds the runtime wiring: registry, routes, middlewares,
// and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := bot.BuildRegistry(a.machine, a.executor)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Photo: bot.PhotoHandler(a.machine, a.executor),
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.executor.Bind(rt.Bot)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}
