package router

import (
	"github.com/vitorynet/configbot/core/logger"
	tg "github.com/vitorynet/configbot/core/telegram"
	"github.com/vitorynet/configbot/core/telegram/middleware"
	"log/slog"
)

// CommandRouteOptions carries the operator account for admin-only wrapping.
type CommandRouteOptions struct {
	AdminID int64
}

// CommandRoutes turns every registered command into a telebot route. Each
// handler gets the recover and logging wrappers; AdminOnly commands
// additionally get the silent access check, so a non-operator invocation
// produces no reply at all.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	access := middleware.AdminOnlyMiddleware(middleware.AdminOptions{AdminID: opts.AdminID})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		h := middleware.LoggerMiddleware(middleware.RecoverMiddleware(def.Handler))
		if def.AdminOnly {
			h = access(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
