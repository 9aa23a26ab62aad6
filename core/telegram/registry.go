package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vitorynet/configbot/core/logger"
	"github.com/vitorynet/configbot/core/telegram/commands"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Registry maps command names and callback keys to their handlers. Commands
// are registered once during wiring; callbacks are guarded by a mutex since
// tests register them concurrently with running bots.
type Registry struct {
	commands map[string]commands.Command

	callbacksMu sync.RWMutex
	callbacks   map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
}

// NewRegistry returns an empty registry. Unknown callbacks are acknowledged
// silently by default so a stale inline keyboard never leaves the client
// spinner hanging; SetCallbackNotFound installs an application response.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond()
		},
	}
}

func wireSkip(event, name, reason string) {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
		slog.String("name", name),
		slog.String("reason", reason),
	)
}

// RegisterCommand adds a command under its slash-prefixed name. Invalid or
// duplicate registrations are logged and dropped rather than failing wiring.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	switch {
	case r == nil || name == "" || cmd.Handler == nil || cmd.Description == "":
		wireSkip("register.command.skip", name, "invalid")
	case name[0] != '/':
		wireSkip("register.command.skip", name, "no_slash_prefix")
	default:
		if _, exists := r.commands[name]; exists {
			wireSkip("register.command.skip", name, "duplicate")
			return
		}
		r.commands[name] = cmd
	}
}

// RegisterCallback binds a handler to a callback key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		wireSkip("register.callback.skip", key, "invalid")
		return errors.New("invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		wireSkip("register.callback.skip", key, "duplicate")
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered callback keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Commands returns the registered command table.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// LookupCommand resolves a command by name or alias, returning the canonical
// name. The leading slash is optional: clients occasionally send commands as
// plain text.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for canonical, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return canonical, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// SetCallbackNotFound replaces the fallback for unknown callback keys.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the unknown-callback fallback.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// InitBotCommands publishes the visible commands to the Telegram menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	var menu []tele.Command
	for name, cmd := range reg.Commands() {
		if !cmd.Listed() {
			continue
		}
		menu = append(menu, tele.Command{Text: name, Description: cmd.Description})
	}
	sort.Slice(menu, func(i, j int) bool { return menu[i].Text < menu[j].Text })

	if err := bot.SetCommands(menu); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
