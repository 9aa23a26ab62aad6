// Package commands declares the metadata attached to registered bot commands.
package commands

import tele "gopkg.in/telebot.v4"

// Command binds a handler to its menu metadata. AdminOnly commands are
// wrapped with the silent access check at routing time; Hidden ones are kept
// out of the Telegram command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Listed reports whether the command belongs in the public command menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}
