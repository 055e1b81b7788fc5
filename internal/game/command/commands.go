// Package command provides the host command registry, the chat line parser,
// and the job command dispatcher.
package command

import (
	"fmt"
	"strings"
)

// Host command strings registered outside the dispatcher's tracked set.
const (
	HelpCommand     = "/help"
	SettingsCommand = "/jobswitch"
)

// Help messages.
const (
	helpHelp     = "Lists the available commands."
	settingsHelp = "Shows or changes job command settings. Try /jobswitch help."
)

// Notifier is the user-visible message sink.
type Notifier interface {
	// ShowError shows an error line to the player.
	ShowError(text string)
	// Print shows an informational line to the player.
	Print(text string)
}

// RegisterHelp binds HelpCommand, which prints every visible binding of r.
//
// Precondition: r and notifier must be non-nil.
// Postcondition: Returns ErrCommandExists if HelpCommand is already bound.
func RegisterHelp(r *Registry, notifier Notifier) error {
	_, err := r.Add(HelpCommand, func(_, _ string) {
		bindings := r.Visible()
		if len(bindings) == 0 {
			notifier.Print("No commands available.")
			return
		}
		var sb strings.Builder
		sb.WriteString("Commands:")
		for _, b := range bindings {
			fmt.Fprintf(&sb, "\n  %-14s %s", b.Command, b.HelpMessage)
		}
		notifier.Print(sb.String())
	}, helpHelp)
	return err
}
