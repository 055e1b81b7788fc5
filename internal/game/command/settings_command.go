package command

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/config"
)

const settingsUsage = `Usage:
  /jobswitch                         show settings
  /jobswitch visible on|off          list job commands in /help
  /jobswitch classjobs on|off        register class/job commands
  /jobswitch phantom on|off          register phantom job commands
  /jobswitch suffixes on|off         register suffix variants
  /jobswitch suffix add <suffix>     add a suffix variant
  /jobswitch suffix remove <suffix>  remove a suffix variant
  /jobswitch suffix reset            restore the default suffixes`

// SettingsHandler implements the /jobswitch command, which shows and edits
// the persisted command settings. Every change goes through the store, whose
// subscribers re-register the job commands.
type SettingsHandler struct {
	store      *config.Store
	dispatcher *Dispatcher
	notifier   Notifier
	logger     *zap.Logger
}

// NewSettingsHandler creates a SettingsHandler.
//
// Precondition: store, notifier, and logger must be non-nil. dispatcher may
// be nil, in which case the registered command count is not shown.
func NewSettingsHandler(store *config.Store, dispatcher *Dispatcher, notifier Notifier, logger *zap.Logger) *SettingsHandler {
	if store == nil || notifier == nil || logger == nil {
		panic("command.NewSettingsHandler: precondition violated: store, notifier, and logger must be non-nil")
	}
	return &SettingsHandler{store: store, dispatcher: dispatcher, notifier: notifier, logger: logger}
}

// Register binds SettingsCommand in r.
//
// Postcondition: Returns ErrCommandExists if SettingsCommand is already bound.
func (h *SettingsHandler) Register(r *Registry) error {
	_, err := r.Add(SettingsCommand, h.Handle, settingsHelp)
	return err
}

// Handle executes one /jobswitch invocation.
func (h *SettingsHandler) Handle(_, args string) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) == 0 || fields[0] == "show" {
		h.notifier.Print(h.describe(h.store.Settings()))
		return
	}

	var (
		apply func(*config.Settings)
		err   error
	)
	switch fields[0] {
	case "help":
		h.notifier.Print(settingsUsage)
		return
	case "visible", "classjobs", "phantom", "suffixes":
		apply, err = toggle(fields)
	case "suffix":
		apply, err = editSuffixes(fields[1:], strings.Fields(args), h.store.Settings().Suffixes())
	default:
		err = fmt.Errorf("unknown setting %q", fields[0])
	}
	if err != nil {
		h.notifier.ShowError(fmt.Sprintf("JobSwitch: %v. Try /jobswitch help.", err))
		return
	}

	if err := h.store.Update(apply); err != nil {
		h.logger.Warn("settings update rejected", zap.String("args", args), zap.Error(err))
		h.notifier.ShowError(fmt.Sprintf("JobSwitch: %v", err))
		return
	}
	h.notifier.Print(h.describe(h.store.Settings()))
}

func toggle(fields []string) (func(*config.Settings), error) {
	if len(fields) != 2 {
		return nil, fmt.Errorf("%s takes on or off", fields[0])
	}
	var on bool
	switch fields[1] {
	case "on":
		on = true
	case "off":
	default:
		return nil, fmt.Errorf("%s takes on or off, got %q", fields[0], fields[1])
	}
	name := fields[0]
	return func(s *config.Settings) {
		switch name {
		case "visible":
			s.IsVisible = on
		case "classjobs":
			s.RegisterClassJobs = on
		case "phantom":
			s.RegisterPhantomJobs = on
		case "suffixes":
			s.RegisterCommandSuffixes = on
		}
	}, nil
}

// editSuffixes parses "add <s>", "remove <s>", or "reset". raw holds the
// original-case words of the whole argument string. Removing the last
// remaining suffix is refused, since an empty list reads back as the
// defaults.
func editSuffixes(fields, raw, current []string) (func(*config.Settings), error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("suffix takes add, remove, or reset")
	}
	switch fields[0] {
	case "reset":
		return func(s *config.Settings) {
			s.CommandSuffixes = config.DefaultCommandSuffixes()
		}, nil
	case "add", "remove":
		if len(raw) != 3 {
			return nil, fmt.Errorf("suffix %s takes one suffix", fields[0])
		}
		suffix := raw[2]
		if fields[0] == "add" {
			return func(s *config.Settings) {
				s.CommandSuffixes = append(s.Suffixes(), suffix)
			}, nil
		}
		if len(current) == 1 && current[0] == suffix {
			return nil, fmt.Errorf("cannot remove the last suffix %q, use suffix reset to restore the defaults", suffix)
		}
		return func(s *config.Settings) {
			kept := make([]string, 0, len(s.CommandSuffixes))
			for _, existing := range s.Suffixes() {
				if existing != suffix {
					kept = append(kept, existing)
				}
			}
			s.CommandSuffixes = kept
		}, nil
	default:
		return nil, fmt.Errorf("unknown suffix action %q", fields[0])
	}
}

func (h *SettingsHandler) describe(s config.Settings) string {
	var sb strings.Builder
	sb.WriteString("JobSwitch settings:")
	fmt.Fprintf(&sb, "\n  visible:   %s", onOff(s.IsVisible))
	fmt.Fprintf(&sb, "\n  classjobs: %s", onOff(s.RegisterClassJobs))
	fmt.Fprintf(&sb, "\n  phantom:   %s", onOff(s.RegisterPhantomJobs))
	fmt.Fprintf(&sb, "\n  suffixes:  %s", onOff(s.RegisterCommandSuffixes))

	labels := make([]string, 0, len(s.Suffixes()))
	for _, suffix := range s.Suffixes() {
		if suffix == "" {
			suffix = "(none)"
		}
		labels = append(labels, suffix)
	}
	fmt.Fprintf(&sb, "\n  suffix list: %s", strings.Join(labels, ", "))

	if h.dispatcher != nil {
		fmt.Fprintf(&sb, "\n  registered commands: %d", len(h.dispatcher.RegisteredCommands()))
	}
	return sb.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
