package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/frontend/telnet"
	"github.com/cory-johannsen/jobswitch/internal/game/command"
)

// QuitCommand ends a console session without going through the registry.
const QuitCommand = "/quit"

const welcomeBanner = telnet.BrightWhite + "JobSwitch dev host" + telnet.Reset + `
  Type a job command such as /blm or /pknt.
  Type /help for the command list, /quit to disconnect.
`

// Invoker runs a chat command line.
type Invoker interface {
	Invoke(line string) error
}

// ChatHandler implements telnet.SessionHandler. Each line starting with the
// command marker goes to the registry; anything else is echoed as chat.
type ChatHandler struct {
	invoker Invoker
	hub     *Hub
	logger  *zap.Logger
}

// NewChatHandler creates a ChatHandler.
//
// Precondition: invoker, hub, and logger must be non-nil.
// Postcondition: Returns a ChatHandler ready to handle sessions.
func NewChatHandler(invoker Invoker, hub *Hub, logger *zap.Logger) *ChatHandler {
	if invoker == nil || hub == nil || logger == nil {
		panic("handlers.NewChatHandler: precondition violated: invoker, hub, and logger must be non-nil")
	}
	return &ChatHandler{invoker: invoker, hub: hub, logger: logger}
}

// HandleSession runs the read-invoke loop until the player quits, the
// connection fails, or ctx is cancelled.
//
// Postcondition: Returns nil on /quit, ctx.Err() on shutdown, or the read error.
func (h *ChatHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	if err := conn.Write([]byte(strings.ReplaceAll(welcomeBanner, "\n", "\r\n"))); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	h.hub.Join(conn)
	defer h.hub.Leave(conn)

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Host shutting down. Goodbye!"))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(telnet.Colorize(telnet.BrightWhite, "> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}

		line, err := conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parsed := command.Parse(line)
		if !parsed.IsCommand() {
			_ = conn.WriteLine("You say: " + line)
			continue
		}
		if strings.EqualFold(parsed.Command, QuitCommand) {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Goodbye!"))
			return nil
		}

		if err := h.invoker.Invoke(line); err != nil {
			if errors.Is(err, command.ErrUnknownCommand) {
				_ = conn.WriteLine(telnet.Colorize(telnet.Red,
					fmt.Sprintf("Unknown command: %s. Type %s for a list.", parsed.Command, command.HelpCommand)))
				continue
			}
			h.logger.Error("invoking command", zap.String("command", parsed.Command), zap.Error(err))
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Command failed."))
		}
	}
}
