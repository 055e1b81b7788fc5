package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCommandExists is returned by Add when the command string is taken.
var ErrCommandExists = errors.New("command already registered")

// ErrUnknownCommand is returned by Invoke for an unbound command string.
var ErrUnknownCommand = errors.New("unknown command")

// Handler receives the command string as typed and the raw argument text.
type Handler func(command, args string)

// Binding is one registered command string.
type Binding struct {
	// ID correlates log lines for this binding.
	ID uuid.UUID
	// Command is the exact command string, including the leading marker.
	Command string
	// HelpMessage is shown in command listings; empty hides the binding.
	HelpMessage string

	handler Handler
}

// Registry maps exact command strings to handlers. Lookups are
// case-sensitive: "/BLM" and "/blm" are distinct bindings.
//
// Registry is safe for concurrent use. Invoke runs one handler at a time,
// so a command runs to completion before the next is dispatched. Handlers
// may Add and Remove bindings but must not call Invoke.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*Binding

	dispatchMu sync.Mutex
	logger     *zap.Logger
}

// NewRegistry creates an empty Registry.
//
// Precondition: logger must be non-nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		panic("command.NewRegistry: precondition violated: logger must be non-nil")
	}
	return &Registry{
		bindings: make(map[string]*Binding),
		logger:   logger,
	}
}

// Exists reports whether command is bound.
func (r *Registry) Exists(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[command]
	return ok
}

// Add binds command to handler.
//
// Precondition: command must be a marker followed by at least one character;
// handler must be non-nil.
// Postcondition: Returns the new Binding, or ErrCommandExists leaving the
// existing binding untouched.
func (r *Registry) Add(command string, handler Handler, help string) (Binding, error) {
	if p := Parse(command); !p.IsCommand() || p.Command != command {
		return Binding{}, fmt.Errorf("invalid command string %q", command)
	}
	if handler == nil {
		return Binding{}, fmt.Errorf("command %q: handler must be non-nil", command)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bindings[command]; exists {
		return Binding{}, fmt.Errorf("%q: %w", command, ErrCommandExists)
	}
	b := &Binding{
		ID:          uuid.New(),
		Command:     command,
		HelpMessage: help,
		handler:     handler,
	}
	r.bindings[command] = b
	return *b, nil
}

// Remove unbinds command.
//
// Postcondition: Returns true if a binding was removed.
func (r *Registry) Remove(command string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[command]; !ok {
		return false
	}
	delete(r.bindings, command)
	return true
}

// Invoke parses line and runs the bound handler.
//
// Postcondition: Returns ErrUnknownCommand when the command word is not
// bound; otherwise the handler has returned.
func (r *Registry) Invoke(line string) error {
	parsed := Parse(line)

	r.mu.RLock()
	b, ok := r.bindings[parsed.Command]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%q: %w", parsed.Command, ErrUnknownCommand)
	}

	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()
	r.logger.Debug("invoking command",
		zap.String("command", parsed.Command),
		zap.Stringer("binding", b.ID),
	)
	b.handler(parsed.Command, parsed.RawArgs)
	return nil
}

// Commands returns all bindings sorted by command string.
func (r *Registry) Commands() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// Visible returns the bindings with a help message, sorted by command string.
func (r *Registry) Visible() []Binding {
	all := r.Commands()
	out := all[:0]
	for _, b := range all {
		if b.HelpMessage != "" {
			out = append(out, b)
		}
	}
	return out
}
