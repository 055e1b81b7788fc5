// Package handlers provides the chat console session handler and the
// developer commands of the simulated host.
package handlers

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/frontend/telnet"
)

// Hub delivers player notifications to every connected console. It
// implements command.Notifier.
type Hub struct {
	mu     sync.Mutex
	conns  map[*telnet.Conn]struct{}
	logger *zap.Logger
}

// NewHub creates an empty Hub.
//
// Precondition: logger must be non-nil.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		panic("handlers.NewHub: precondition violated: logger must be non-nil")
	}
	return &Hub{conns: make(map[*telnet.Conn]struct{}), logger: logger}
}

// Join adds conn to the broadcast set.
func (h *Hub) Join(conn *telnet.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

// Leave removes conn from the broadcast set.
func (h *Hub) Leave(conn *telnet.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Len returns the number of joined consoles.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ShowError shows text in red on every console.
func (h *Hub) ShowError(text string) {
	h.broadcast(telnet.Red, text)
}

// Print shows text in cyan on every console.
func (h *Hub) Print(text string) {
	h.broadcast(telnet.Cyan, text)
}

func (h *Hub) broadcast(color, text string) {
	line := telnet.Colorize(color, strings.ReplaceAll(text, "\n", "\r\n"))

	h.mu.Lock()
	conns := make([]*telnet.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteLine(line); err != nil {
			h.logger.Debug("dropping notification", zap.Stringer("remote_addr", conn.RemoteAddr()), zap.Error(err))
		}
	}
}
