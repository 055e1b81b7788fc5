// Package server runs the host's long-lived services with graceful shutdown
// on SIGINT/SIGTERM and a reload pass on SIGHUP.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service represents a long-running component that can be started and stopped.
type Service interface {
	// Start begins the service. It should block until the service is stopped
	// or an error occurs.
	Start() error
	// Stop gracefully stops the service.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() { f.StopFn() }

// TickerService runs Fn every Interval until stopped.
type TickerService struct {
	Interval time.Duration
	Fn       func()

	once sync.Once
	done chan struct{}
}

func (t *TickerService) setup() {
	t.once.Do(func() { t.done = make(chan struct{}) })
}

// Start blocks, calling Fn on every tick.
//
// Precondition: Interval must be positive.
func (t *TickerService) Start() error {
	t.setup()
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return nil
		case <-ticker.C:
			t.Fn()
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (t *TickerService) Stop() {
	t.setup()
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

// Lifecycle manages the startup and shutdown of multiple services.
// Services are started in order and stopped in reverse order.
type Lifecycle struct {
	logger   *zap.Logger
	services []namedService
	reloads  []namedReload
	mu       sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

type namedReload struct {
	name string
	fn   func() error
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger: logger,
	}
}

// Add registers a named service for lifecycle management.
// Services are started in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// OnReload registers fn to run on every SIGHUP, in registration order.
//
// Precondition: name must be non-empty; fn must be non-nil.
func (l *Lifecycle) OnReload(name string, fn func() error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reloads = append(l.reloads, namedReload{name: name, fn: fn})
}

// Reload runs every reload hook. A failing hook is logged and does not stop
// the hooks after it.
//
// Postcondition: Returns the joined hook errors, or nil.
func (l *Lifecycle) Reload() error {
	l.mu.Lock()
	reloads := append([]namedReload(nil), l.reloads...)
	l.mu.Unlock()

	var errs []error
	for _, r := range reloads {
		start := time.Now()
		if err := r.fn(); err != nil {
			l.logger.Error("reload failed", zap.String("target", r.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("reloading %s: %w", r.name, err))
			continue
		}
		l.logger.Info("reloaded",
			zap.String("target", r.name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}

// Run starts all services and blocks until a termination signal is received
// (SIGINT or SIGTERM), a service fails, or ctx is cancelled. SIGHUP runs the
// reload hooks and keeps serving. On exit, services are stopped in reverse
// order.
//
// Postcondition: All services are stopped when this method returns. The
// first service error is returned.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	errCh := make(chan error, len(l.services))
	for _, ns := range l.services {
		ns := ns
		go func() {
			l.logger.Info("starting service",
				zap.String("service", ns.name),
			)
			svcStart := time.Now()
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
				cancel()
			}
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(l.services)),
		zap.Duration("startup", time.Since(start)),
	)

	var runErr error
wait:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				l.logger.Info("received SIGHUP, reloading")
				_ = l.Reload()
				continue
			}
			l.logger.Info("received signal, shutting down",
				zap.String("signal", sig.String()),
			)
			break wait
		case runErr = <-errCh:
			l.logger.Error("service error, shutting down",
				zap.Error(runErr),
			)
			break wait
		case <-ctx.Done():
			select {
			case runErr = <-errCh:
			default:
			}
			l.logger.Info("context cancelled, shutting down")
			break wait
		}
	}

	l.shutdown()

	l.logger.Info("shutdown complete",
		zap.Duration("total_uptime", time.Since(start)),
	)
	return runErr
}

func (l *Lifecycle) shutdown() {
	shutdownStart := time.Now()
	for i := len(l.services) - 1; i >= 0; i-- {
		ns := l.services[i]
		svcStart := time.Now()
		l.logger.Info("stopping service",
			zap.String("service", ns.name),
		)
		ns.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped",
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}
