package config

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Store is the persisted settings record with change notification. Every
// successful Update or Reload is written through and delivered to all
// subscribers in subscription order.
type Store struct {
	mu          sync.Mutex
	path        string
	current     Settings
	subscribers []func(Settings)
	logger      *zap.Logger
}

// OpenStore loads the settings at path into a new Store.
//
// Precondition: logger must be non-nil.
// Postcondition: An unsupported settings version is logged as a warning and
// the defaults are used; any other read error is returned.
func OpenStore(path string, logger *zap.Logger) (*Store, error) {
	s, err := LoadSettings(path)
	if err != nil {
		if !errors.Is(err, ErrSettingsVersion) {
			return nil, err
		}
		logger.Warn("settings version not recognised, using defaults",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return NewStore(path, s, logger), nil
}

// NewStore creates a Store holding initial, persisted to path on change.
//
// Precondition: logger must be non-nil.
func NewStore(path string, initial Settings, logger *zap.Logger) *Store {
	if logger == nil {
		panic("config.NewStore: precondition violated: logger must be non-nil")
	}
	return &Store{path: path, current: initial.Clone(), logger: logger}
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Subscribe registers fn to receive settings after every change.
func (s *Store) Subscribe(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Update applies fn to a copy of the settings, validates and saves the
// result, then notifies subscribers.
//
// Postcondition: On error the stored settings are unchanged and no
// subscriber is called.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	next := s.current.Clone()
	fn(&next)
	next.Version = SettingsVersion
	if err := SaveSettings(s.path, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	subs := make([]func(Settings), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	s.logger.Info("settings saved", zap.String("path", s.path))
	s.notify(subs, next)
	return nil
}

// Reload re-reads the settings file and notifies subscribers.
//
// Postcondition: On error the stored settings are unchanged.
func (s *Store) Reload() error {
	next, err := LoadSettings(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = next
	subs := make([]func(Settings), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	s.logger.Info("settings reloaded", zap.String("path", s.path))
	s.notify(subs, next)
	return nil
}

func (s *Store) notify(subs []func(Settings), next Settings) {
	for _, fn := range subs {
		fn(next.Clone())
	}
}
