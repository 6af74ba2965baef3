package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/orbworks/orbit/logger"
)

// Default configuration values.
const (
	DefaultResponseTimeout = 3 * time.Second
	DefaultNotifyTimeout   = 10 * time.Second
	DefaultCloseTimeout    = 3 * time.Second
	DefaultReadBufferSize  = 4096
	DefaultNotifyQueueSize = 32
)

// Configuration limits.
const (
	MinResponseTimeout = 10 * time.Millisecond
	MinNotifyTimeout   = 10 * time.Millisecond
	MinReadBufferSize  = 64
	MinNotifyQueueSize = 1
)

// Config holds all configuration for a Session.
type Config struct {
	responseTimeout time.Duration
	notifyTimeout   time.Duration
	closeTimeout    time.Duration
	readBufferSize  int
	notifyQueueSize int
	logger          logger.Logger
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		responseTimeout: DefaultResponseTimeout,
		notifyTimeout:   DefaultNotifyTimeout,
		closeTimeout:    DefaultCloseTimeout,
		readBufferSize:  DefaultReadBufferSize,
		notifyQueueSize: DefaultNotifyQueueSize,
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// ResponseTimeout returns the cap on waiting for a command's response.
// Zero means no cap.
func (cfg *Config) ResponseTimeout() time.Duration { return cfg.responseTimeout }

// NotifyTimeout returns the cap on waiting for the notification that
// completes a send-expect-notify call. Zero means no cap.
func (cfg *Config) NotifyTimeout() time.Duration { return cfg.notifyTimeout }

// CloseTimeout returns how long Close waits for the session's goroutines
// to terminate.
func (cfg *Config) CloseTimeout() time.Duration { return cfg.closeTimeout }

// ReadBufferSize returns the size of the reader's per-read buffer.
func (cfg *Config) ReadBufferSize() int { return cfg.readBufferSize }

// NotifyQueueSize returns the depth of the notification dispatch queue.
func (cfg *Config) NotifyQueueSize() int { return cfg.notifyQueueSize }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Session.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithResponseTimeout sets the cap on waiting for a command's response.
// Zero disables the cap, leaving only the caller's context; otherwise the
// value must be at least MinResponseTimeout.
func WithResponseTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d != 0 && d < MinResponseTimeout {
			return fmt.Errorf("session: response timeout %v below minimum %v", d, MinResponseTimeout)
		}
		cfg.responseTimeout = d

		return nil
	})
}

// WithNotifyTimeout sets the cap on waiting for the notification that
// completes a send-expect-notify call, measured from the robot's
// acknowledgement. Zero disables the cap; otherwise the value must be at
// least MinNotifyTimeout.
func WithNotifyTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d != 0 && d < MinNotifyTimeout {
			return fmt.Errorf("session: notify timeout %v below minimum %v", d, MinNotifyTimeout)
		}
		cfg.notifyTimeout = d

		return nil
	})
}

// WithCloseTimeout sets how long Close waits for the session's goroutines
// to terminate. Must be positive.
func WithCloseTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("session: close timeout must be positive")
		}
		cfg.closeTimeout = d

		return nil
	})
}

// WithReadBufferSize sets the size of the reader's per-read buffer.
// Must be at least MinReadBufferSize.
func WithReadBufferSize(size int) Option {
	return optFunc(func(cfg *Config) error {
		if size < MinReadBufferSize {
			return fmt.Errorf("session: read buffer size %d below minimum %d", size, MinReadBufferSize)
		}
		cfg.readBufferSize = size

		return nil
	})
}

// WithNotifyQueueSize sets the depth of the notification dispatch queue.
// When the queue is full, further unclaimed notifications are dropped and
// counted rather than stalling the reader. Must be at least
// MinNotifyQueueSize.
func WithNotifyQueueSize(size int) Option {
	return optFunc(func(cfg *Config) error {
		if size < MinNotifyQueueSize {
			return fmt.Errorf("session: notify queue size %d below minimum %d", size, MinNotifyQueueSize)
		}
		cfg.notifyQueueSize = size

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("session: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
