// Package timeouts holds the request deadlines handlers apply to store
// calls. Values start at the defaults below and can be overridden at
// startup with Configure or ConfigureFromEnv.
//
// Which one to use:
//   - Ping: health checks
//   - Short: one-document reads and writes (create group, upsert schedule)
//   - Medium: list queries (groups with counts, grid, reports)
//   - Long: writes touching several collections (submit/delete report,
//     delete group, assign)
//   - Batch: whole-roster redistribution
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Built-in timeouts.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config holds timeout configuration values.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults returns the built-in timeouts.
func Defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

// merge overlays the positive fields of o onto c.
func (c Config) merge(o Config) Config {
	pick := func(cur, next time.Duration) time.Duration {
		if next > 0 {
			return next
		}
		return cur
	}
	return Config{
		Ping:   pick(c.Ping, o.Ping),
		Short:  pick(c.Short, o.Short),
		Medium: pick(c.Medium, o.Medium),
		Long:   pick(c.Long, o.Long),
		Batch:  pick(c.Batch, o.Batch),
	}
}

var (
	mu  sync.RWMutex
	cur = Defaults()
)

// Current returns the effective timeouts.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Ping returns the timeout for health checks.
func Ping() time.Duration { return Current().Ping }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return Current().Short }

// Medium returns the timeout for list queries.
func Medium() time.Duration { return Current().Medium }

// Long returns the timeout for operations touching multiple collections.
func Long() time.Duration { return Current().Long }

// Batch returns the timeout for whole-roster writes.
func Batch() time.Duration { return Current().Batch }

// Configure sets custom timeout values. Zero values keep the current
// value. Call it during startup, before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	cur = cur.merge(cfg)
}

// Reset restores the defaults. For tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = Defaults()
}

// ConfigureFromEnv applies TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_BATCH (Go durations such as "500ms" or "2m").
// Unset, unparsable and non-positive values are skipped. It returns how
// many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	vars := []struct {
		env string
		dst *time.Duration
	}{
		{"TIMEOUT_PING", &cfg.Ping},
		{"TIMEOUT_SHORT", &cfg.Short},
		{"TIMEOUT_MEDIUM", &cfg.Medium},
		{"TIMEOUT_LONG", &cfg.Long},
		{"TIMEOUT_BATCH", &cfg.Batch},
	}
	configured := 0
	for _, v := range vars {
		raw := os.Getenv(v.env)
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			*v.dst = d
			configured++
		}
	}
	Configure(cfg)
	return configured
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning
// when the deadline was hit, naming operation.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
