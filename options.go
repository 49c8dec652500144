package gcroots

import (
	"io"
	"log/slog"
)

// DefaultCapacity is the number of slots a registry reserves up front.
const DefaultCapacity = 512

type config struct {
	capacity   int
	sentinels  []Value
	typeName   func(Value) string
	logger     *slog.Logger
	dumpOnMark io.Writer
}

func newConfig(opts []Option) config {
	cfg := config{
		capacity:  DefaultCapacity,
		sentinels: DefaultSentinels,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}

// Option configures a Registry or Sharded store.
type Option func(*config)

// WithCapacity pre-sizes the table. Values <= 0 keep DefaultCapacity.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithSentinels replaces the set of values that are never tracked.
// Passing no values disables sentinel filtering entirely.
func WithSentinels(vals ...Value) Option {
	return func(c *config) {
		c.sentinels = append([]Value(nil), vals...)
	}
}

// WithTypeNamer sets the function used to label entries in DebugDump.
// It is called with the registry lock held and must not call back into it.
func WithTypeNamer(fn func(Value) string) Option {
	return func(c *config) {
		c.typeName = fn
	}
}

// WithLogger sets the logger for lifecycle and per-cycle debug messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithDumpOnMark writes a DebugDump to w at the start of every Mark.
func WithDumpOnMark(w io.Writer) Option {
	return func(c *config) {
		c.dumpOnMark = w
	}
}
