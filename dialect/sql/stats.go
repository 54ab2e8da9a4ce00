package sql

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/syssam/postgraph/dialect"
)

// observer runs one statement and reports on it.
type observer func(ctx context.Context, op, query string, args any, run func() error) error

// observedSession runs every statement of a session through an observer.
type observedSession struct {
	dialect.Session
	observe observer
}

func (s *observedSession) Query(ctx context.Context, query string, args, v any) error {
	return s.observe(ctx, "query", query, args, func() error {
		return s.Session.Query(ctx, query, args, v)
	})
}

func (s *observedSession) Exec(ctx context.Context, query string, args, v any) error {
	return s.observe(ctx, "exec", query, args, func() error {
		return s.Session.Exec(ctx, query, args, v)
	})
}

// QueryStats counts the statements run through a StatsDriver.
type QueryStats struct {
	queries  atomic.Int64
	execs    atomic.Int64
	slow     atomic.Int64
	errors   atomic.Int64
	duration atomic.Int64 // nanoseconds
}

// Snapshot returns the current counters.
func (s *QueryStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.queries.Load(),
		Execs:    s.execs.Load(),
		Slow:     s.slow.Load(),
		Errors:   s.errors.Load(),
		Duration: time.Duration(s.duration.Load()),
	}
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries  int64
	Execs    int64
	Slow     int64
	Errors   int64
	Duration time.Duration
}

// Avg returns the mean statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	n := s.Queries + s.Execs
	if n == 0 {
		return 0
	}
	return s.Duration / time.Duration(n)
}

// LogValue implements slog.LogValuer.
func (s StatsSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("queries", s.Queries),
		slog.Int64("execs", s.Execs),
		slog.Int64("slow", s.Slow),
		slog.Int64("errors", s.Errors),
		slog.Duration("avg", s.Avg()),
	)
}

// SlowQueryHook is called for every statement slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver counts the statements of a driver and its sessions and
// reports slow ones.
type StatsDriver struct {
	dialect.Driver
	stats     QueryStats
	threshold time.Duration
	onSlow    SlowQueryHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow statement threshold. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets the function called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.onSlow = hook
	}
}

// WithSlowQueryLogger warns about slow statements on logger.
func WithSlowQueryLogger(logger *slog.Logger) StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, d time.Duration) {
		logger.WarnContext(ctx, "slow query", "duration", d, "query", query, "args", args)
	})
}

// NewStatsDriver wraps drv.
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, threshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the live counters.
func (d *StatsDriver) Stats() *QueryStats { return &d.stats }

func (d *StatsDriver) observe(ctx context.Context, op, query string, args any, run func() error) error {
	start := time.Now()
	err := run()
	elapsed := time.Since(start)
	if op == "query" {
		d.stats.queries.Add(1)
	} else {
		d.stats.execs.Add(1)
	}
	d.stats.duration.Add(int64(elapsed))
	if err != nil {
		d.stats.errors.Add(1)
	}
	if elapsed > d.threshold {
		d.stats.slow.Add(1)
		if d.onSlow != nil {
			argv, _ := args.([]any)
			d.onSlow(ctx, query, argv, elapsed)
		}
	}
	return err
}

// Query implements dialect.ExecQuerier.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, "query", query, args, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec implements dialect.ExecQuerier.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, "exec", query, args, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Session returns a session whose statements are counted too.
func (d *StatsDriver) Session(ctx context.Context) (dialect.Session, error) {
	sess, err := d.Driver.Session(ctx)
	if err != nil {
		return nil, err
	}
	return &observedSession{Session: sess, observe: d.observe}, nil
}

// DebugDriver logs every statement of a driver and its sessions at debug
// level.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
}

// NewDebugDriver wraps drv. A nil logger uses slog.Default.
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

func (d *DebugDriver) observe(ctx context.Context, op, query string, args any, run func() error) error {
	d.logger.DebugContext(ctx, op, "query", query, "args", args)
	return run()
}

// Query implements dialect.ExecQuerier.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, "query", query, args, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec implements dialect.ExecQuerier.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, "exec", query, args, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Session returns a session whose statements are logged too.
func (d *DebugDriver) Session(ctx context.Context) (dialect.Session, error) {
	sess, err := d.Driver.Session(ctx)
	if err != nil {
		return nil, err
	}
	return &observedSession{Session: sess, observe: d.observe}, nil
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
