package system

import (
	"sync/atomic"
	"time"

	"github.com/oriumgames/ecscore/component"
	"github.com/oriumgames/ecscore/internal/registry"
)

// config accumulates the options passed to a system constructor.
type config struct {
	group       int
	interval    time.Duration
	manual      bool
	notParallel bool
	filters     []component.Handle
}

// Option configures a system at construction time. Filters (absence
// markers) and parent-reference sub-component constraints are declared
// this way rather than as positional arguments to the callable: Go has
// no lightweight way to express "a parameter that is always the nil
// pointer" the way the original's pointer-for-filter convention does,
// so filters participate in entity-set computation (intersect/subtract,
// per spec §4.3) without being delivered as call arguments. This is a
// deliberate, disclosed simplification — see DESIGN.md.
type Option func(*config)

// WithGroup sets the group<K> option: systems in smaller K run before
// systems in larger K (spec §4.4).
func WithGroup(k int) Option {
	return func(c *config) { c.group = k }
}

// WithInterval sets the interval<ms,us> option: run() is suppressed
// unless the wall-clock elapsed since the last successful run reaches
// d (spec §4.4).
func WithInterval(d time.Duration) Option {
	return func(c *config) { c.interval = d }
}

// Manual marks the system manual_update: it is not added to the
// scheduler, and the host invokes its run() directly.
func Manual() Option {
	return func(c *config) { c.manual = true }
}

// NotParallel marks a ranged or sorted system's internal iteration as
// sequential rather than parallel-for.
func NotParallel() Option {
	return func(c *config) { c.notParallel = true }
}

// WithFilter declares that the system's entity set excludes any entity
// owning a T ("must not have"). reg resolves T's pool immediately since
// the registry is already available at construction time.
func WithFilter[T any](reg *registry.Registry) Option {
	h := registry.Pool[T](reg)
	return func(c *config) { c.filters = append(c.filters, h) }
}

func newConfig(opts []Option) config {
	var c config
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Base carries the state and behaviour shared by every system variant:
// group, interval gating (with drift-free rescheduling adopted from the
// teacher's System.ShouldRun/MarkRun), manual/not-parallel flags, and
// the enable/disable + forced-rebuild bookkeeping of spec §4.4's
// set_enable.
type Base struct {
	access      Access
	group       int
	interval    time.Duration
	manual      bool
	notParallel bool

	enabled     atomic.Bool
	forceNext   atomic.Bool
	lastRunUnix atomic.Int64
	nextRunUnix atomic.Int64
}

func newBase(access Access, cfg config) Base {
	b := Base{access: access, group: cfg.group, interval: cfg.interval, manual: cfg.manual, notParallel: cfg.notParallel}
	b.enabled.Store(true)
	b.forceNext.Store(true) // first run always rebuilds
	return b
}

func (b *Base) Access() Access          { return b.access }
func (b *Base) Group() int              { return b.group }
func (b *Base) Interval() time.Duration { return b.interval }
func (b *Base) ManualUpdate() bool      { return b.manual }
func (b *Base) NotParallel() bool       { return b.notParallel }
func (b *Base) Enabled() bool           { return b.enabled.Load() }

// SetEnabled toggles the system; re-enabling forces a rebuild on the
// next run, per spec §4.4.
func (b *Base) SetEnabled(v bool) {
	wasDisabled := !b.enabled.Swap(v)
	if v && wasDisabled {
		b.forceNext.Store(true)
	}
}

// shouldRebuild consumes the forced-rebuild flag and combines it with
// whether any source pool reports a count change.
func (b *Base) shouldRebuild(handles []component.Handle) bool {
	if b.forceNext.Swap(false) {
		return true
	}
	return anyChanged(handles)
}

// ShouldRun reports whether the interval has elapsed since the last
// successful run (always true if no interval was set). Ported wholesale
// from the teacher's drift-free rescheduling: the next deadline is
// computed from the previous *scheduled* deadline, not from "now", and
// is reset to now+interval when lagging, so a missed window is skipped
// rather than queued (spec §5: "a missed window is silently skipped,
// not queued").
func (b *Base) ShouldRun(now time.Time) bool {
	if b.interval == 0 {
		return true
	}
	next := b.nextRunUnix.Load()
	if next == 0 {
		return true
	}
	return now.UnixNano() >= next
}

// MarkRun records a successful run at now and, if an interval is set,
// schedules the next deadline drift-free.
func (b *Base) MarkRun(now time.Time) {
	b.lastRunUnix.Store(now.UnixNano())
	if b.interval <= 0 {
		return
	}
	nowNanos := now.UnixNano()
	last := b.nextRunUnix.Load()
	if last == 0 {
		last = nowNanos
	}
	next := last + b.interval.Nanoseconds()
	if next < nowNanos {
		next = nowNanos + b.interval.Nanoseconds()
	}
	b.nextRunUnix.Store(next)
}
