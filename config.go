package rtkernel

import (
	"time"

	"github.com/cortexkernel/rtkernel/board"
)

// Config carries the kernel's compile-time configuration flags from
// spec.md §6, plus the boundary implementations (§6 "Hardware boundary")
// that make the kernel runnable on a host. Constructed via functional
// Options, grounded on eventloop/options.go and boljen-go-scheduler's
// Config.rate()/Config.maxops() validate-with-defaults style.
type Config struct {
	// PriorityInheritance mirrors MUTEX_USE_PRIORITY_INHERITANCE: when
	// false, mutexLock never boosts the owner's priority.
	PriorityInheritance bool

	// TasksRunPriv mirrors TASKS_RUN_PRIV: when true, taskYield calls
	// scheduleNextTask directly; when false it routes through PrivilegeTrap.
	TasksRunPriv bool

	// TickInterval is the period of the simulated SysTick source, used by
	// the default board.Ticker and by TaskSleepMS/TaskSleepUS to convert a
	// duration to ticks (a real board's hardware timer has its own
	// configuration, out of scope per spec.md §1).
	TickInterval time.Duration

	CriticalSection board.CriticalSection
	ContextSwitcher board.ContextSwitcher
	PrivilegeTrap   board.PrivilegeTrap
	TickSource      board.TickSource

	Logger *Logger
}

// Option configures a Kernel at construction time.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		PriorityInheritance: true,
		TasksRunPriv:        true,
		TickInterval:        time.Millisecond,
		CriticalSection:     board.NewCriticalSection(),
		ContextSwitcher:     board.NewContextSwitcher(),
		PrivilegeTrap:       board.DirectTrap{},
	}
}

// WithPriorityInheritance toggles MUTEX_USE_PRIORITY_INHERITANCE.
func WithPriorityInheritance(enabled bool) Option {
	return func(c *Config) { c.PriorityInheritance = enabled }
}

// WithTasksRunPriv toggles TASKS_RUN_PRIV.
func WithTasksRunPriv(enabled bool) Option {
	return func(c *Config) { c.TasksRunPriv = enabled }
}

// WithTickInterval sets the simulated tick period used by the default
// board.Ticker tick source and by TaskSleepMS/TaskSleepUS's duration-to-tick
// conversion. If WithTickSource supplies a custom source, that source's own
// period is not affected, but the sleep conversion still uses this value.
func WithTickInterval(d time.Duration) Option {
	return func(c *Config) { c.TickInterval = d }
}

// WithCriticalSection overrides the default single-mutex critical section.
func WithCriticalSection(cs board.CriticalSection) Option {
	return func(c *Config) { c.CriticalSection = cs }
}

// WithContextSwitcher overrides the default channel hand-off context
// switcher.
func WithContextSwitcher(cw board.ContextSwitcher) Option {
	return func(c *Config) { c.ContextSwitcher = cw }
}

// WithPrivilegeTrap overrides the default privilege trap, which just calls
// the trapped function directly.
func WithPrivilegeTrap(pt board.PrivilegeTrap) Option {
	return func(c *Config) { c.PrivilegeTrap = pt }
}

// WithTickSource overrides the default board.Ticker tick source.
func WithTickSource(ts board.TickSource) Option {
	return func(c *Config) { c.TickSource = ts }
}

// WithLogger attaches a Logger for scheduler trace and fatal-assertion
// events (spec.md §7: recoverable errors are never logged, only this
// ambient trace/fatal surface is carried - see SPEC_FULL.md AMBIENT STACK).
func WithLogger(l *Logger) Option {
	return func(c *Config) { c.Logger = l }
}
