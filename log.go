package rtkernel

import (
	"io"
	stdlog "log/slog"

	"github.com/joeycumines/logiface"
	logslog "github.com/joeycumines/logiface-slog"
)

// Logger is the concrete logger type the kernel writes to: logiface's
// generic facade fixed to the logiface-slog event type, exactly the way
// every backend in the retrieval pack's logiface family is consumed
// (logiface.New[*Event](slogBackend.NewLogger(handler))). Per spec.md §7
// ("the kernel never logs" about recoverable return codes), this is used
// only for scheduler trace events and for the one log line that always
// precedes a fatal assertion panic.
type Logger = logiface.Logger[*logslog.Event]

// NewDefaultLogger builds a Logger writing newline-delimited text records
// to w via log/slog, at minimum level. A nil Logger is the Config default;
// every logging helper in this package checks for nil and then logs
// nothing.
func NewDefaultLogger(w io.Writer, level logiface.Level) *Logger {
	handler := stdlog.NewTextHandler(w, nil)
	return logiface.New[*logslog.Event](
		logslog.NewLogger(handler),
		logiface.WithLevel[*logslog.Event](level),
	)
}

// traceSwitch logs a context switch at LevelTrace: which task yielded or
// was preempted, and which task now runs.
func (k *Kernel) traceSwitch(from, to *TCB) {
	if k.logger == nil {
		return
	}
	b := k.logger.Trace()
	if from != nil {
		b = b.Str("from", from.name)
	}
	if to != nil {
		b = b.Str("to", to.name)
	}
	b.Log("context switch")
}

// traceTick logs a tick boundary at LevelTrace, including how many blocked
// tasks timed out on this tick.
func (k *Kernel) traceTick(timedOut int) {
	if k.logger == nil {
		return
	}
	k.logger.Trace().Int("timed_out", timedOut).Log("tick")
}

// fatalf logs msg at LevelCritical (if a logger is configured) and then
// panics, implementing spec.md §7's "preconditions violated ... are
// detected by assertions (fatal; kernel does not attempt recovery)".
// Grounded on eventloop's own log-then-repanic pattern for unrecoverable
// internal errors.
func (k *Kernel) fatalf(msg string) {
	if k.logger != nil {
		k.logger.Crit().Log(msg)
	}
	panic("rtkernel: " + msg)
}
