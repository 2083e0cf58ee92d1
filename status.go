package rtkernel

// Status is the return code of a kernel API call. The zero value, StatusOK,
// is success. Status implements error, but StatusOK converted to an error
// is non-nil too, so callers compare the returned Status against StatusOK
// or a specific code (spec's RET_BUSY / -ENOSPACE / -ETIMEOUT family)
// rather than testing "err != nil".
type Status int

const (
	StatusOK Status = iota
	// StatusBusy is returned by a non-blocking mutex/semaphore acquire that
	// could not succeed immediately.
	StatusBusy
	// StatusTimeout is returned when a bounded wait expired before the
	// primitive could satisfy the request.
	StatusTimeout
	// StatusNoSpace is returned by a non-blocking queue send against a full
	// queue.
	StatusNoSpace
	// StatusNoData is returned by a non-blocking queue receive against an
	// empty queue.
	StatusNoData
	// StatusNotOwner is returned by mutexUnlock when the caller does not
	// hold the mutex.
	StatusNotOwner
	// StatusNotLocked is returned by mutexUnlock on an already-unlocked
	// mutex.
	StatusNotLocked
	// StatusNoSem is returned by semaphoreGive against an already-full
	// counting semaphore.
	StatusNoSem
	// StatusInvalid marks a configuration/argument precondition violation.
	// Per spec these are normally caught by assert and never returned to a
	// caller in a correctly built application, but msgQueueReceive's nil
	// handle check is kept and reports it this way, as does TimerStart for
	// a zero-tick interval.
	StatusInvalid
)

var statusText = map[Status]string{
	StatusOK:        "ok",
	StatusBusy:       "busy",
	StatusTimeout:    "timeout",
	StatusNoSpace:    "no space",
	StatusNoData:     "no data",
	StatusNotOwner:   "not owner",
	StatusNotLocked:  "not locked",
	StatusNoSem:      "no sem",
	StatusInvalid:    "invalid argument",
}

// Error implements error. StatusOK.Error() still returns a string (it is
// never wrapped in an error value by the kernel itself, since StatusOK !=
// nil as an error - callers test Status values directly, not via err!=nil,
// for that reason).
func (s Status) Error() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return "unknown status"
}
