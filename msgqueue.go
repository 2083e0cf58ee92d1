package rtkernel

// msgRing is a fixed-capacity FIFO ring buffer, adapted from the
// mask-based power-of-two indexing in catrate/ring.go - that buffer orders
// constraints.Ordered samples for rate-limiting; this one drops the
// ordering constraint and the search/slice operations it doesn't need,
// keeping just the push/pop shape a bounded message queue wants.
type msgRing[T any] struct {
	buf []T
	// capacity is the logical bound callers see (the queueLength a caller
	// actually asked for); it is never rounded up. buf is sized to the next
	// power of two at or above it purely so push/pop can mask-index rather
	// than modulo-index - that padding must never leak into Len/Cap, or a
	// non-power-of-two capacity would silently admit extra items.
	capacity uint32
	mask     uint32
	head     uint32
	len      uint32
}

func newMsgRing[T any](capacity uint32) *msgRing[T] {
	size := uint32(1)
	for size < capacity {
		size <<= 1
	}
	if size == 0 {
		size = 1
	}
	return &msgRing[T]{buf: make([]T, size), capacity: capacity, mask: size - 1}
}

func (r *msgRing[T]) Len() int { return int(r.len) }
func (r *msgRing[T]) Cap() int { return int(r.capacity) }

func (r *msgRing[T]) push(v T) {
	idx := (r.head + r.len) & r.mask
	r.buf[idx] = v
	r.len++
}

func (r *msgRing[T]) pop() T {
	v := r.buf[r.head]
	var zero T
	r.buf[r.head] = zero
	r.head = (r.head + 1) & r.mask
	r.len--
	return v
}

// MsgQueue is a bounded FIFO message queue per spec.md §4.6: Send blocks
// while full, Receive blocks while empty, and a waiter on either side is
// handed off to directly rather than racing the ring buffer for space or
// data. Go forbids type parameters on methods, so construction and the two
// operations are free functions taking *Kernel explicitly (mirroring how
// eventloop's own generic helpers are written as package-level functions
// rather than methods on Loop).
type MsgQueue[T any] struct {
	ring *msgRing[T]

	sendWaitQueue *taskQueue
	recvWaitQueue *taskQueue
}

// NewMsgQueue creates a bounded message queue of the given element
// capacity.
func NewMsgQueue[T any](capacity uint32) *MsgQueue[T] {
	return &MsgQueue[T]{
		ring:          newMsgRing[T](capacity),
		sendWaitQueue: newTaskQueue(true),
		recvWaitQueue: newTaskQueue(true),
	}
}

// MsgQueueSend enqueues msg, waiting up to waitTicks ticks if the queue is
// full. If a receiver is already waiting (which only happens while the
// ring is empty), msg is handed to it directly without ever touching the
// ring buffer.
func MsgQueueSend[T any](k *Kernel, q *MsgQueue[T], msg T, waitTicks uint32) Status {
	k.cs.Enter()

	if waiter := q.recvWaitQueue.Get(); waiter != nil {
		waiter.pendingValue = msg
		k.wakeAndMaybePreempt(waiter, WakeupMsgQueueDataAvailable)
		return StatusOK
	}

	if q.ring.Len() < q.ring.Cap() {
		q.ring.push(msg)
		k.cs.Exit()
		return StatusOK
	}

	if waitTicks == TaskNoWait {
		k.cs.Exit()
		return StatusNoSpace
	}

	if k.current == nil {
		k.fatalf("MsgQueueSend would block outside any task context")
	}

	cur := k.current
	cur.pendingValue = msg
	q.sendWaitQueue.Add(cur)
	reason := k.taskBlock(BlockWaitMsgQueueSpace, waitTicks)
	if reason == WakeupWaitTimeout {
		cur.pendingValue = nil
		return StatusTimeout
	}
	return StatusOK
}

// MsgQueueReceive dequeues the oldest message, waiting up to waitTicks
// ticks if the queue is empty. Taking a message from a full ring moves the
// highest-priority waiting sender's message into the freed slot and wakes
// that sender; a sender's message is taken directly only when the ring
// holds nothing (a zero-capacity queue). A nil q returns StatusInvalid.
func MsgQueueReceive[T any](k *Kernel, q *MsgQueue[T], waitTicks uint32) (T, Status) {
	if q == nil {
		var zero T
		return zero, StatusInvalid
	}

	k.cs.Enter()

	if q.ring.Len() > 0 {
		v := q.ring.pop()
		q.wakeOneSender(k)
		return v, StatusOK
	}

	if waiter := q.sendWaitQueue.Get(); waiter != nil {
		v := waiter.pendingValue.(T)
		waiter.pendingValue = nil
		k.wakeAndMaybePreempt(waiter, WakeupMsgQueueSpaceAvailable)
		return v, StatusOK
	}

	if waitTicks == TaskNoWait {
		k.cs.Exit()
		var zero T
		return zero, StatusNoData
	}

	if k.current == nil {
		k.fatalf("MsgQueueReceive would block outside any task context")
	}

	q.recvWaitQueue.Add(k.current)
	reason := k.taskBlock(BlockWaitMsgQueueData, waitTicks)
	if reason == WakeupWaitTimeout {
		var zero T
		return zero, StatusTimeout
	}
	v, _ := k.current.pendingValue.(T)
	k.current.pendingValue = nil
	return v, StatusOK
}

// wakeOneSender promotes the highest-priority task waiting for send space,
// if any, moving its pending message into the ring slot Receive just
// freed. Caller holds the critical section; wakeOneSender releases it via
// reschedule or a plain Exit.
func (q *MsgQueue[T]) wakeOneSender(k *Kernel) {
	waiter := q.sendWaitQueue.Get()
	if waiter == nil {
		k.cs.Exit()
		return
	}
	v, _ := waiter.pendingValue.(T)
	waiter.pendingValue = nil
	q.ring.push(v)
	k.wakeAndMaybePreempt(waiter, WakeupMsgQueueSpaceAvailable)
}
