package rtkernel

// taskQueue is a reference-holding FIFO of TCBs, grounded on the intrusive
// doubly linked list recommended by spec.md §9: a task is in at most one
// queue at a time, so the link lives on the TCB itself rather than in a
// separately allocated node, and every consumer (the ready queue and every
// primitive's wait queue) shares this one type.
//
// priorityOrder selects the ordering discipline: when true, Add inserts so
// Get always returns the highest-priority waiter (ties broken FIFO); when
// false, Add always appends, so Get is strict FIFO. This single type
// serving two ordering policies via a constructor flag is grounded on
// eventloop/registry.go's one-registry-many-policies shape.
type taskQueue struct {
	priorityOrder bool
	head, tail    *TCB
	len           int
}

func newTaskQueue(priorityOrder bool) *taskQueue {
	return &taskQueue{priorityOrder: priorityOrder}
}

// Len reports the number of tasks currently queued.
func (q *taskQueue) Len() int { return q.len }

// Empty reports whether the queue holds no tasks.
func (q *taskQueue) Empty() bool { return q.head == nil }

// Add inserts t. For a priority-ordered queue this walks from the tail
// toward the head; ties (equal priority) keep insertion order, giving FIFO
// within a priority level as spec.md §4.1 requires.
func (q *taskQueue) Add(t *TCB) {
	if t.queue != nil {
		panic("rtkernel: task already queued")
	}
	t.queue = q
	t.link.prev, t.link.next = nil, nil

	if q.head == nil {
		q.head, q.tail = t, t
		q.len++
		return
	}

	if !q.priorityOrder {
		t.link.prev = q.tail
		q.tail.link.next = t
		q.tail = t
		q.len++
		return
	}

	// Priority order, ascending: walk back from the tail while the
	// candidate is strictly higher priority (lower numeric value) than the
	// node already there, so ties land after existing equal-priority
	// entries (FIFO within priority).
	cur := q.tail
	for cur != nil && t.priority < cur.priority {
		cur = cur.link.prev
	}
	if cur == nil {
		// t belongs before everything currently queued.
		t.link.next = q.head
		q.head.link.prev = t
		q.head = t
	} else {
		t.link.next = cur.link.next
		t.link.prev = cur
		if cur.link.next != nil {
			cur.link.next.link.prev = t
		} else {
			q.tail = t
		}
		cur.link.next = t
	}
	q.len++
}

// Get removes and returns the head of the queue (the highest-priority or
// earliest waiter, depending on ordering), or nil if empty.
func (q *taskQueue) Get() *TCB {
	t := q.head
	if t == nil {
		return nil
	}
	q.remove(t)
	return t
}

// Peek returns the head of the queue without removing it.
func (q *taskQueue) Peek() *TCB {
	return q.head
}

// Remove detaches t from the queue it is currently in, wherever in the
// list it sits. It is a no-op if t is not queued.
func (q *taskQueue) Remove(t *TCB) {
	if t.queue != q {
		return
	}
	q.remove(t)
}

func (q *taskQueue) remove(t *TCB) {
	if t.link.prev != nil {
		t.link.prev.link.next = t.link.next
	} else {
		q.head = t.link.next
	}
	if t.link.next != nil {
		t.link.next.link.prev = t.link.prev
	} else {
		q.tail = t.link.prev
	}
	t.link.prev, t.link.next = nil, nil
	t.queue = nil
	q.len--
}

// Each iterates the queue head-to-tail, calling fn for every task. The next
// pointer is captured before fn runs, so fn may safely remove the current
// task (e.g. timeout promotion, or a single-shot timer unlinking itself)
// without corrupting the walk - the same discipline spec.md §4.7 requires
// of the timer list traversal.
func (q *taskQueue) Each(fn func(t *TCB)) {
	cur := q.head
	for cur != nil {
		next := cur.link.next
		fn(cur)
		cur = next
	}
}
