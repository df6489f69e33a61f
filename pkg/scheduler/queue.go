package scheduler

// Priority selects the bucket a callback is queued in.
type Priority uint8

const (
	High Priority = iota
	Medium
	Low
)

// String returns the string representation of the Priority.
func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// Queue is the runtime's update queue.
type Queue struct {
	loop      *Loop
	buckets   [3][]func()
	scheduled bool
	flushing  bool
	flushes   int
}

// NewQueue creates a Queue that schedules its flushes on loop.
func NewQueue(loop *Loop) *Queue {
	return &Queue{loop: loop}
}

// Add appends fn to the bucket for p and schedules a flush on the next tick
// if none is pending.
func (q *Queue) Add(fn func(), p Priority) {
	if p > Low {
		p = Low
	}
	q.buckets[p] = append(q.buckets[p], fn)
	if !q.scheduled && !q.flushing {
		q.schedule()
	}
}

func (q *Queue) schedule() {
	q.scheduled = true
	q.loop.Post(q.tick)
}

func (q *Queue) tick() {
	q.scheduled = false
	q.Flush()
}

// Flush drains every bucket once, in priority order. Callbacks added while
// draining run on a later tick.
func (q *Queue) Flush() {
	if q.flushing {
		return
	}
	q.flushing = true
	q.flushes++
	for p := range q.buckets {
		batch := q.buckets[p]
		q.buckets[p] = nil
		for _, fn := range batch {
			fn()
		}
	}
	q.flushing = false

	if q.Len() > 0 && !q.scheduled {
		q.schedule()
	}
}

// Len returns the number of queued callbacks across all buckets.
func (q *Queue) Len() int {
	return len(q.buckets[High]) + len(q.buckets[Medium]) + len(q.buckets[Low])
}

// Flushes returns the number of flush passes run so far.
func (q *Queue) Flushes() int {
	return q.flushes
}
