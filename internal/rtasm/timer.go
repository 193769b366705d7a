package rtasm

import (
	"container/heap"
	"time"

	"github.com/rakunlabs/srl/internal/ir"
)

// timerEntry is one scheduled timer delivery. seq pins it to the arm
// request that created it; if a later arm for the same (service, tag)
// supersedes it before it's popped, the entry is stale and is skipped. A
// new request for a tag whose reset is true cancels any previously
// pending delivery for that tag.
type timerEntry struct {
	service string
	tag     ir.TimerTag
	instant time.Time
	seq     uint64
}

type timerKey struct {
	service string
	tag     ir.TimerTag
}

// timerHeap orders pending deliveries by instant, breaking ties by
// arrival order for determinism.
type timerHeap []timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].instant.Equal(h[j].instant) {
		return h[i].seq < h[j].seq
	}
	return h[i].instant.Before(h[j].instant)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(timerEntry)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// timerQueue is the dispatcher's single timer subsystem: every service's
// Delay and Timeout requests are armed and fired through it.
type timerQueue struct {
	pending map[timerKey]uint64 // tag -> latest live sequence number
	heap    timerHeap
	nextSeq uint64
}

func newTimerQueue() *timerQueue {
	return &timerQueue{pending: map[timerKey]uint64{}}
}

// Arm schedules req's delivery at instant+duration and cancels any
// previously pending delivery for the same (service, tag).
func (q *timerQueue) Arm(req ir.TimerRequest) {
	key := timerKey{service: req.Service, tag: req.Tag}
	q.nextSeq++
	q.pending[key] = q.nextSeq
	heap.Push(&q.heap, timerEntry{
		service: req.Service,
		tag:     req.Tag,
		instant: req.Instant.Add(req.Duration),
		seq:     q.nextSeq,
	})
}

// Empty reports whether no live (non-stale) deliveries remain.
func (q *timerQueue) Empty() bool {
	q.dropStale()
	return q.heap.Len() == 0
}

// Peek returns the instant of the next live delivery without removing it.
func (q *timerQueue) Peek() (time.Time, bool) {
	q.dropStale()
	if q.heap.Len() == 0 {
		return time.Time{}, false
	}
	return q.heap[0].instant, true
}

// Pop removes and returns the next live delivery.
func (q *timerQueue) Pop() (timerEntry, bool) {
	q.dropStale()
	if q.heap.Len() == 0 {
		return timerEntry{}, false
	}
	return heap.Pop(&q.heap).(timerEntry), true
}

func (q *timerQueue) dropStale() {
	for q.heap.Len() > 0 {
		top := q.heap[0]
		key := timerKey{service: top.service, tag: top.tag}
		if q.pending[key] == top.seq {
			return
		}
		heap.Pop(&q.heap)
	}
}
