package rtasm

import (
	"testing"
	"time"

	"github.com/rakunlabs/srl/internal/ir"
)

func TestTimerQueueOrdersByInstantThenArrival(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0).UTC()

	q.Arm(ir.TimerRequest{Service: "a", Tag: ir.TimerTimeout, Instant: base, Duration: 3 * time.Second})
	q.Arm(ir.TimerRequest{Service: "b", Tag: ir.TimerDelay, Instant: base, Duration: time.Second})
	// c ties b's instant; b was armed first, so b must pop first.
	q.Arm(ir.TimerRequest{Service: "c", Tag: ir.TimerDelay, Instant: base, Duration: time.Second})

	var order []string
	for !q.Empty() {
		e, ok := q.Pop()
		if !ok {
			t.Fatal("Pop returned false while Empty() reported live entries")
		}
		order = append(order, e.service)
	}

	want := []string{"b", "c", "a"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

// TestTimerQueueResetCancelsStaleEntry covers the reset semantics: a
// second Arm for the same (service, tag) supersedes the first, whose stale
// heap entry must never be delivered.
func TestTimerQueueResetCancelsStaleEntry(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(2000, 0).UTC()

	q.Arm(ir.TimerRequest{Service: "svc", Tag: ir.TimerDelay, Instant: base, Duration: time.Second})
	q.Arm(ir.TimerRequest{Service: "svc", Tag: ir.TimerDelay, Instant: base, Duration: 5 * time.Second})

	if q.heap.Len() != 2 {
		t.Fatalf("heap length = %d, want 2 (stale entry dropped lazily, not on Arm)", q.heap.Len())
	}

	e, ok := q.Pop()
	if !ok {
		t.Fatal("Pop returned false")
	}
	if !e.instant.Equal(base.Add(5 * time.Second)) {
		t.Errorf("delivered instant = %v, want the later rearm at %v", e.instant, base.Add(5*time.Second))
	}
	if !q.Empty() {
		t.Error("queue must be empty after the only live entry is popped")
	}
}

func TestTimerQueueEmptyOnNoArms(t *testing.T) {
	q := newTimerQueue()
	if !q.Empty() {
		t.Error("fresh timer queue must report Empty")
	}
	if _, ok := q.Peek(); ok {
		t.Error("Peek on an empty queue must report ok=false")
	}
}
