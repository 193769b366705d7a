// Package rtasm implements Runtime Assembly: the top-level dispatcher
// that multiplexes input and timer events across every service,
// single-threaded and cooperative.
package rtasm

import (
	"context"
	"fmt"
	"time"

	"github.com/rakunlabs/logi"

	"github.com/rakunlabs/srl/internal/ir"
	"github.com/rakunlabs/srl/internal/ssyn"
)

// OutputSink receives every emitted OutputMsg, tagged with the service
// that emitted it.
type OutputSink interface {
	Output(service string, msg ir.OutputMsg) error
}

// InputEvent is one external-signal arrival from the (assumed
// time-sorted) input stream.
type InputEvent struct {
	Flow    string
	Value   any
	Instant time.Time

	// Trace is a correlation id (a ULID minted by the producer) threaded
	// through to any OutputMsg this event's Update Sequence emits, so one
	// input->coalesce->step->emit chain is traceable in logs.
	Trace string
}

// Runtime owns every service and the sender handles for outputs and
// timers.
type Runtime struct {
	order    []string
	services map[string]*ssyn.Service
	inputIdx map[string][]string // flow name -> service names declaring it, declaration order
	timers   *timerQueue
	sink     OutputSink
}

// New builds an empty Runtime; services are registered with AddService,
// each bound to its declared input flow names. Registration order governs
// both the initial-emission sequence and the routing order ties are
// broken by.
func New(sink OutputSink) *Runtime {
	return &Runtime{
		services: map[string]*ssyn.Service{},
		inputIdx: map[string][]string{},
		timers:   newTimerQueue(),
		sink:     sink,
	}
}

// AddService registers svc under name, declaring which input flow names
// route to it.
func (rt *Runtime) AddService(name string, svc *ssyn.Service, inputFlows []string) {
	rt.order = append(rt.order, name)
	rt.services[name] = svc
	for _, flow := range inputFlows {
		rt.inputIdx[flow] = append(rt.inputIdx[flow], name)
	}
}

// serviceSender adapts Runtime to ssyn.Sender for one service.
type serviceSender struct {
	rt   *Runtime
	name string
}

func (s serviceSender) SendOutput(msg ir.OutputMsg) error {
	return s.rt.sink.Output(s.name, msg)
}

func (s serviceSender) SendTimer(req ir.TimerRequest) error {
	s.rt.timers.Arm(req)
	return nil
}

// Sender returns the ssyn.Sender a service named name should be
// constructed with, so every SendOutput/SendTimer call routes back
// through this Runtime.
func (rt *Runtime) Sender(name string) ssyn.Sender {
	return serviceSender{rt: rt, name: name}
}

// RunLoop is the dispatcher's main loop: it emits every service's initial
// Timeout arm and default outputs at initInstant, then drains the merge
// of external input and timer deliveries in ascending instant order.
// events must already be sorted by Instant — the input stream is assumed
// time-sorted by upstream merge; the timer-delivery side of that merge is
// performed here rather than by an external companion library, so the
// runtime is self-contained and testable end-to-end without inventing a
// separate merge-stream dependency.
func (rt *Runtime) RunLoop(ctx context.Context, initInstant time.Time, events []InputEvent) error {
	logger := logi.Ctx(ctx)

	for _, name := range rt.order {
		if err := rt.services[name].Start(initInstant); err != nil {
			return fmt.Errorf("rtasm: starting service %q: %w", name, err)
		}
	}

	i := 0
	for i < len(events) || !rt.timers.Empty() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		timerAt, hasTimer := rt.timers.Peek()
		useTimer := hasTimer && (i >= len(events) || timerAt.Before(events[i].Instant))

		if useTimer {
			entry, ok := rt.timers.Pop()
			if !ok {
				continue
			}
			if err := rt.dispatchTimer(entry); err != nil {
				logger.Error("rtasm: timer dispatch failed", "service", entry.service, "tag", entry.tag.String(), "error", err)
				return err
			}
			continue
		}

		ev := events[i]
		i++
		for _, name := range rt.inputIdx[ev.Flow] {
			logger.Debug("rtasm: dispatching input", "service", name, "flow", ev.Flow, "trace", ev.Trace)
			if err := rt.services[name].HandleInput(ev.Flow, ev.Value, ev.Instant, ev.Trace); err != nil {
				logger.Error("rtasm: input dispatch failed", "service", name, "flow", ev.Flow, "trace", ev.Trace, "error", err)
				return err
			}
		}
	}
	return nil
}

func (rt *Runtime) dispatchTimer(entry timerEntry) error {
	svc, ok := rt.services[entry.service]
	if !ok {
		return fmt.Errorf("rtasm: timer for unknown service %q", entry.service)
	}
	switch entry.tag {
	case ir.TimerDelay:
		return svc.HandleDelayTimer(entry.instant)
	case ir.TimerTimeout:
		return svc.HandleTimeoutTimer(entry.instant)
	default:
		return fmt.Errorf("rtasm: unknown timer tag %v", entry.tag)
	}
}
