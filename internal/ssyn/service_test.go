package ssyn

import (
	"errors"
	"testing"
	"time"

	"github.com/rakunlabs/srl/internal/ir"
)

// fakeSender records every output and timer request a Service emits, in
// call order, so tests can assert on the exact sequence.
type fakeSender struct {
	outputs []ir.OutputMsg
	timers  []ir.TimerRequest
	failOn  func(ir.OutputMsg) bool
}

func (f *fakeSender) SendOutput(msg ir.OutputMsg) error {
	if f.failOn != nil && f.failOn(msg) {
		return errSendFailed
	}
	f.outputs = append(f.outputs, msg)
	return nil
}

func (f *fakeSender) SendTimer(req ir.TimerRequest) error {
	f.timers = append(f.timers, req)
	return nil
}

var errSendFailed = errors.New("send failed")

// passthroughComponent is a fake csyn.Component that copies every input
// field to an identically-named output field, so a service's Update
// Sequence has observable, easy-to-assert behavior without depending on
// the csyn package's own synthesis.
type passthroughComponent struct {
	steps int
}

func (c *passthroughComponent) Step(input map[string]any) (map[string]any, error) {
	c.steps++
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out, nil
}

func testService(sender *fakeSender, comp *passthroughComponent) *Service {
	svc := ir.Service{
		Name: "speed_limiter",
		Root: "root",
		Outputs: []ir.OutputFlow{
			{Name: "speed", Type: ir.Type{Kind: ir.KindInt}},
		},
		Delay:   ir.Duration(10 * time.Millisecond),
		Timeout: ir.Duration(500 * time.Millisecond),
	}
	inputs := []ir.ServiceFlow{
		{Name: "speed", Type: ir.Type{Kind: ir.KindInt}, Source: ir.SourceSignal},
	}
	return NewService("speed_limiter", comp, svc, inputs, sender)
}

// TestServiceStartArmsTimeoutAndEmitsDefaults covers the service
// lifecycle: Start arms the Timeout before sending the default value of
// every output flow, with delayed=true already in effect.
func TestServiceStartArmsTimeoutAndEmitsDefaults(t *testing.T) {
	sender := &fakeSender{}
	svc := testService(sender, &passthroughComponent{})

	init := time.Unix(1000, 0).UTC()
	if err := svc.Start(init); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !svc.delayed {
		t.Error("service must start delayed")
	}
	if len(sender.timers) != 1 || sender.timers[0].Tag != ir.TimerTimeout {
		t.Fatalf("timers = %+v, want one TimerTimeout", sender.timers)
	}
	if len(sender.outputs) != 1 || sender.outputs[0].Value != int64(0) {
		t.Fatalf("outputs = %+v, want default speed=0", sender.outputs)
	}
}

// TestServiceHandleInputWhileDelayedRunsImmediately exercises the
// delayed=true branch: the first input after Start resets time
// constraints (becoming not-delayed) and runs the Update Sequence
// synchronously, emitting the changed output with its trace id.
func TestServiceHandleInputWhileDelayedRunsImmediately(t *testing.T) {
	sender := &fakeSender{}
	comp := &passthroughComponent{}
	svc := testService(sender, comp)

	init := time.Unix(1000, 0).UTC()
	if err := svc.Start(init); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sender.outputs = nil // discard the Start-time default emission
	sender.timers = nil

	if err := svc.HandleInput("speed", int64(42), init, "trace-1"); err != nil {
		t.Fatalf("HandleInput: %v", err)
	}

	if svc.delayed {
		t.Error("service must become not-delayed after handling the first input")
	}
	if comp.steps != 1 {
		t.Fatalf("component stepped %d times, want 1", comp.steps)
	}
	if len(sender.outputs) != 1 {
		t.Fatalf("outputs = %+v, want exactly one emission", sender.outputs)
	}
	if sender.outputs[0].Value != int64(42) || sender.outputs[0].Trace != "trace-1" {
		t.Errorf("output = %+v, want speed=42 trace=trace-1", sender.outputs[0])
	}
	// reset_time_constraints arms a DelayTimer; the post-step emission
	// re-arms the Timeout; both must be requested.
	var sawDelay, sawTimeout bool
	for _, req := range sender.timers {
		switch req.Tag {
		case ir.TimerDelay:
			sawDelay = true
		case ir.TimerTimeout:
			sawTimeout = true
		}
	}
	if !sawDelay || !sawTimeout {
		t.Errorf("timers = %+v, want both Delay and Timeout armed", sender.timers)
	}
}

// TestServiceHandleInputWhileNotDelayedStoresIntoStore covers the
// not-delayed branch: a second input for the same flow before the delay
// window drains is a hard input-rate-assertion violation (an over-fast
// producer).
func TestServiceHandleInputWhileNotDelayedStoresIntoStore(t *testing.T) {
	sender := &fakeSender{}
	svc := testService(sender, &passthroughComponent{})

	init := time.Unix(1000, 0).UTC()
	_ = svc.Start(init)
	if err := svc.HandleInput("speed", int64(10), init, "t1"); err != nil {
		t.Fatalf("first HandleInput: %v", err)
	}

	if err := svc.HandleInput("speed", int64(20), init.Add(time.Millisecond), "t2"); err != nil {
		t.Fatalf("second HandleInput (store write): %v", err)
	}
	if svc.store.Empty() {
		t.Fatal("expected the second input to land in the store while not-delayed")
	}

	if err := svc.HandleInput("speed", int64(30), init.Add(2*time.Millisecond), "t3"); err == nil {
		t.Fatal("third same-flow input before drain must violate the input-rate assertion")
	}
}

// TestServiceHandleDelayTimerCoalescesStoredValues covers the case where
// two stored input values are coalesced into a single Update Sequence
// run on DelayTimer expiry.
func TestServiceHandleDelayTimerCoalescesStoredValues(t *testing.T) {
	sender := &fakeSender{}
	comp := &passthroughComponent{}

	svcIR := ir.Service{
		Name: "multi",
		Outputs: []ir.OutputFlow{
			{Name: "a", Type: ir.Type{Kind: ir.KindInt}},
			{Name: "b", Type: ir.Type{Kind: ir.KindInt}},
		},
		Delay:   ir.Duration(10 * time.Millisecond),
		Timeout: ir.Duration(time.Second),
	}
	inputs := []ir.ServiceFlow{
		{Name: "a", Type: ir.Type{Kind: ir.KindInt}, Source: ir.SourceSignal},
		{Name: "b", Type: ir.Type{Kind: ir.KindInt}, Source: ir.SourceSignal},
	}
	svc := NewService("multi", comp, svcIR, inputs, sender)

	init := time.Unix(2000, 0).UTC()
	_ = svc.Start(init)

	if err := svc.HandleInput("a", int64(1), init, "t1"); err != nil {
		t.Fatalf("HandleInput a: %v", err)
	}
	comp.steps = 0
	sender.outputs = nil

	if err := svc.store.Replace("b", int64(2), init.Add(time.Millisecond)); err != nil {
		t.Fatalf("store.Replace b: %v", err)
	}

	if err := svc.HandleDelayTimer(init.Add(10 * time.Millisecond)); err != nil {
		t.Fatalf("HandleDelayTimer: %v", err)
	}

	if comp.steps != 1 {
		t.Fatalf("component stepped %d times on coalesced DelayTimer, want exactly 1", comp.steps)
	}
	if len(sender.outputs) != 1 || sender.outputs[0].Flow != "b" || sender.outputs[0].Value != int64(2) {
		t.Fatalf("outputs = %+v, want one emission of b=2 (a carried forward unchanged)", sender.outputs)
	}
	if sender.outputs[0].Trace != "" {
		t.Errorf("coalesced emission trace = %q, want empty (no single causing event)", sender.outputs[0].Trace)
	}
}

// TestServiceHandleDelayTimerOnEmptyStoreBecomesDelayed covers the
// idempotence-on-stable-input invariant: a DelayTimer firing against an
// empty store has no effect besides returning the service to delayed.
func TestServiceHandleDelayTimerOnEmptyStoreBecomesDelayed(t *testing.T) {
	sender := &fakeSender{}
	comp := &passthroughComponent{}
	svc := testService(sender, comp)

	init := time.Unix(3000, 0).UTC()
	_ = svc.Start(init)
	_ = svc.HandleInput("speed", int64(5), init, "t1")
	sender.outputs = nil
	comp.steps = 0

	if err := svc.HandleDelayTimer(init.Add(10 * time.Millisecond)); err != nil {
		t.Fatalf("HandleDelayTimer: %v", err)
	}
	if !svc.delayed {
		t.Error("service must return to delayed on an empty-store DelayTimer firing")
	}
	if comp.steps != 0 {
		t.Errorf("component stepped on an empty-store DelayTimer, want no step")
	}
	if len(sender.outputs) != 0 {
		t.Errorf("outputs = %+v, want none emitted", sender.outputs)
	}
}

// TestServiceHandleTimeoutTimerEmitsUnconditionalHeartbeat covers the
// case where Timeout emits every output's current value regardless of
// is_new, without stepping the root component, after re-arming the Delay
// (reset_time_constraints) and then the Timeout.
func TestServiceHandleTimeoutTimerEmitsUnconditionalHeartbeat(t *testing.T) {
	sender := &fakeSender{}
	comp := &passthroughComponent{}
	svc := testService(sender, comp)

	init := time.Unix(4000, 0).UTC()
	_ = svc.Start(init)
	_ = svc.HandleInput("speed", int64(7), init, "t1")
	sender.outputs = nil
	sender.timers = nil
	comp.steps = 0

	fireAt := init.Add(500 * time.Millisecond)
	if err := svc.HandleTimeoutTimer(fireAt); err != nil {
		t.Fatalf("HandleTimeoutTimer: %v", err)
	}

	if comp.steps != 0 {
		t.Error("HandleTimeoutTimer must not step the root component")
	}
	if len(sender.outputs) != 1 || sender.outputs[0].Value != int64(7) {
		t.Fatalf("outputs = %+v, want one heartbeat emission of speed=7", sender.outputs)
	}
	if sender.outputs[0].Trace != "" {
		t.Errorf("heartbeat trace = %q, want empty", sender.outputs[0].Trace)
	}
	if len(sender.timers) != 2 || sender.timers[0].Tag != ir.TimerDelay || sender.timers[1].Tag != ir.TimerTimeout {
		t.Fatalf("timers = %+v, want a re-armed Delay followed by exactly one re-armed Timeout", sender.timers)
	}
}

// TestServiceRunUpdateSequenceSuppressesUnchangedOutput covers the
// output discipline: when the root component's Step reproduces an
// unchanged output value, no message is emitted for it.
func TestServiceRunUpdateSequenceSuppressesUnchangedOutput(t *testing.T) {
	sender := &fakeSender{}
	// constantComponent always emits the same output regardless of input,
	// so the second HandleInput's Update Sequence must suppress the
	// output entirely even though the service did step the component.
	comp := &constantComponent{value: int64(99)}

	svcIR := ir.Service{
		Name:    "const",
		Outputs: []ir.OutputFlow{{Name: "out", Type: ir.Type{Kind: ir.KindInt}}},
		Delay:   ir.Duration(time.Millisecond),
		Timeout: ir.Duration(time.Second),
	}
	inputs := []ir.ServiceFlow{{Name: "in", Type: ir.Type{Kind: ir.KindInt}, Source: ir.SourceSignal}}
	svc := NewService("const", comp, svcIR, inputs, sender)

	init := time.Unix(5000, 0).UTC()
	_ = svc.Start(init)
	sender.outputs = nil // discard the Start-time default emission

	if err := svc.HandleInput("in", int64(1), init, "t1"); err != nil {
		t.Fatalf("first HandleInput: %v", err)
	}
	firstEmissions := len(sender.outputs)
	if firstEmissions != 1 {
		t.Fatalf("first HandleInput emissions = %d, want 1 (out=99 is new vs. zero default)", firstEmissions)
	}

	_ = svc.store.Replace("in", int64(2), init)
	sender.outputs = nil
	if err := svc.HandleDelayTimer(init.Add(time.Millisecond)); err != nil {
		t.Fatalf("HandleDelayTimer: %v", err)
	}
	if comp.steps != 2 {
		t.Fatalf("component stepped %d times, want 2", comp.steps)
	}
	if len(sender.outputs) != 0 {
		t.Errorf("outputs = %+v, want none (out value unchanged at 99)", sender.outputs)
	}
}

// TestServiceTimeoutRearmPrecedesFailedSend covers the Open Question
// decision recorded in DESIGN.md: the Timeout is re-armed before the
// output send, so a send failure still leaves a live timeout armed rather
// than one that silently expired.
func TestServiceTimeoutRearmPrecedesFailedSend(t *testing.T) {
	sender := &fakeSender{}
	comp := &passthroughComponent{}
	svc := testService(sender, comp)

	init := time.Unix(6000, 0).UTC()
	_ = svc.Start(init)
	sender.timers = nil

	sender.failOn = func(ir.OutputMsg) bool { return true }
	err := svc.HandleInput("speed", int64(1), init, "t1")
	if err == nil {
		t.Fatal("HandleInput with a failing sender must return an error")
	}

	var sawTimeout bool
	for _, req := range sender.timers {
		if req.Tag == ir.TimerTimeout {
			sawTimeout = true
		}
	}
	if !sawTimeout {
		t.Error("Timeout must be re-armed even though the subsequent send failed")
	}
}

type constantComponent struct {
	value any
	steps int
}

func (c *constantComponent) Step(input map[string]any) (map[string]any, error) {
	c.steps++
	return map[string]any{"out": c.value}, nil
}
