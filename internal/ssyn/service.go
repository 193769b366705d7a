package ssyn

import (
	"fmt"
	"time"

	"github.com/rakunlabs/srl/internal/csyn"
	"github.com/rakunlabs/srl/internal/ir"
)

// Sender delivers a Service's outbound traffic to the runtime: output
// messages and timer (re)arm requests.
type Sender interface {
	SendOutput(ir.OutputMsg) error
	SendTimer(ir.TimerRequest) error
}

// Service is the SSyn state machine wrapping one root csyn.Component: the
// Context, Input Store, and delayed/not-delayed machine.
type Service struct {
	name string

	component csyn.Component
	inputs    []ir.ServiceFlow
	outputs   []string

	delay   time.Duration
	timeout time.Duration

	ctx   *Context
	store *InputStore

	delayed bool

	sender Sender

	// trace carries the correlation id of the input event currently being
	// processed into any OutputMsg the Update Sequence emits. Empty for
	// coalesced and heartbeat emissions, which have no single causing event.
	trace string
}

// NewService default-initializes the tracked context from each flow's
// declared type and constructs an empty Input Store.
func NewService(name string, component csyn.Component, svc ir.Service, inputs []ir.ServiceFlow, sender Sender) *Service {
	defaults := make(map[string]any, len(inputs)+len(svc.Outputs))
	var inputNames []string
	for _, f := range inputs {
		defaults[f.Name] = f.Type.Zero()
		inputNames = append(inputNames, f.Name)
	}

	var outputNames []string
	for _, f := range svc.Outputs {
		defaults[f.Name] = f.Type.Zero()
		outputNames = append(outputNames, f.Name)
	}

	return &Service{
		name:      name,
		component: component,
		inputs:    inputs,
		outputs:   outputNames,
		delay:     time.Duration(svc.Delay),
		timeout:   time.Duration(svc.Timeout),
		ctx:       NewContext(defaults),
		store:     NewInputStore(inputNames),
		delayed:   true,
		sender:    sender,
	}
}

// Start begins the service's lifecycle at init_instant: delayed starts
// true, and the service arms its first Timeout and emits every output's
// default value. The timeout is armed before the defaults are sent,
// matching the rearm-before-send ordering used for every later emission.
func (s *Service) Start(initInstant time.Time) error {
	if err := s.armTimeout(initInstant); err != nil {
		return err
	}
	for _, name := range s.outputs {
		msg := ir.OutputMsg{Flow: name, Value: s.ctx.Cell(name).Get(), Instant: initInstant}
		if err := s.sender.SendOutput(msg); err != nil {
			return err
		}
	}
	return nil
}

// HandleInput dispatches one external-signal delivery per the delayed/
// not-delayed table.
func (s *Service) HandleInput(flow string, value any, instant time.Time, trace string) error {
	if s.delayed {
		if err := s.resetTimeConstraints(instant); err != nil {
			return err
		}
		s.ctx.Reset()
		s.ctx.Cell(flow).Set(value)
		s.trace = trace
		return s.runUpdateSequence(instant)
	}
	return s.store.Replace(flow, value, instant)
}

// HandleDelayTimer dispatches a DelayTimer firing: if the store holds
// nothing, the service becomes delayed again with no effect (idempotence
// on stable input); otherwise every stored value is coalesced into the
// context in one Update Sequence pass.
func (s *Service) HandleDelayTimer(instant time.Time) error {
	s.ctx.Reset()
	s.trace = "" // no single causing event for a coalesced Update Sequence

	if s.store.Empty() {
		s.delayed = true
		return nil
	}

	if err := s.resetTimeConstraints(instant); err != nil {
		return err
	}

	taken := s.store.TakeAll()
	// Coalesce in fixed flow-declaration order rather than enumerating the
	// 2^n stored/not-stored subsets explicitly: every stored flow's value
	// is applied via Set before the single Update Sequence run below,
	// which is observably identical to selecting the subset that happens
	// to be occupied.
	for _, f := range s.inputs {
		if sv, ok := taken[f.Name]; ok {
			s.ctx.Cell(f.Name).Set(sv.value)
		}
	}
	return s.runUpdateSequence(instant)
}

// HandleTimeoutTimer dispatches a Timeout firing: the service re-arms its
// Delay timer and emits every output's current value unconditionally,
// independent of is_new (the heartbeat). No root.Step call is made:
// nothing has changed since the last Update Sequence run, so re-running
// Step would reproduce the same outputs and memory — this only resends
// them.
func (s *Service) HandleTimeoutTimer(instant time.Time) error {
	if err := s.resetTimeConstraints(instant); err != nil {
		return err
	}
	s.ctx.Reset()

	if err := s.armTimeout(instant); err != nil {
		return err
	}
	for _, name := range s.outputs {
		msg := ir.OutputMsg{Flow: name, Value: s.ctx.Cell(name).Get(), Instant: instant}
		if err := s.sender.SendOutput(msg); err != nil {
			return err
		}
	}
	return nil
}

// runUpdateSequence runs the root component's step, gated on whether any
// tracked input flow actually changed, then emits every output flow whose
// cell ends up is_new — suppressing the rest.
func (s *Service) runUpdateSequence(instant time.Time) error {
	anyNew := false
	for _, f := range s.inputs {
		if s.ctx.Cell(f.Name).IsNew() {
			anyNew = true
			break
		}
	}
	if !anyNew {
		return nil
	}

	inputRecord := make(map[string]any, len(s.inputs))
	for _, f := range s.inputs {
		inputRecord[f.Name] = s.ctx.Cell(f.Name).Get()
	}

	output, err := s.component.Step(inputRecord)
	if err != nil {
		return fmt.Errorf("ssyn: service %q: %w", s.name, err)
	}

	var toEmit []ir.OutputMsg
	for _, name := range s.outputs {
		cell := s.ctx.Cell(name)
		cell.Set(output[name])
		if cell.IsNew() {
			toEmit = append(toEmit, ir.OutputMsg{Flow: name, Value: cell.Get(), Instant: instant, Trace: s.trace})
		}
	}

	if len(toEmit) == 0 {
		return nil
	}
	// Timeout rearm precedes the output send, so a live heartbeat survives
	// even if the send itself fails partway through.
	if err := s.armTimeout(instant); err != nil {
		return err
	}
	for _, msg := range toEmit {
		if err := s.sender.SendOutput(msg); err != nil {
			return err
		}
	}
	return nil
}

// resetTimeConstraints arms a new DelayTimer for instant+delay and marks
// the service not-delayed.
func (s *Service) resetTimeConstraints(instant time.Time) error {
	s.delayed = false
	return s.sender.SendTimer(ir.TimerRequest{
		Service:  s.name,
		Tag:      ir.TimerDelay,
		Instant:  instant,
		Duration: s.delay,
		Reset:    true,
	})
}

// armTimeout arms a new TimeoutTimer for instant+timeout; every output
// emission re-arms the timeout.
func (s *Service) armTimeout(instant time.Time) error {
	return s.sender.SendTimer(ir.TimerRequest{
		Service:  s.name,
		Tag:      ir.TimerTimeout,
		Instant:  instant,
		Duration: s.timeout,
		Reset:    true,
	})
}
// Name returns the service's declared name.
func (s *Service) Name() string { return s.name }
