package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a configured transition may be taken
type GuardFunc func(ctx context.Context) bool

// edge is one configured transition out of a state
type edge struct {
	to    State
	guard GuardFunc
}

// Builder collects transitions before producing machines
type Builder struct {
	edges map[State]map[Trigger][]edge
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{edges: make(map[State]map[Trigger][]edge)}
}

// Configuration adds transitions out of a single state
type Configuration struct {
	from    State
	builder *Builder
}

// Configure returns the configuration for from. Terminal states cannot be
// configured with outgoing transitions.
func (b *Builder) Configure(from State) *Configuration {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", from))
	}
	if from.IsTerminal() {
		panic(fmt.Sprintf("terminal state cannot have transitions: %s", from))
	}
	if _, ok := b.edges[from]; !ok {
		b.edges[from] = make(map[Trigger][]edge)
	}
	return &Configuration{from: from, builder: b}
}

// Permit allows trigger to move the machine to to
func (c *Configuration) Permit(trigger Trigger, to State) *Configuration {
	return c.PermitIf(trigger, to, nil)
}

// PermitIf allows trigger to move the machine to to when guard passes.
// Transitions for the same trigger are tried in the order they were added.
func (c *Configuration) PermitIf(trigger Trigger, to State, guard GuardFunc) *Configuration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	byTrigger := c.builder.edges[c.from]
	byTrigger[trigger] = append(byTrigger[trigger], edge{to: to, guard: guard})
	return c
}

// Build returns a machine starting in initial. Later changes to the builder
// do not affect machines already built.
func (b *Builder) Build(initial State) (StateMachine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initial)
	}

	edges := make(map[State]map[Trigger][]edge, len(b.edges))
	for from, byTrigger := range b.edges {
		cp := make(map[Trigger][]edge, len(byTrigger))
		for trigger, es := range byTrigger {
			cp[trigger] = append([]edge(nil), es...)
		}
		edges[from] = cp
	}

	return &machine{current: initial, edges: edges}, nil
}

type machine struct {
	current State
	edges   map[State]map[Trigger][]edge
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.edges[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	if m.current.IsTerminal() {
		return fmt.Errorf("%w: %s is final, cannot fire %s", ErrInvalidTransition, m.current, trigger)
	}

	candidates := m.edges[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, e := range candidates {
		if e.guard == nil || e.guard(ctx) {
			m.current = e.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}
