package fsm

import (
	"context"
	"fmt"

	"github.com/aretw0/arbiter/pkg/domain"
)

// Trigger is the action run once per visit of a state.
type Trigger[C any] func(ctx context.Context, c C) error

// Predicate guards a transition.
type Predicate[C any] func(c C) bool

// Transition is a guarded edge. A nil When always holds.
type Transition[S comparable, C any] struct {
	To    S
	Label string
	When  Predicate[C]
}

// Definition is an immutable state graph. It is safe to share between
// concurrently executing instances.
type Definition[S comparable, C any] struct {
	initial     S
	states      []S
	triggers    map[S]Trigger[C]
	transitions map[S][]Transition[S, C]
}

// Initial returns the start state.
func (d *Definition[S, C]) Initial() S {
	return d.initial
}

// States returns every state mentioned by the definition, in declaration order.
func (d *Definition[S, C]) States() []S {
	return append([]S(nil), d.states...)
}

// Transitions returns the ordered transitions leaving s.
func (d *Definition[S, C]) Transitions(s S) []Transition[S, C] {
	return append([]Transition[S, C](nil), d.transitions[s]...)
}

// Terminal reports whether s has no outgoing transition.
func (d *Definition[S, C]) Terminal(s S) bool {
	return len(d.transitions[s]) == 0
}

// next evaluates the transitions of s in order. The first one that holds wins.
func (d *Definition[S, C]) next(s S, c C) (S, bool) {
	for _, t := range d.transitions[s] {
		if t.When == nil || t.When(c) {
			return t.To, true
		}
	}
	var none S
	return none, false
}

// Edge is a transition rendered for introspection.
type Edge struct {
	To    string
	Label string
}

// StateInfo is a state rendered for introspection.
type StateInfo struct {
	Name     string
	Initial  bool
	Terminal bool
	Action   bool
	Edges    []Edge
}

// Describe renders the graph with state names, for visualization.
func (d *Definition[S, C]) Describe() []StateInfo {
	infos := make([]StateInfo, 0, len(d.states))
	for _, s := range d.states {
		info := StateInfo{
			Name:     fmt.Sprint(s),
			Initial:  s == d.initial,
			Terminal: d.Terminal(s),
			Action:   d.triggers[s] != nil,
		}
		for _, t := range d.transitions[s] {
			label := t.Label
			if label == "" && t.When != nil {
				label = "?"
			}
			info.Edges = append(info.Edges, Edge{To: fmt.Sprint(t.To), Label: label})
		}
		infos = append(infos, info)
	}
	return infos
}

// Builder assembles a Definition.
type Builder[S comparable, C any] struct {
	def  *Definition[S, C]
	seen map[S]bool
	err  error
}

// New starts a definition with the given initial state.
func New[S comparable, C any](initial S) *Builder[S, C] {
	b := &Builder[S, C]{
		def: &Definition[S, C]{
			initial:     initial,
			triggers:    make(map[S]Trigger[C]),
			transitions: make(map[S][]Transition[S, C]),
		},
		seen: make(map[S]bool),
	}
	b.declare(initial)
	return b
}

func (b *Builder[S, C]) declare(s S) {
	if !b.seen[s] {
		b.seen[s] = true
		b.def.states = append(b.def.states, s)
	}
}

// State selects s for configuration.
func (b *Builder[S, C]) State(s S) *StateBuilder[S, C] {
	b.declare(s)
	return &StateBuilder[S, C]{builder: b, state: s}
}

// Build returns the definition, or the first configuration error met.
func (b *Builder[S, C]) Build() (*Definition[S, C], error) {
	if b.err != nil {
		return nil, b.err
	}
	def := b.def
	b.def = &Definition[S, C]{
		initial:     def.initial,
		states:      append([]S(nil), def.states...),
		triggers:    make(map[S]Trigger[C], len(def.triggers)),
		transitions: make(map[S][]Transition[S, C], len(def.transitions)),
	}
	for s, t := range def.triggers {
		b.def.triggers[s] = t
	}
	for s, ts := range def.transitions {
		b.def.transitions[s] = append([]Transition[S, C](nil), ts...)
	}
	return def, nil
}

// MustBuild is Build for definitions declared at package level.
func (b *Builder[S, C]) MustBuild() *Definition[S, C] {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// StateBuilder configures one state.
type StateBuilder[S comparable, C any] struct {
	builder *Builder[S, C]
	state   S
}

// Do sets the trigger of the state, replacing any previous one.
func (sb *StateBuilder[S, C]) Do(trigger Trigger[C]) *StateBuilder[S, C] {
	if trigger == nil {
		sb.fail("nil trigger")
		return sb
	}
	sb.builder.def.triggers[sb.state] = trigger
	return sb
}

// Go appends an unconditional transition.
func (sb *StateBuilder[S, C]) Go(target S) *StateBuilder[S, C] {
	return sb.add(Transition[S, C]{To: target})
}

// When appends a guarded transition.
func (sb *StateBuilder[S, C]) When(pred Predicate[C], target S) *StateBuilder[S, C] {
	return sb.If("", pred, target)
}

// If appends a guarded transition with a label used in graph output.
func (sb *StateBuilder[S, C]) If(label string, pred Predicate[C], target S) *StateBuilder[S, C] {
	if pred == nil {
		sb.fail("nil predicate")
		return sb
	}
	return sb.add(Transition[S, C]{To: target, Label: label, When: pred})
}

// State moves on to configure another state.
func (sb *StateBuilder[S, C]) State(s S) *StateBuilder[S, C] {
	return sb.builder.State(s)
}

// Build finishes the definition.
func (sb *StateBuilder[S, C]) Build() (*Definition[S, C], error) {
	return sb.builder.Build()
}

// MustBuild finishes the definition or panics.
func (sb *StateBuilder[S, C]) MustBuild() *Definition[S, C] {
	return sb.builder.MustBuild()
}

func (sb *StateBuilder[S, C]) add(t Transition[S, C]) *StateBuilder[S, C] {
	sb.builder.declare(t.To)
	sb.builder.def.transitions[sb.state] = append(sb.builder.def.transitions[sb.state], t)
	return sb
}

func (sb *StateBuilder[S, C]) fail(reason string) {
	if sb.builder.err == nil {
		sb.builder.err = domain.Configurationf("state %v: %s", sb.state, reason)
	}
}
