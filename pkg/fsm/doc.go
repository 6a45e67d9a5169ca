/*
Package fsm runs turn logic expressed as an explicit state machine.

A Definition is an immutable graph: an initial state, one optional trigger per
state, and an ordered list of guarded transitions per state. A state without
transitions is terminal. Definitions are built once and reused:

	def, err := fsm.New[Phase, *game.Context](Setup).
		State(Setup).Do(deal).Go(Round).
		State(Round).Do(play).Go(Score).
		State(Score).Do(score).
			If("more rounds", roundsLeft, Round).
			Go(Finish).
		State(Finish).Do(announce).
		Build()

An Instance owns one shared context and executes the definition once. Starting
from the initial state it runs the state's trigger, then takes the first
transition whose predicate holds. The run ends when no transition applies.
*/
package fsm
