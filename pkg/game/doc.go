/*
Package game runs a state machine over a set of participants.

An Orchestrator owns a state machine definition over *Context and the
contract its participants implement. Each call to Play builds a fresh Context,
gives every participant its own worker and adapter, runs the machine to
completion, and returns the scores the triggers recorded:

	def := fsm.New[Phase, *game.Context](Deal).
		State(Deal).Do(deal).Go(Bid).
		State(Bid).Do(bid).If("done", allPassed, Score).Go(Bid).
		State(Score).Do(score).
		MustBuild()

	orch, err := game.New(def, cards.Contract, game.WithTimeouts(cfg.Timeouts))
	scores, err := orch.Play(ctx, map[string]invoke.Target{"ana": ana, "bob": bob})

Workers are shut down before Play returns, whatever the outcome.
*/
package game
