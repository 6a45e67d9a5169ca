/*
Package arbiter is a framework for running turn-based games between
participants that may be slow, unreliable or on the other side of a network.

The game is a state machine whose triggers call participants through a typed
contract. Every operation carries a timeout: a participant that does not
answer in time is reported to the game as a timeout, and the game goes on.
Participants are either in-process implementations, each running on its own
worker, or remote peers that log in over TCP and answer framed calls.

# Packages

  - pkg/contract: operations, value types and resolved timeouts.
  - pkg/fsm: the state machine builder and its runnable instances.
  - pkg/invoke: call channels (direct, local worker, remote) and their decorators.
  - pkg/participant: the typed handle a game trigger calls.
  - pkg/game: the orchestrator that plays one run and records scores.
  - pkg/session: the login handshake, the session server and the client.
  - pkg/wire and pkg/codec: frame transport and payload encoding.
  - pkg/adapters: memory and Redis backends for results, credentials and locks.

# Usage

	def := fsm.New[Phase, *game.Context](Setup).
		State(Setup).Do(setup).Go(Round).
		State(Round).Do(playRound).If("more rounds", moreRounds, Round).Go(Final).
		State(Final).Do(finish).
		MustBuild()

	orch, err := game.New(def, Contract, game.WithTimeouts(cfg.Timeouts))
	if err != nil {
		log.Fatal(err)
	}

	scores, err := orch.Play(ctx, map[string]invoke.Target{
		"ana": ana,
		"bob": bob,
	})

The arbiter command wraps this for the bundled demo game: "arbiter local" plays
it between bots, "arbiter serve" and "arbiter join" play it over the network.
*/
package arbiter
