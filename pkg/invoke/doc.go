/*
Package invoke implements invocation channels: the uniform way an orchestrator
talks to a participant, wherever it lives.

Every Channel offers two calls:

  - AsyncCall is fire-and-forget. It never blocks and never reports errors.
  - Call blocks until the participant answers or the operation's timeout elapses.

Three variants exist. Direct runs the target on the caller's goroutine. Local
runs it on a Worker owned by the participant. Remote sends it over a
wire.Connector to a peer running Serve.

A timed-out Call does not cancel the work it started. The late outcome is
discarded.
*/
package invoke
