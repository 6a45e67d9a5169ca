/*
Package observability exports Prometheus metrics for games run by Arbiter.

Metrics implements invoke.Observer, so it can be attached to every participant
channel, and StateHooks turns it into fsm.Hooks that count state visits and
log transitions.
*/
package observability
