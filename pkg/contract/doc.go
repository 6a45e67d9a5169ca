/*
Package contract describes what a participant can be asked to do.

A Contract is an ordered list of Operations. Each operation has a stable wire
name, typed parameters and a typed result. Types know how to encode and decode
their values and what their zero value is, so no runtime reflection on the
participant is needed.

The Timeouts table decides, per operation, whether a call is bounded (blocking
with a deadline) or fire-and-forget.
*/
package contract
