/*
Package domain contains the error taxonomy shared by every layer of Arbiter.

Errors fall into three scopes:

  - Call-scoped: TimeoutError and InvocationError. A bounded call that failed is
    reported to its caller; the game decides what to do with it.
  - Connection-scoped: ErrProtocol and ErrClosed. The offending connection is
    closed, other participants are unaffected.
  - Run-scoped: ErrConfiguration, ErrPrecondition and RunError. They abort the
    whole game.

All typed errors unwrap to a sentinel so callers can use errors.Is.
*/
package domain
