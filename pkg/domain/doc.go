/*
Package domain contains the core vocabulary of the Buddy relay.

It defines what the browser extension sends, what the dispatcher produces and the lifecycle
events emitted along the way. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - ActionID: The closed set of actions a payload can request.
  - Payload: One inbound request (action, text and optional page markup).
  - Hooks: Observability callbacks fired on dispatch and display.
*/
package domain
