// Package limiters provides the client-side lockout state machine used to
// throttle credential submissions before they reach the network.
//
// # Limiters
//
//   - [Lockout]: N failed attempts trigger a fixed-duration lockout. State is
//     one JSON document per key in a storage.Backend, so it survives restarts.
//
// Expiry is evaluated lazily on every call; there are no timers. The clock is
// injectable for tests.
//
// # Architecture boundaries
//
// This is advisory UX throttling. Authoritative throttling is the server's.
//
// # What this package must NOT do
//
//   - Import erpauth or any sibling internal package.
//   - Decide when an attempt counts as failed. Callers decide.
package limiters
