// Package storage provides the durable key/value backends behind the token
// store and the client-side rate limiters.
//
// # Backends
//
//   - [File] persists a single JSON document on disk (CLI and desktop clients).
//   - [Redis] stores keys under a prefix in Redis (shared kiosk terminals,
//     multi-process clients).
//   - [Memory] keeps values in process memory; it plays the role of
//     per-tab session storage and is lost on restart.
//
// # What this package must NOT do
//
//   - Interpret stored values. Callers own their encoding.
//   - Import erpauth or any sibling package.
package storage
