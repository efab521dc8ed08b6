// Package token holds the process-wide bearer token.
//
// A [Store] keeps the current access token in memory for synchronous reads and
// mirrors it into one of two [storage.Backend]s: a durable backend when the
// user asked to be remembered, a session backend otherwise. Exactly one of the
// two holds the token at any time.
//
// # What this package must NOT do
//
//   - Touch session or permission state. Clearing a token never clears a session;
//     that is the engine's job.
//   - Decode or validate the token.
package token
