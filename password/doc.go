// Package password implements the client-side policy for new passwords.
//
// Passwords are verified and hashed by the backend. This package only
// rejects obviously bad choices before a round trip, and scores strength
// for display.
//
// # What this package must NOT do
//
//   - Store, hash or log passwords.
//   - Import any other erpauth package.
package password
