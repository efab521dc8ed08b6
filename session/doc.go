// Package session models the authenticated user as returned by the ERP
// backend and builds the immutable [Session] the engine evaluates
// permissions against.
//
// # Permission sources
//
// A session merges three sources into one [permission.Set]:
//
//   - legacy flat permissions (the my-permissions endpoint and the profile
//     bundle's permission list),
//   - permissions granted directly to the user (permissions_v2),
//   - permissions carried by every role (roles, roles_v2, role, and the
//     profile bundle's roles).
//
// No source may be dropped. Wire formats are lenient: permission entries may
// be plain strings or objects carrying name or codename.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Import erpauth or transport.
package session
