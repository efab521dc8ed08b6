// Package permission evaluates scoped permission tokens of the form
// resource:action[:scope] against a merged permission set.
//
// # Token grammar
//
// A token has two or three colon-separated parts. A missing scope means "all".
// Two tokens are special: "*" grants everything, and resource:manage:<scope>
// grants every action on resource at that scope.
//
// # Evaluation order
//
// [Evaluate] applies a fixed rule order: superuser bypass, wildcard, exact
// match, then the scope fallbacks (manage:all, manage:<scope>, action:all,
// own widened to department or assigned, bare resource:action). The first
// matching rule wins and is reported in the [Decision].
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O.
//
// # What this package must NOT do
//
//   - Access storage or the network.
//   - Import erpauth, session, or transport.
package permission
