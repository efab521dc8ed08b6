// Package flows drives the multi-step authentication screens on top of an
// erpauth.Engine.
//
// Each flow is a small state machine: an explicit Step enum, a table of legal
// transitions, the form data gathered so far and the most recent error.
// Submissions are serialised per flow instance; a second submission while
// one is in flight fails with ErrBusy and changes nothing.
//
// Flows hold no authentication state of their own. The Engine owns the
// token, the session and the protocol challenges; a flow only decides which
// Engine call the current screen maps to and which screen comes next.
//
// Message renders any error returned by a flow as text suitable for display.
package flows
