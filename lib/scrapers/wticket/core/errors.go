package core

import "errors"

// ErrNotFound is returned by single-entity lookups that matched zero
// real rows. Placeholder rows don't count, the server emits those to
// mean "no results".
var ErrNotFound = errors.New("not found")

// ErrLoginFailed is the terminal error of the login state machine,
// raised after the one duplicate-session recovery attempt is spent.
var ErrLoginFailed = errors.New("Failed to login")
