// Package reset implements single-use, time-bounded password-reset
// tickets. The raw token leaves the store exactly once at issuance; only
// its hash is retained, and consumption is a single atomic check-and-mark
// so a ticket can never authorize two password changes.
package reset
