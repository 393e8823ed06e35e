package spoof

import "errors"

var (
	// ErrNoOriginal is returned by Restore when the interface was never
	// observed, so there is nothing to go back to. No command is run.
	ErrNoOriginal = errors.New("no original MAC recorded")
	ErrNoSecret   = errors.New("stable addresses need a secret")
)
