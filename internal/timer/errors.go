package timer

import "errors"

// Recoverable error kinds surfaced to the command caller. All of them map to
// a user-visible reply; none are fatal to the process. Callers branch with
// errors.Is.
var (
	// ErrPermission is returned when a secured timer is mutated by anyone
	// other than its owner.
	ErrPermission = errors.New("timer: secured timer may only be modified by its owner")

	// ErrConflict is returned when a start collides with a live (non-terminal)
	// timer already hosted by the channel.
	ErrConflict = errors.New("timer: channel already hosts a running timer")

	// ErrInvalidState is returned on illegal transitions, such as pausing a
	// timer that is already paused.
	ErrInvalidState = errors.New("timer: operation not valid in current state")

	// ErrNotFound is returned for operations addressed to a channel with no
	// active timer.
	ErrNotFound = errors.New("timer: no timer running in this channel")
)
