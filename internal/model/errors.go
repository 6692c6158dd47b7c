package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every domain error wraps exactly one of these so callers
// can branch with errors.Is without knowing the specific failure.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrIncompleteVotes    = errors.New("incomplete votes")
)

// Common errors used across the application
var (
	// Lookup errors
	ErrGameNotFound   = fmt.Errorf("%w: game not found", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("%w: player not found", ErrNotFound)
	ErrRoleNotFound   = fmt.Errorf("%w: role not found", ErrNotFound)
	ErrPowerNotFound  = fmt.Errorf("%w: power not found", ErrNotFound)
	ErrItemNotFound   = fmt.Errorf("%w: shop item not found", ErrNotFound)

	// Authorization errors
	ErrNotModerator  = fmt.Errorf("%w: player is not the moderator", ErrUnauthorized)
	ErrWrongRole     = fmt.Errorf("%w: player does not hold the role for this power", ErrUnauthorized)
	ErrWrongPassword = fmt.Errorf("%w: wrong game password", ErrUnauthorized)

	// Lobby errors
	ErrGameAlreadyStarted   = fmt.Errorf("%w: game has already started", ErrPreconditionFailed)
	ErrDisplayNameTaken     = fmt.Errorf("%w: display name is already taken", ErrPreconditionFailed)
	ErrInsufficientPlayers  = fmt.Errorf("%w: at least 3 players are required", ErrPreconditionFailed)
	ErrModeratorCannotLeave = fmt.Errorf("%w: the moderator cannot leave the game", ErrPreconditionFailed)
	ErrInvalidSettings      = fmt.Errorf("%w: invalid settings", ErrPreconditionFailed)
	ErrInvalidDisplayName   = fmt.Errorf("%w: display name must be 1 to 32 characters", ErrPreconditionFailed)
	ErrNotBot               = fmt.Errorf("%w: player is not a bot", ErrPreconditionFailed)

	// Game errors
	ErrGameEnded          = fmt.Errorf("%w: game has ended", ErrPreconditionFailed)
	ErrWrongPhase         = fmt.Errorf("%w: action not allowed in this phase", ErrPreconditionFailed)
	ErrPlayerDead         = fmt.Errorf("%w: player is dead", ErrPreconditionFailed)
	ErrNotParticipating   = fmt.Errorf("%w: player is not participating", ErrPreconditionFailed)
	ErrInvalidVote        = fmt.Errorf("%w: invalid vote", ErrPreconditionFailed)
	ErrPowerUsed          = fmt.Errorf("%w: power already used", ErrPreconditionFailed)
	ErrInsufficientPoints = fmt.Errorf("%w: not enough points", ErrPreconditionFailed)
	ErrItemHeld           = fmt.Errorf("%w: an unused item of this kind is already held", ErrPreconditionFailed)
)

// Storage errors
var (
	ErrVersionConflict = errors.New("game was modified concurrently")
	ErrGameCodeTaken   = errors.New("game code already in use")
)

// TransitionError reports an illegal phase change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IncompleteVotesError is returned when night resolution is attempted before
// every live wolf has voted. Forcing the resolution bypasses it.
type IncompleteVotesError struct {
	Recorded int
	Required int
}

func (e *IncompleteVotesError) Error() string {
	return fmt.Sprintf("incomplete votes: %d of %d recorded", e.Recorded, e.Required)
}

func (e *IncompleteVotesError) Unwrap() error {
	return ErrIncompleteVotes
}

// TargetError rejects a vote or power target and lists the targets that
// would have been accepted.
type TargetError struct {
	Reason       string
	ValidTargets []PlayerID
}

func (e *TargetError) Error() string {
	if len(e.ValidTargets) == 0 {
		return "invalid target: " + e.Reason
	}
	ids := make([]string, len(e.ValidTargets))
	for i, id := range e.ValidTargets {
		ids[i] = string(id)
	}
	return fmt.Sprintf("invalid target: %s (valid: %s)", e.Reason, strings.Join(ids, ", "))
}

func (e *TargetError) Unwrap() error {
	return ErrPreconditionFailed
}
