package domain

import "errors"

// Domain errors
var (
	ErrPlayerExists   = errors.New("player already exists")
	ErrNoPlayers      = errors.New("no players found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoScores       = errors.New("no scores found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNoPlayers) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrNoScores)
}
