package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no players", ErrNoPlayers, true},
		{"player not found", ErrPlayerNotFound, true},
		{"no scores", ErrNoScores, true},
		{"wrapped not found", fmt.Errorf("appending score: %w", ErrPlayerNotFound), true},
		{"player exists", ErrPlayerExists, false},
		{"invalid request", ErrInvalidRequest, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFoundError(tt.err))
		})
	}
}
