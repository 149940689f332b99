package engine

import (
	"github.com/emilianodevborn/Snake-Red/models"
)

// ApplyDirection sets the heading of playerID's snake. Non-unit vectors and
// reversals into the snake's own body are rejected. The comparison is made
// against the heading the head was last moved with, so two quick turns
// within one tick cannot fold the snake onto itself.
func ApplyDirection(gs *models.GameState, playerID string, dir models.Direction) bool {
	if gs == nil || gs.IsGameOver || !dir.IsUnit() {
		return false
	}
	s := gs.Snake(playerID)
	if s == nil {
		return false
	}
	if len(s.Segments) > 1 && dir == s.Segments[0].Direction.Opposite() {
		return false
	}
	s.Direction = dir
	return true
}
