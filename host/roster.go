package host

import (
	"github.com/emilianodevborn/Snake-Red/engine"
	"github.com/emilianodevborn/Snake-Red/models"
)

// RoundPlayers converts a room roster into round participants, keeping
// roster order so spawn positions are stable.
func RoundPlayers(entries []models.RosterEntry) []engine.RoundPlayer {
	out := make([]engine.RoundPlayer, 0, len(entries))
	for _, e := range entries {
		out = append(out, engine.RoundPlayer{
			ID:            e.ID,
			Name:          e.Name,
			ColorIndex:    e.ColorIndex,
			IsBot:         e.IsBot,
			BotDifficulty: e.BotDifficulty,
		})
	}
	return out
}

// Departed lists the ids present in before but missing from after.
func Departed(before, after []models.RosterEntry) []string {
	present := make(map[string]bool, len(after))
	for _, e := range after {
		present[e.ID] = true
	}
	var gone []string
	for _, e := range before {
		if !present[e.ID] {
			gone = append(gone, e.ID)
		}
	}
	return gone
}
