package engine

import (
	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// RoundPlayer is a room member taking part in a round.
type RoundPlayer struct {
	ID            string
	Name          string
	ColorIndex    int
	IsBot         bool
	BotDifficulty constants.BotDifficulty
}

// NewRound seeds a fresh state: one single-segment snake per player spaced
// along the top row heading right, and INITIAL_FOOD food items.
func (e *Engine) NewRound(players []RoundPlayer) *models.GameState {
	gs := &models.GameState{
		Snakes:    make([]models.Snake, 0, len(players)),
		Food:      make([]models.Food, 0, constants.INITIAL_FOOD),
		Obstacles: []models.Coordinate{},
		Scores:    make([]models.Score, 0, len(players)),
	}

	perRow := (e.width - constants.SPAWN_X) / constants.SPAWN_SPACING
	if perRow < 1 {
		perRow = 1
	}

	humans := 0
	for i, p := range players {
		x := clamp(constants.SPAWN_X+constants.SPAWN_SPACING*(i%perRow), 0, e.width-1)
		y := clamp(constants.SPAWN_Y+constants.SPAWN_SPACING*(i/perRow), 0, e.height-1)

		speed := 1
		if p.IsBot {
			speed = p.BotDifficulty.SpeedFactor()
		} else {
			humans++
		}
		gs.Snakes = append(gs.Snakes, models.Snake{
			ID:            p.ID,
			Segments:      []models.Segment{{X: x, Y: y, Direction: models.RIGHT}},
			Direction:     models.RIGHT,
			SpeedFactor:   speed,
			IsBot:         p.IsBot,
			ColorIndex:    p.ColorIndex,
			BotDifficulty: p.BotDifficulty,
		})
		gs.Scores = append(gs.Scores, models.Score{PlayerID: p.ID, Name: p.Name})
	}
	gs.IsMultiplayer = humans > 1

	proj := make([]projection, len(gs.Snakes))
	for i := range gs.Snakes {
		proj[i] = projection{snake: &gs.Snakes[i], head: gs.Snakes[i].Head()}
	}
	center := models.Coordinate{X: e.width / 2, Y: e.height / 2}
	for i := 0; i < constants.INITIAL_FOOD; i++ {
		blocked := blockedCells(proj, gs.Obstacles, gs.Food)
		gs.Food = append(gs.Food, models.Food{
			Coordinates: e.placeFood(center, blocked),
			Sprite:      e.randomSprite(),
		})
	}
	return gs
}
