package engine

import (
	"math"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// blockedCells collects every cell a spawn must avoid: current segments and
// projected heads of all snakes, obstacles and food.
func blockedCells(proj []projection, obstacles []models.Coordinate, food []models.Food) map[models.Coordinate]bool {
	blocked := make(map[models.Coordinate]bool)
	for _, pr := range proj {
		blocked[pr.head] = true
		for _, seg := range pr.snake.Segments {
			blocked[seg.Coordinate()] = true
		}
	}
	for _, o := range obstacles {
		blocked[o] = true
	}
	for _, f := range food {
		blocked[f.Coordinates] = true
	}
	return blocked
}

func (e *Engine) validSpawn(c, head models.Coordinate, blocked map[models.Coordinate]bool) bool {
	if c == head || blocked[c] {
		return false
	}
	return c.X >= 0 && c.X < e.width && c.Y >= 0 && c.Y < e.height
}

// placeFood tries random cells first, then falls back to a cell pushed from
// head toward the far side of the board by 90-100% of the remaining distance.
func (e *Engine) placeFood(head models.Coordinate, blocked map[models.Coordinate]bool) models.Coordinate {
	for attempt := 0; attempt < constants.PLACE_ATTEMPTS; attempt++ {
		c := models.Coordinate{X: e.rnd.Intn(e.width), Y: e.rnd.Intn(e.height)}
		if e.validSpawn(c, head, blocked) {
			return c
		}
	}
	return e.towardFarSide(head, 0.9+0.1*e.rnd.Float64())
}

// placeObstacle places an obstacle at a distance from head that shrinks as
// the eating snake grows. Each colliding attempt pulls it closer by
// OBSTACLE_DECAY; after PLACE_ATTEMPTS the last candidate is used as is.
func (e *Engine) placeObstacle(head models.Coordinate, snakeLen int, blocked map[models.Coordinate]bool) models.Coordinate {
	perc := obstacleReach(snakeLen)
	for attempt := 0; attempt < constants.PLACE_ATTEMPTS; attempt++ {
		c := e.towardFarSide(head, perc)
		if e.validSpawn(c, head, blocked) {
			return c
		}
		perc *= constants.OBSTACLE_DECAY
	}
	return e.towardFarSide(head, perc)
}

// obstacleReach is the fraction of the remaining distance to the far edge
// at which an obstacle spawns for a snake of the given length.
func obstacleReach(snakeLen int) float64 {
	switch {
	// Reach never grows with length, so one and two segment snakes get
	// full reach like the rest of the <= 4 band.
	case snakeLen <= 4:
		return 1.0
	case snakeLen <= 6:
		return 0.7
	case snakeLen <= 8:
		return 0.5
	case snakeLen <= 10:
		return 0.3
	case snakeLen <= 12:
		return 0.1
	case snakeLen <= 14:
		return 0.05
	default:
		return 0.02
	}
}

func (e *Engine) towardFarSide(head models.Coordinate, perc float64) models.Coordinate {
	return models.Coordinate{
		X: offsetAxis(head.X, e.width, perc),
		Y: offsetAxis(head.Y, e.height, perc),
	}
}

func offsetAxis(v, size int, perc float64) int {
	maxV := size - 1
	if v < size/2 {
		return clamp(v+int(math.Floor(perc*float64(maxV-v))), 0, maxV)
	}
	return clamp(v-int(math.Floor(perc*float64(v))), 0, maxV)
}
