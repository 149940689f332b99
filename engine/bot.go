package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// Action is a heading change relative to the current direction.
type Action int

const (
	Straight Action = iota
	TurnRight
	TurnLeft
)

// ActionFromScores picks the highest scoring action from a model output
// vector ordered [straight, right, left].
func ActionFromScores(scores []float32) Action {
	best := Straight
	for i := 1; i < len(scores) && i < 3; i++ {
		if scores[i] > scores[best] {
			best = Action(i)
		}
	}
	return best
}

// Features is the bot model input vector:
//
//	0-2  danger front, right, left
//	3-6  heading left, right, up, down
//	7-10 nearest food left, right, up, down
type Features [11]float32

const (
	featDangerFront = iota
	featDangerRight
	featDangerLeft
	featDirLeft
	featDirRight
	featDirUp
	featDirDown
	featFoodLeft
	featFoodRight
	featFoodUp
	featFoodDown
)

// Oracle decides a bot's next action. Implementations may block; callers
// bound them with ctx.
type Oracle interface {
	Move(ctx context.Context, f Features, difficulty constants.BotDifficulty) (Action, error)
}

// MapActionToDirection turns an action into an absolute heading, rotating
// clockwise for TurnRight. An unknown current heading is treated as RIGHT.
func MapActionToDirection(current models.Direction, a Action) models.Direction {
	idx := clockwiseIndex(current)
	if idx < 0 {
		idx = 0
	}
	switch a {
	case TurnRight:
		return models.CLOCKWISE[(idx+1)%4]
	case TurnLeft:
		return models.CLOCKWISE[(idx+3)%4]
	default:
		return current
	}
}

func clockwiseIndex(d models.Direction) int {
	for i, c := range models.CLOCKWISE {
		if c == d {
			return i
		}
	}
	return -1
}

// ComputeFeatures builds the model input for snake on a width x height board.
func ComputeFeatures(gs *models.GameState, snake *models.Snake, width, height int) Features {
	var f Features
	if snake == nil || len(snake.Segments) == 0 {
		return f
	}
	head := snake.Head()
	dir := snake.Direction

	if isDanger(gs, head, MapActionToDirection(dir, Straight), width, height) {
		f[featDangerFront] = 1
	}
	if isDanger(gs, head, MapActionToDirection(dir, TurnRight), width, height) {
		f[featDangerRight] = 1
	}
	if isDanger(gs, head, MapActionToDirection(dir, TurnLeft), width, height) {
		f[featDangerLeft] = 1
	}

	switch dir {
	case models.LEFT:
		f[featDirLeft] = 1
	case models.RIGHT:
		f[featDirRight] = 1
	case models.UP:
		f[featDirUp] = 1
	case models.DOWN:
		f[featDirDown] = 1
	}

	if food, ok := nearestFood(gs.Food, head); ok {
		if food.X < head.X {
			f[featFoodLeft] = 1
		}
		if food.X > head.X {
			f[featFoodRight] = 1
		}
		if food.Y < head.Y {
			f[featFoodUp] = 1
		}
		if food.Y > head.Y {
			f[featFoodDown] = 1
		}
	}
	return f
}

func isDanger(gs *models.GameState, head models.Coordinate, dir models.Direction, width, height int) bool {
	next := head.Add(dir)
	if next.X < 0 || next.X >= width || next.Y < 0 || next.Y >= height {
		return true
	}
	for _, o := range gs.Obstacles {
		if o == next {
			return true
		}
	}
	for i := range gs.Snakes {
		if gs.Snakes[i].Occupies(next) {
			return true
		}
	}
	return false
}

func nearestFood(food []models.Food, head models.Coordinate) (models.Coordinate, bool) {
	best, found := models.Coordinate{}, false
	bestDist := 0
	for _, f := range food {
		d := abs(f.Coordinates.X-head.X) + abs(f.Coordinates.Y-head.Y)
		if !found || d < bestDist {
			best, bestDist, found = f.Coordinates, d, true
		}
	}
	return best, found
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// HeuristicOracle is a local stand-in for the trained bot models. Hard bots
// take the safest move toward food; easy bots sometimes pick any safe move.
type HeuristicOracle struct {
	MistakeRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewHeuristicOracle(rnd *rand.Rand) *HeuristicOracle {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &HeuristicOracle{MistakeRate: 0.25, rnd: rnd}
}

func (o *HeuristicOracle) Move(ctx context.Context, f Features, difficulty constants.BotDifficulty) (Action, error) {
	if err := ctx.Err(); err != nil {
		return Straight, err
	}

	safe := make([]Action, 0, 3)
	for _, a := range []Action{Straight, TurnRight, TurnLeft} {
		if f[dangerFeature(a)] == 0 {
			safe = append(safe, a)
		}
	}
	if len(safe) == 0 {
		return Straight, nil
	}

	if difficulty == constants.BOT_EASY && o.roll() < o.MistakeRate {
		return safe[o.pick(len(safe))], nil
	}

	heading := headingFromFeatures(f)
	for _, a := range safe {
		if towardFood(f, MapActionToDirection(heading, a)) {
			return a, nil
		}
	}
	return safe[0], nil
}

func (o *HeuristicOracle) roll() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rnd.Float64()
}

func (o *HeuristicOracle) pick(n int) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rnd.Intn(n)
}

func dangerFeature(a Action) int {
	switch a {
	case TurnRight:
		return featDangerRight
	case TurnLeft:
		return featDangerLeft
	default:
		return featDangerFront
	}
}

func headingFromFeatures(f Features) models.Direction {
	switch {
	case f[featDirLeft] == 1:
		return models.LEFT
	case f[featDirUp] == 1:
		return models.UP
	case f[featDirDown] == 1:
		return models.DOWN
	default:
		return models.RIGHT
	}
}

func towardFood(f Features, d models.Direction) bool {
	switch d {
	case models.LEFT:
		return f[featFoodLeft] == 1
	case models.RIGHT:
		return f[featFoodRight] == 1
	case models.UP:
		return f[featFoodUp] == 1
	case models.DOWN:
		return f[featFoodDown] == 1
	}
	return false
}
