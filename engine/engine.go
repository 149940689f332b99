// Package engine advances the authoritative snake simulation one tick at a
// time. It is only ever driven by the room host; peers render snapshots.
package engine

import (
	"math/rand"
	"time"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// Engine holds board geometry and the placement RNG. It is not safe for
// concurrent use; a host drives one Engine from a single goroutine.
type Engine struct {
	width  int
	height int
	rnd    *rand.Rand
}

// New returns an Engine for a width x height cell board. A nil rnd is
// replaced by one seeded from the clock.
func New(width, height int, rnd *rand.Rand) *Engine {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{width: width, height: height, rnd: rnd}
}

// NewDefault returns an Engine sized to the standard board.
func NewDefault() *Engine {
	return New(constants.GRID_WIDTH, constants.GRID_HEIGHT, nil)
}

func (e *Engine) Width() int  { return e.width }
func (e *Engine) Height() int { return e.height }

type TickParams struct {
	Difficulty    constants.Difficulty
	Role          constants.Role
	LocalPlayerID string
	TickCount     int
}

type projection struct {
	snake *models.Snake
	head  models.Coordinate
	moved bool
}

// AdvanceTick computes the next state from prev without mutating it. Snakes
// gated out of movement this tick keep their segments slice untouched.
func (e *Engine) AdvanceTick(prev *models.GameState, p TickParams) *models.GameState {
	if prev.IsGameOver {
		return prev
	}

	maxX, maxY := e.width-1, e.height-1
	level := p.Difficulty.Level()
	scores := newScoreboard(prev.Scores)

	proj := make([]projection, len(prev.Snakes))
	dead := make(map[string]bool)

	for i := range prev.Snakes {
		s := &prev.Snakes[i]
		pr := projection{snake: s, head: s.Head()}
		if movesThisTick(s, p.TickCount) {
			raw := pr.head.Add(s.Direction)
			if raw.X < 0 || raw.X > maxX || raw.Y < 0 || raw.Y > maxY {
				dead[s.ID] = true
			}
			pr.head = models.Coordinate{X: clamp(raw.X, 0, maxX), Y: clamp(raw.Y, 0, maxY)}
			pr.moved = true
		}
		proj[i] = pr
	}

	for _, pr := range proj {
		for _, seg := range pr.snake.Segments[1:] {
			if seg.Coordinate() == pr.head {
				dead[pr.snake.ID] = true
				break
			}
		}
	}

	for i, a := range proj {
		for j, b := range proj {
			if i == j {
				continue
			}
			for idx, seg := range b.snake.Segments {
				if seg.Coordinate() != a.head {
					continue
				}
				dead[a.snake.ID] = true
				if idx == 0 {
					dead[b.snake.ID] = true
				} else {
					scores.add(b.snake.ID, constants.KILL_BONUS)
				}
			}
			// Two heads entering the same empty cell.
			if a.moved && b.moved && a.head == b.head {
				dead[a.snake.ID] = true
				dead[b.snake.ID] = true
			}
		}
	}

	for _, pr := range proj {
		for _, o := range prev.Obstacles {
			if o == pr.head {
				dead[pr.snake.ID] = true
				break
			}
		}
	}

	food := append([]models.Food(nil), prev.Food...)
	obstacles := append([]models.Coordinate(nil), prev.Obstacles...)
	consumed := prev.ConsumedFood

	for _, pr := range proj {
		if !dead[pr.snake.ID] {
			continue
		}
		segs := pr.snake.Segments
		drop := (len(segs) - 1) / 2
		for _, seg := range segs[len(segs)-drop:] {
			food = append(food, models.Food{Coordinates: seg.Coordinate(), Sprite: e.randomSprite()})
		}
	}

	survivors := make([]models.Snake, 0, len(proj))
	for _, pr := range proj {
		if dead[pr.snake.ID] {
			continue
		}
		if !pr.moved {
			survivors = append(survivors, *pr.snake)
			continue
		}

		ate := false
		if hasFoodAt(food, pr.head) {
			ate = true
			scores.add(pr.snake.ID, constants.FOOD_SCORE)
			food = removeFoodAt(food, pr.head)
			blocked := blockedCells(proj, obstacles, food)
			food = append(food, models.Food{
				Coordinates: e.placeFood(pr.head, blocked),
				Sprite:      e.randomSprite(),
			})
			consumed++
			if level.ObstacleEvery > 0 && consumed%level.ObstacleEvery == 0 {
				blocked = blockedCells(proj, obstacles, food)
				obstacles = append(obstacles, e.placeObstacle(pr.head, len(pr.snake.Segments), blocked))
			}
		}

		segs := pr.snake.Segments
		body := segs
		if !ate {
			body = segs[:len(segs)-1]
		}
		next := make([]models.Segment, 0, len(body)+1)
		next = append(next, models.Segment{X: pr.head.X, Y: pr.head.Y, Direction: pr.snake.Direction})
		next = append(next, body...)

		moved := *pr.snake
		moved.Segments = next
		survivors = append(survivors, moved)
	}

	if len(dead) > 0 {
		alive := make(map[string]bool, len(survivors))
		for _, s := range survivors {
			alive[s.ID] = true
		}
		scores.bonus(alive, dead, constants.SURVIVOR_BONUS)
	}

	next := &models.GameState{
		Snakes:        survivors,
		Food:          food,
		Obstacles:     obstacles,
		ConsumedFood:  consumed,
		IsMultiplayer: prev.IsMultiplayer || prev.HumanCount() > 1,
		Scores:        scores.list,
	}
	next.IsGameOver = isGameOver(next, p)
	return next
}

func isGameOver(gs *models.GameState, p TickParams) bool {
	if p.Role == constants.ROLE_HOST {
		return gs.Snake(p.LocalPlayerID) == nil
	}
	return gs.HumanCount() <= 1
}

func movesThisTick(s *models.Snake, tick int) bool {
	factor := s.SpeedFactor
	if factor <= 1 {
		return true
	}
	return tick%factor == 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hasFoodAt(food []models.Food, c models.Coordinate) bool {
	for _, f := range food {
		if f.Coordinates == c {
			return true
		}
	}
	return false
}

func removeFoodAt(food []models.Food, c models.Coordinate) []models.Food {
	out := food[:0:0]
	for _, f := range food {
		if f.Coordinates != c {
			out = append(out, f)
		}
	}
	return out
}

func (e *Engine) randomSprite() string {
	return constants.FOOD_SPRITES[e.rnd.Intn(len(constants.FOOD_SPRITES))]
}

// scoreboard copies prev scores so the previous snapshot stays untouched.
type scoreboard struct {
	list []models.Score
}

func newScoreboard(prev []models.Score) *scoreboard {
	return &scoreboard{list: append([]models.Score(nil), prev...)}
}

func (sb *scoreboard) add(playerID string, points int) {
	for i := range sb.list {
		if sb.list[i].PlayerID == playerID {
			sb.list[i].Score += points
			return
		}
	}
	sb.list = append(sb.list, models.Score{PlayerID: playerID, Score: points})
}

func (sb *scoreboard) bonus(alive, dead map[string]bool, points int) {
	for i := range sb.list {
		id := sb.list[i].PlayerID
		if alive[id] && !dead[id] {
			sb.list[i].Score += points
		}
	}
}
