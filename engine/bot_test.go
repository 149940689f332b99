package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

func TestMapActionToDirection(t *testing.T) {
	assert.Equal(t, models.RIGHT, MapActionToDirection(models.RIGHT, Straight))
	assert.Equal(t, models.DOWN, MapActionToDirection(models.RIGHT, TurnRight))
	assert.Equal(t, models.UP, MapActionToDirection(models.RIGHT, TurnLeft))
	assert.Equal(t, models.RIGHT, MapActionToDirection(models.UP, TurnRight))
	assert.Equal(t, models.LEFT, MapActionToDirection(models.UP, TurnLeft))
	assert.Equal(t, models.LEFT, MapActionToDirection(models.DOWN, TurnRight))
}

func TestActionFromScores(t *testing.T) {
	assert.Equal(t, Straight, ActionFromScores([]float32{0.5, 0.2, 0.3}))
	assert.Equal(t, TurnRight, ActionFromScores([]float32{0.1, 0.7, 0.2}))
	assert.Equal(t, TurnLeft, ActionFromScores([]float32{0.1, 0.2, 0.7}))
	assert.Equal(t, Straight, ActionFromScores(nil))
}

func TestComputeFeatures(t *testing.T) {
	s := snakeAt("bot", models.RIGHT, at(0, 0))
	other := snakeAt("x", models.UP, at(1, 0))
	gs := &models.GameState{
		Snakes: []models.Snake{s, other},
		Food:   []models.Food{{Coordinates: at(5, 3)}, {Coordinates: at(50, 30)}},
	}

	f := ComputeFeatures(gs, &gs.Snakes[0], 60, 40)

	assert.Equal(t, Features{
		1, 0, 1, // danger: snake ahead, wall to the left
		0, 1, 0, 0,
		0, 1, 0, 1,
	}, f)
}

func TestComputeFeatures_ObstacleAndNoFood(t *testing.T) {
	s := snakeAt("bot", models.UP, at(10, 10))
	gs := &models.GameState{
		Snakes:    []models.Snake{s},
		Obstacles: []models.Coordinate{at(11, 10)},
	}

	f := ComputeFeatures(gs, &gs.Snakes[0], 60, 40)

	assert.Equal(t, Features{0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0}, f)
}

func TestHeuristicOracle(t *testing.T) {
	o := NewHeuristicOracle(rand.New(rand.NewSource(1)))
	ctx := context.Background()

	// Heading right, blocked ahead, food below.
	f := Features{1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1}
	a, err := o.Move(ctx, f, constants.BOT_HARD)
	require.NoError(t, err)
	assert.Equal(t, TurnRight, a)

	// Everything blocked.
	a, err = o.Move(ctx, Features{1, 1, 1}, constants.BOT_HARD)
	require.NoError(t, err)
	assert.Equal(t, Straight, a)

	// Easy bots never pick an unsafe move either.
	o.MistakeRate = 1
	for i := 0; i < 20; i++ {
		a, err = o.Move(ctx, Features{1, 0, 1, 0, 1}, constants.BOT_EASY)
		require.NoError(t, err)
		assert.Equal(t, TurnRight, a)
	}
}

func TestHeuristicOracle_CanceledContext(t *testing.T) {
	o := NewHeuristicOracle(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Move(ctx, Features{}, constants.BOT_HARD)

	assert.ErrorIs(t, err, context.Canceled)
}
