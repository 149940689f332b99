package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emilianodevborn/Snake-Red/models"
)

func fullyBlocked(w, h int) map[models.Coordinate]bool {
	blocked := make(map[models.Coordinate]bool, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			blocked[at(x, y)] = true
		}
	}
	return blocked
}

func TestOffsetAxis(t *testing.T) {
	assert.Equal(t, 59, offsetAxis(5, 60, 1.0))
	assert.Equal(t, 25, offsetAxis(50, 60, 0.5))
	assert.Equal(t, 0, offsetAxis(59, 60, 1.0))
	assert.Equal(t, 10, offsetAxis(10, 60, 0))
}

func TestObstacleReach(t *testing.T) {
	cases := []struct {
		length int
		want   float64
	}{
		{1, 1.0}, {2, 1.0}, {4, 1.0}, {5, 0.7}, {7, 0.5}, {10, 0.3},
		{12, 0.1}, {14, 0.05}, {15, 0.02}, {40, 0.02},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, obstacleReach(tc.length), "length %d", tc.length)
	}
}

func TestPlaceFood_RandomCellAvoidsBlocked(t *testing.T) {
	e := New(60, 40, rand.New(rand.NewSource(3)))
	head := at(10, 10)
	blocked := map[models.Coordinate]bool{at(11, 10): true}

	for i := 0; i < 100; i++ {
		c := e.placeFood(head, blocked)
		assert.True(t, e.validSpawn(c, head, blocked), "cell %v", c)
	}
}

func TestPlaceFood_FallsBackTowardFarSide(t *testing.T) {
	e := New(4, 4, rand.New(rand.NewSource(3)))

	c := e.placeFood(at(0, 0), fullyBlocked(4, 4))

	assert.Equal(t, at(2, 2), c)
}

func TestPlaceObstacle_DecaysUntilForced(t *testing.T) {
	e := New(4, 4, rand.New(rand.NewSource(3)))

	c := e.placeObstacle(at(0, 0), 1, fullyBlocked(4, 4))

	// 0.9^10 of the remaining distance.
	assert.Equal(t, at(1, 1), c)
}

func TestPlaceObstacle_LongerSnakeSpawnsCloser(t *testing.T) {
	e := New(60, 40, rand.New(rand.NewSource(3)))
	head := at(5, 5)

	short := e.placeObstacle(head, 2, map[models.Coordinate]bool{})
	long := e.placeObstacle(head, 20, map[models.Coordinate]bool{})

	assert.Equal(t, at(59, 39), short)
	assert.Equal(t, at(6, 5), long)
}
