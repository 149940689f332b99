package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/engine"
	"github.com/emilianodevborn/Snake-Red/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	states []*models.GameState
}

func (p *recordingPublisher) PublishState(gs *models.GameState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, gs)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}

type oracleFunc func(ctx context.Context, f engine.Features, d constants.BotDifficulty) (engine.Action, error)

func (o oracleFunc) Move(ctx context.Context, f engine.Features, d constants.BotDifficulty) (engine.Action, error) {
	return o(ctx, f, d)
}

func straight() engine.Oracle {
	return oracleFunc(func(context.Context, engine.Features, constants.BotDifficulty) (engine.Action, error) {
		return engine.Straight, nil
	})
}

func newSession(t *testing.T, oracle engine.Oracle, players ...engine.RoundPlayer) (*Session, *recordingPublisher) {
	t.Helper()
	if len(players) == 0 {
		players = []engine.RoundPlayer{{ID: "me", Name: "Ana"}}
	}
	pub := &recordingPublisher{}
	s, err := New(Config{
		Engine:        engine.New(constants.GRID_WIDTH, constants.GRID_HEIGHT, rand.New(rand.NewSource(1))),
		Difficulty:    "2",
		LocalPlayerID: "me",
		Players:       players,
		Oracle:        oracle,
		Publisher:     pub,
		BotTimeout:    20 * time.Millisecond,
	})
	require.NoError(t, err)
	return s, pub
}

// place replaces the live state with snakes at fixed positions and no food.
func place(s *Session, snakes ...models.Snake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &models.GameState{Snakes: snakes}
}

func snake(id string, dir models.Direction, isBot bool, cells ...models.Coordinate) models.Snake {
	segs := make([]models.Segment, len(cells))
	for i, c := range cells {
		segs[i] = models.Segment{X: c.X, Y: c.Y, Direction: dir}
	}
	return models.Snake{ID: id, Segments: segs, Direction: dir, SpeedFactor: 1, IsBot: isBot}
}

func at(x, y int) models.Coordinate { return models.Coordinate{X: x, Y: y} }

func TestNewRequiresLocalHuman(t *testing.T) {
	_, err := New(Config{LocalPlayerID: "me", Players: []engine.RoundPlayer{{ID: "other"}}})
	assert.ErrorIs(t, err, ErrMissingLocalPlayer)

	_, err = New(Config{LocalPlayerID: "me", Players: []engine.RoundPlayer{{ID: "me", IsBot: true}}})
	assert.ErrorIs(t, err, ErrMissingLocalPlayer)
}

func TestNewSeedsRound(t *testing.T) {
	s, _ := newSession(t, straight())

	assert.Equal(t, PhaseInit, s.Phase())
	assert.Len(t, s.State().Snakes, 1)
	assert.Len(t, s.State().Food, constants.INITIAL_FOOD)
	assert.Equal(t, 100*time.Millisecond, s.TickRate())
}

func TestStepAppliesLatestInput(t *testing.T) {
	s, pub := newSession(t, straight())
	place(s, snake("me", models.RIGHT, false, at(10, 10)))

	s.SubmitInput("me", models.UP)
	s.SubmitInput("me", models.DOWN)
	gs := s.Step(context.Background())

	assert.Equal(t, PhaseRunning, s.Phase())
	assert.Equal(t, at(10, 11), gs.Snake("me").Head())
	assert.Equal(t, 1, s.TickCount())
	assert.Equal(t, 1, pub.count())
}

func TestStepRejectsReversal(t *testing.T) {
	s, _ := newSession(t, straight())
	place(s, snake("me", models.RIGHT, false, at(10, 10), at(9, 10)))

	s.SubmitInput("me", models.LEFT)
	gs := s.Step(context.Background())

	assert.Equal(t, at(11, 10), gs.Snake("me").Head())
}

func TestStepLeavesPublishedSnapshotUntouched(t *testing.T) {
	s, pub := newSession(t, straight())
	place(s, snake("me", models.RIGHT, false, at(10, 10)))

	first := s.Step(context.Background())
	s.SubmitInput("me", models.DOWN)
	s.Step(context.Background())

	assert.Equal(t, models.RIGHT, first.Snake("me").Direction)
	assert.Same(t, first, pub.states[0])
}

func TestBotsFollowOracle(t *testing.T) {
	turnRight := oracleFunc(func(context.Context, engine.Features, constants.BotDifficulty) (engine.Action, error) {
		return engine.TurnRight, nil
	})
	s, _ := newSession(t, turnRight,
		engine.RoundPlayer{ID: "me"},
		engine.RoundPlayer{ID: "bot", IsBot: true, BotDifficulty: constants.BOT_HARD},
	)
	place(s,
		snake("me", models.RIGHT, false, at(10, 10)),
		snake("bot", models.RIGHT, true, at(20, 20)),
	)

	gs := s.Step(context.Background())

	assert.Equal(t, at(20, 21), gs.Snake("bot").Head())
	assert.Equal(t, at(11, 10), gs.Snake("me").Head())
}

func TestBotFailureKeepsHeading(t *testing.T) {
	cases := map[string]engine.Oracle{
		"error": oracleFunc(func(context.Context, engine.Features, constants.BotDifficulty) (engine.Action, error) {
			return engine.TurnLeft, errors.New("model unavailable")
		}),
		"timeout": oracleFunc(func(context.Context, engine.Features, constants.BotDifficulty) (engine.Action, error) {
			time.Sleep(200 * time.Millisecond)
			return engine.TurnLeft, nil
		}),
	}
	for name, oracle := range cases {
		t.Run(name, func(t *testing.T) {
			s, _ := newSession(t, oracle,
				engine.RoundPlayer{ID: "me"},
				engine.RoundPlayer{ID: "bot", IsBot: true},
			)
			place(s,
				snake("me", models.RIGHT, false, at(10, 10)),
				snake("bot", models.RIGHT, true, at(20, 20)),
			)

			start := time.Now()
			gs := s.Step(context.Background())

			assert.Less(t, time.Since(start), 150*time.Millisecond)
			require.NotNil(t, gs.Snake("bot"))
			assert.Equal(t, at(21, 20), gs.Snake("bot").Head())
		})
	}
}

func TestGameOverAndTryAgain(t *testing.T) {
	s, pub := newSession(t, straight())
	assert.ErrorIs(t, s.TryAgain(), ErrNotGameOver)

	place(s, snake("me", models.UP, false, at(3, 0)))
	gs := s.Step(context.Background())
	require.True(t, gs.IsGameOver)
	assert.Equal(t, PhaseGameOver, s.Phase())

	// No ticking while over.
	assert.Same(t, gs, s.Step(context.Background()))
	assert.Equal(t, 1, s.TickCount())

	require.NoError(t, s.TryAgain())
	assert.Equal(t, PhaseInit, s.Phase())
	assert.Equal(t, 0, s.TickCount())
	assert.Equal(t, at(5, 5), s.State().Snake("me").Head())
	assert.Equal(t, 2, pub.count())

	s.Step(context.Background())
	assert.Equal(t, PhaseRunning, s.Phase())
}

func TestTryAgainSkipsDepartedPlayers(t *testing.T) {
	s, _ := newSession(t, straight(),
		engine.RoundPlayer{ID: "me"},
		engine.RoundPlayer{ID: "guest"},
	)
	require.Len(t, s.State().Snakes, 2)
	s.RemovePlayer("guest")
	place(s, snake("me", models.UP, false, at(3, 0)))
	s.Step(context.Background())

	require.NoError(t, s.TryAgain())

	assert.Len(t, s.State().Snakes, 1)
}

func TestDepartedSnakeLeavesRunningRound(t *testing.T) {
	s, pub := newSession(t, straight(),
		engine.RoundPlayer{ID: "me"},
		engine.RoundPlayer{ID: "leo"},
	)
	place(s,
		snake("me", models.RIGHT, false, at(5, 5)),
		snake("leo", models.RIGHT, false, at(10, 5)),
	)
	first := s.Step(context.Background())
	require.NotNil(t, first.Snake("leo"))

	s.SubmitInput("leo", models.DOWN)
	s.RemovePlayer("leo")
	assert.Nil(t, s.State().Snake("leo"))
	assert.NotNil(t, first.Snake("leo"), "published snapshot unchanged")

	for i := 0; i < 3; i++ {
		gs := s.Step(context.Background())
		assert.Nil(t, gs.Snake("leo"))
		require.NotNil(t, gs.Snake("me"))
	}
	assert.Equal(t, at(9, 5), s.State().Snake("me").Head())
	assert.Zero(t, s.State().ScoreOf("me"))
	assert.Equal(t, 4, pub.count())
}

func TestRemovePlayerKeepsFinalState(t *testing.T) {
	s, _ := newSession(t, straight(),
		engine.RoundPlayer{ID: "me"},
		engine.RoundPlayer{ID: "leo"},
	)
	place(s,
		snake("me", models.UP, false, at(3, 0)),
		snake("leo", models.RIGHT, false, at(10, 5)),
	)
	final := s.Step(context.Background())
	require.True(t, final.IsGameOver)

	s.RemovePlayer("leo")

	assert.Same(t, final, s.State())
}

func TestPauseOnlyWhenAlone(t *testing.T) {
	s, _ := newSession(t, straight(),
		engine.RoundPlayer{ID: "me"},
		engine.RoundPlayer{ID: "guest"},
		engine.RoundPlayer{ID: "bot", IsBot: true},
	)
	assert.ErrorIs(t, s.SetPaused(true), ErrPauseNotAllowed)
	assert.False(t, s.Paused())

	place(s,
		snake("me", models.RIGHT, false, at(10, 10)),
		snake("bot", models.RIGHT, true, at(20, 20)),
	)
	require.NoError(t, s.SetPaused(true))
	assert.True(t, s.Paused())
	require.NoError(t, s.SetPaused(false))
	assert.False(t, s.Paused())
}

func TestRunHonorsPause(t *testing.T) {
	pub := &recordingPublisher{}
	s, err := New(Config{
		Engine:        engine.New(constants.GRID_WIDTH, constants.GRID_HEIGHT, rand.New(rand.NewSource(1))),
		LocalPlayerID: "me",
		Players:       []engine.RoundPlayer{{ID: "me"}},
		Oracle:        straight(),
		Publisher:     pub,
		TickRate:      5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, s.SetPaused(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, s.TickCount())
	assert.Equal(t, 1, pub.count(), "initial snapshot only")

	require.NoError(t, s.SetPaused(false))
	assert.Eventually(t, func() bool { return s.TickCount() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
