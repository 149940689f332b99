// Package session drives the authoritative simulation on the host: a fixed
// period ticker applies queued inputs, asks the bot oracle for moves,
// advances the engine and publishes every snapshot.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/engine"
	"github.com/emilianodevborn/Snake-Red/models"
)

var (
	ErrNotGameOver        = errors.New("round is still running")
	ErrPauseNotAllowed    = errors.New("pause is only available when playing alone")
	ErrMissingLocalPlayer = errors.New("local player is not in the roster")
)

type Phase int

const (
	PhaseInit Phase = iota
	PhaseRunning
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseRunning:
		return "running"
	case PhaseGameOver:
		return "gameOver"
	default:
		return "unknown"
	}
}

// Publisher receives every snapshot the host produces.
type Publisher interface {
	PublishState(gs *models.GameState) error
}

type Config struct {
	Engine        *engine.Engine
	Difficulty    constants.Difficulty
	LocalPlayerID string
	Players       []engine.RoundPlayer
	Oracle        engine.Oracle
	Publisher     Publisher

	// Zero values fall back to the difficulty's tick rate and
	// BOT_MOVE_BUDGET.
	TickRate   time.Duration
	BotTimeout time.Duration
}

type Session struct {
	engine     *engine.Engine
	difficulty constants.Difficulty
	localID    string
	oracle     engine.Oracle
	publisher  Publisher
	tickRate   time.Duration
	botTimeout time.Duration

	mu      sync.Mutex
	players []engine.RoundPlayer
	state   *models.GameState
	phase   Phase
	tick    int
	paused  bool
	inputs  map[string]models.Direction
}

func New(cfg Config) (*Session, error) {
	found := false
	for _, p := range cfg.Players {
		if p.ID == cfg.LocalPlayerID && !p.IsBot {
			found = true
		}
	}
	if !found {
		return nil, ErrMissingLocalPlayer
	}

	s := &Session{
		engine:     cfg.Engine,
		difficulty: cfg.Difficulty,
		localID:    cfg.LocalPlayerID,
		oracle:     cfg.Oracle,
		publisher:  cfg.Publisher,
		tickRate:   cfg.TickRate,
		botTimeout: cfg.BotTimeout,
		players:    append([]engine.RoundPlayer(nil), cfg.Players...),
		inputs:     make(map[string]models.Direction),
	}
	if s.engine == nil {
		s.engine = engine.NewDefault()
	}
	if s.oracle == nil {
		s.oracle = engine.NewHeuristicOracle(nil)
	}
	if s.tickRate <= 0 {
		s.tickRate = s.difficulty.Level().TickRate
	}
	if s.botTimeout <= 0 {
		s.botTimeout = constants.BOT_MOVE_BUDGET
	}
	s.state = s.engine.NewRound(s.players)
	return s, nil
}

// Run ticks until ctx is done. Ticks never overlap: each one runs to
// completion before the ticker is read again.
func (s *Session) Run(ctx context.Context) error {
	s.publish(s.State())

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Paused() {
				continue
			}
			s.Step(ctx)
		}
	}
}

// Step advances one tick and publishes the result. In GameOver it returns
// the final state without ticking.
func (s *Session) Step(ctx context.Context) *models.GameState {
	s.mu.Lock()
	if s.phase == PhaseGameOver {
		gs := s.state
		s.mu.Unlock()
		return gs
	}
	s.phase = PhaseRunning
	work := withOwnSnakes(s.state)
	inputs := s.inputs
	s.inputs = make(map[string]models.Direction)
	tick := s.tick
	s.mu.Unlock()

	for playerID, dir := range inputs {
		engine.ApplyDirection(work, playerID, dir)
	}
	for playerID, dir := range s.decideBots(ctx, work) {
		engine.ApplyDirection(work, playerID, dir)
	}

	next := s.engine.AdvanceTick(work, engine.TickParams{
		Difficulty:    s.difficulty,
		Role:          constants.ROLE_HOST,
		LocalPlayerID: s.localID,
		TickCount:     tick,
	})

	s.mu.Lock()
	next = withoutDeparted(next, s.players)
	s.state = next
	s.tick++
	if next.IsGameOver {
		s.phase = PhaseGameOver
		log.Printf("Round over after %d ticks", s.tick)
	}
	s.mu.Unlock()

	s.publish(next)
	return next
}

// SubmitInput queues a direction change for the next tick. A later input
// for the same player replaces an earlier one.
func (s *Session) SubmitInput(playerID string, dir models.Direction) {
	s.mu.Lock()
	s.inputs[playerID] = dir
	s.mu.Unlock()
}

// SetPaused suspends ticking. Pausing is refused unless the local player is
// the only human left in the round; resuming is always allowed.
func (s *Session) SetPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if paused {
		local := s.state.Snake(s.localID)
		if local == nil || s.state.HumanCount() != 1 {
			return ErrPauseNotAllowed
		}
	}
	s.paused = paused
	return nil
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// TryAgain re-seeds the round after a game over.
func (s *Session) TryAgain() error {
	s.mu.Lock()
	if s.phase != PhaseGameOver {
		s.mu.Unlock()
		return ErrNotGameOver
	}
	s.state = s.engine.NewRound(s.players)
	s.phase = PhaseInit
	s.tick = 0
	s.paused = false
	s.inputs = make(map[string]models.Direction)
	gs := s.state
	s.mu.Unlock()

	log.Printf("Round restarted with %d players", len(gs.Snakes))
	s.publish(gs)
	return nil
}

// RemovePlayer drops a departed member. Its snake leaves the running round
// immediately and it is not seeded into later rounds.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.players {
		if p.ID == playerID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			break
		}
	}
	delete(s.inputs, playerID)
	if s.phase != PhaseGameOver {
		s.state = withoutDeparted(s.state, s.players)
	}
}

func (s *Session) State() *models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) TickCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

func (s *Session) TickRate() time.Duration {
	return s.tickRate
}

func (s *Session) publish(gs *models.GameState) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishState(gs); err != nil {
		log.Printf("Error publishing state: %v", err)
	}
}

// withOwnSnakes copies gs with its own snakes slice so headings can change
// without touching a snapshot that was already published.
func withOwnSnakes(gs *models.GameState) *models.GameState {
	cp := *gs
	cp.Snakes = append([]models.Snake(nil), gs.Snakes...)
	return &cp
}

// withoutDeparted returns gs minus the snakes of players no longer in the
// roster. gs itself is never modified.
func withoutDeparted(gs *models.GameState, players []engine.RoundPlayer) *models.GameState {
	present := make(map[string]bool, len(players))
	for _, p := range players {
		present[p.ID] = true
	}
	keep := make([]models.Snake, 0, len(gs.Snakes))
	for _, sn := range gs.Snakes {
		if present[sn.ID] {
			keep = append(keep, sn)
		}
	}
	if len(keep) == len(gs.Snakes) {
		return gs
	}
	cp := *gs
	cp.Snakes = keep
	return &cp
}
