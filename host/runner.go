package host

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/engine"
	"github.com/emilianodevborn/Snake-Red/models"
	"github.com/emilianodevborn/Snake-Red/protocol"
	"github.com/emilianodevborn/Snake-Red/session"
)

var ErrRoomClosed = errors.New("room closed by host")

// RelayError is an error message sent back by the relay.
type RelayError struct {
	Code    string
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay error %s: %s", e.Code, e.Message)
}

type HostOptions struct {
	Name          string
	Bots          int
	BotDifficulty constants.BotDifficulty
	Difficulty    constants.Difficulty
	// LobbyWait is how long to wait for players before starting.
	LobbyWait time.Duration
	Rounds    int
	Oracle    engine.Oracle
	// TickRate overrides the difficulty's tick period when set.
	TickRate time.Duration

	OnRoomCreated func(roomID string)
	OnRoster      func(players []models.RosterEntry)
	OnRoundOver   func(round int, gs *models.GameState)
}

// RunHost creates a room, fills it, and runs Rounds rounds as the
// authoritative host.
func RunHost(ctx context.Context, c *Client, opts HostOptions) error {
	if opts.Rounds <= 0 {
		opts.Rounds = 1
	}
	if err := c.CreateRoom(opts.Name); err != nil {
		return err
	}
	if _, err := await(ctx, c, constants.MSG_ROOM_CREATED); err != nil {
		return err
	}
	if opts.OnRoomCreated != nil {
		opts.OnRoomCreated(c.RoomID())
	}

	h := &hostLoop{client: c, opts: opts, gate: protocol.NewStartGate(constants.START_FALLBACK)}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.consume(ctx, cancel)

	for i := 0; i < opts.Bots; i++ {
		if err := c.AddBot(fmt.Sprintf("Bot %d", i+1), opts.BotDifficulty); err != nil {
			return err
		}
	}

	select {
	case <-time.After(opts.LobbyWait):
	case <-ctx.Done():
		return h.exitErr(ctx)
	}

	if err := c.StartGame(); err != nil {
		return err
	}
	confirmed, err := h.gate.Wait(ctx)
	if err != nil {
		return h.exitErr(ctx)
	}
	if !confirmed {
		log.Printf("No startGame echo from relay, starting anyway")
	}

	over := make(chan *models.GameState, 1)
	sess, err := session.New(session.Config{
		Difficulty:    opts.Difficulty,
		LocalPlayerID: c.PlayerID(),
		Players:       RoundPlayers(h.roster()),
		Oracle:        opts.Oracle,
		Publisher:     &roundPublisher{client: c, over: over},
		TickRate:      opts.TickRate,
	})
	if err != nil {
		return err
	}
	h.sess.Store(sess)

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	for round := 1; ; round++ {
		select {
		case gs := <-over:
			if opts.OnRoundOver != nil {
				opts.OnRoundOver(round, gs)
			}
			if round >= opts.Rounds {
				cancel()
				<-runErr
				return nil
			}
			if err := sess.TryAgain(); err != nil {
				return err
			}
		case <-runErr:
			return h.exitErr(ctx)
		}
	}
}

type hostLoop struct {
	client *Client
	opts   HostOptions
	gate   *protocol.StartGate
	sess   atomic.Pointer[session.Session]

	mu      sync.Mutex
	players []models.RosterEntry
	closed  bool
}

func (h *hostLoop) roster() []models.RosterEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.players
}

func (h *hostLoop) exitErr(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// consume handles relay traffic for the lifetime of the room.
func (h *hostLoop) consume(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-h.client.Events():
			if !ok {
				h.mu.Lock()
				h.closed = true
				h.mu.Unlock()
				return
			}
			h.handle(ev)
		}
	}
}

func (h *hostLoop) handle(ev Event) {
	switch ev.Type {
	case constants.MSG_PLAYER_LIST:
		msg, err := protocol.Decode[protocol.PlayerList](ev.Raw)
		if err != nil {
			return
		}
		h.mu.Lock()
		gone := Departed(h.players, msg.Players)
		h.players = msg.Players
		h.mu.Unlock()
		if sess := h.sess.Load(); sess != nil {
			for _, id := range gone {
				sess.RemovePlayer(id)
			}
		}
		if h.opts.OnRoster != nil {
			h.opts.OnRoster(msg.Players)
		}
	case constants.MSG_START_GAME:
		h.gate.Confirm()
	case constants.MSG_INPUT:
		msg, err := protocol.Decode[protocol.Input](ev.Raw)
		if err != nil {
			return
		}
		if !h.steerable(msg.ID) {
			log.Printf("Ignoring input for %q", msg.ID)
			return
		}
		if sess := h.sess.Load(); sess != nil {
			sess.SubmitInput(msg.ID, msg.Direction)
		}
	case constants.MSG_ERROR:
		msg, err := protocol.Decode[protocol.Error](ev.Raw)
		if err == nil {
			log.Printf("Relay rejected a request: %s (%s)", msg.Message, msg.Code)
		}
	}
}

// steerable reports whether a remote input may move playerID. Our own
// snake and bots are driven locally.
func (h *hostLoop) steerable(playerID string) bool {
	if playerID == "" || playerID == h.client.PlayerID() {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.players {
		if p.ID == playerID {
			return !p.IsBot
		}
	}
	return false
}

// roundPublisher forwards snapshots and signals the first game-over state
// of each round.
type roundPublisher struct {
	client *Client
	over   chan<- *models.GameState
}

func (p *roundPublisher) PublishState(gs *models.GameState) error {
	err := p.client.PublishState(gs)
	if gs.IsGameOver {
		select {
		case p.over <- gs:
		default:
		}
	}
	return err
}

type ClientOptions struct {
	Name   string
	RoomID string
	// Autopilot steers our snake with Oracle from mirrored snapshots.
	Autopilot bool
	Oracle    engine.Oracle
	OnState   func(gs *models.GameState)
}

// RunClient joins a room and mirrors the host's snapshots until the room
// closes or ctx is done.
func RunClient(ctx context.Context, c *Client, opts ClientOptions) error {
	if err := c.JoinRoom(opts.RoomID, opts.Name); err != nil {
		return err
	}
	if _, err := await(ctx, c, constants.MSG_PLAYER_CONNECTED); err != nil {
		return err
	}
	if opts.Autopilot && opts.Oracle == nil {
		opts.Oracle = engine.NewHeuristicOracle(nil)
	}

	var mirror protocol.Mirror
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.Events():
			if !ok {
				return ErrClosed
			}
			switch ev.Type {
			case constants.MSG_ROOM_CLOSED:
				return ErrRoomClosed
			case constants.MSG_GAME_STATE:
				if err := mirror.Apply(ev.Raw); err != nil {
					log.Printf("Dropping snapshot: %v", err)
					continue
				}
				gs := mirror.Snapshot()
				if opts.OnState != nil {
					opts.OnState(gs)
				}
				if opts.Autopilot {
					steer(ctx, c, opts.Oracle, gs)
				}
			}
		}
	}
}

func steer(ctx context.Context, c *Client, oracle engine.Oracle, gs *models.GameState) {
	me := gs.Snake(c.PlayerID())
	if me == nil || gs.IsGameOver {
		return
	}
	f := engine.ComputeFeatures(gs, me, constants.GRID_WIDTH, constants.GRID_HEIGHT)

	moveCtx, cancel := context.WithTimeout(ctx, constants.BOT_MOVE_BUDGET)
	defer cancel()
	action, err := oracle.Move(moveCtx, f, constants.BOT_HARD)
	if err != nil || action == engine.Straight {
		return
	}
	c.SendInput(engine.MapActionToDirection(me.Direction, action))
}

// await consumes events until one of type want arrives. An error message
// from the relay aborts the wait.
func await(ctx context.Context, c *Client, want string) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case ev, ok := <-c.Events():
			if !ok {
				return Event{}, ErrClosed
			}
			switch ev.Type {
			case want:
				return ev, nil
			case constants.MSG_ERROR:
				msg, err := protocol.Decode[protocol.Error](ev.Raw)
				if err != nil {
					return Event{}, err
				}
				return Event{}, &RelayError{Code: msg.Code, Message: msg.Message}
			}
		}
	}
}
