// Package room owns room lifecycle and color slot allocation. A Registry is
// not safe for concurrent use; the relay drives it from a single goroutine.
package room

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"

	"github.com/google/uuid"

	"github.com/emilianodevborn/Snake-Red/constants"
)

type Registry struct {
	store      Store
	idAttempts int
	newRoomID  func() string
	newBotID   func() string
}

type Option func(*Registry)

// WithIDAttempts bounds how many fresh room ids CreateRoom tries before
// giving up on collisions.
func WithIDAttempts(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.idAttempts = n
		}
	}
}

func WithRoomIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newRoomID = gen }
}

func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:      store,
		idAttempts: 16,
		newRoomID:  generateRoomID,
		newBotID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRoom opens a room with the caller as host on color slot 0.
func (r *Registry) CreateRoom(playerID, name string, conn Conn) (*Room, *Player, error) {
	id := ""
	for attempt := 0; attempt < r.idAttempts; attempt++ {
		candidate := r.newRoomID()
		if _, taken := r.store.Get(candidate); !taken {
			id = candidate
			break
		}
		log.Printf("Room id %s already in use, retrying", candidate)
	}
	if id == "" {
		return nil, nil, ErrRoomIDExhausted
	}

	host := &Player{ID: playerID, Name: name, ColorIndex: 0, Participant: Human{Conn: conn}}
	rm := &Room{ID: id, HostID: playerID, Players: []*Player{host}}
	r.store.Put(rm)

	log.Printf("Room %s created by %s (%s)", id, name, playerID)
	return rm, host, nil
}

// JoinRoom adds a human on the lowest free color slot.
func (r *Registry) JoinRoom(roomID, playerID, name string, conn Conn) (*Room, *Player, error) {
	rm, ok := r.store.Get(roomID)
	if !ok {
		return nil, nil, fmt.Errorf("join %s: %w", roomID, ErrRoomNotFound)
	}
	slot := rm.lowestFreeSlot()
	if slot < 0 {
		return nil, nil, fmt.Errorf("join %s: %w", roomID, ErrSlotsExhausted)
	}

	p := &Player{ID: playerID, Name: name, ColorIndex: slot, Participant: Human{Conn: conn}}
	rm.Players = append(rm.Players, p)
	r.store.Put(rm)

	log.Printf("Player %s (%s) joined room %s on slot %d", name, playerID, roomID, slot)
	return rm, p, nil
}

// AddBot adds a bot on the lowest free slot. Only the host may add bots.
func (r *Registry) AddBot(roomID, callerID, botName string, difficulty constants.BotDifficulty) (*Room, *Player, error) {
	rm, ok := r.store.Get(roomID)
	if !ok {
		return nil, nil, fmt.Errorf("add bot to %s: %w", roomID, ErrRoomNotFound)
	}
	if rm.HostID != callerID {
		return nil, nil, fmt.Errorf("add bot to %s: %w", roomID, ErrNotHost)
	}
	if rm.BotCount() >= constants.MAX_BOTS {
		return nil, nil, fmt.Errorf("add bot to %s: %w", roomID, ErrBotsExhausted)
	}
	slot := rm.lowestFreeSlot()
	if slot < 0 {
		return nil, nil, fmt.Errorf("add bot to %s: %w", roomID, ErrSlotsExhausted)
	}
	if !difficulty.Valid() {
		difficulty = constants.BOT_EASY
	}
	if botName == "" {
		botName = fmt.Sprintf("Bot %d", rm.BotCount()+1)
	}

	p := &Player{ID: r.newBotID(), Name: botName, ColorIndex: slot, Participant: Bot{Difficulty: difficulty}}
	rm.Players = append(rm.Players, p)
	r.store.Put(rm)

	log.Printf("Bot %s (%s) added to room %s on slot %d", botName, difficulty, roomID, slot)
	return rm, p, nil
}

// ChangeColor moves playerID onto newSlot. Players change their own color;
// the host may also recolor bots. A slot held by someone else is rejected.
func (r *Registry) ChangeColor(roomID, callerID, playerID string, newSlot int) (*Room, error) {
	rm, ok := r.store.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("change color in %s: %w", roomID, ErrRoomNotFound)
	}
	if newSlot < 0 || newSlot >= constants.MAX_PLAYERS {
		return nil, fmt.Errorf("change color to %d: %w", newSlot, ErrInvalidSlot)
	}
	p := rm.Player(playerID)
	if p == nil {
		return nil, fmt.Errorf("change color of %s: %w", playerID, ErrPlayerNotFound)
	}
	if callerID != playerID && !(p.IsBot() && callerID == rm.HostID) {
		return nil, fmt.Errorf("change color of %s: %w", playerID, ErrNotHost)
	}
	if owner := rm.slotOwner(newSlot); owner != "" && owner != playerID {
		return nil, fmt.Errorf("change color to %d: %w", newSlot, ErrSlotTaken)
	}

	p.ColorIndex = newSlot
	r.store.Put(rm)
	return rm, nil
}

// Removal describes what RemovePlayer did.
type Removal struct {
	Room   *Room
	Player *Player
	// Closed is set when the host left; Room then holds the members that
	// were still in it and is no longer in the registry.
	Closed bool
}

// RemovePlayer drops a departed member and frees its slot. When the host
// leaves the whole room is torn down.
func (r *Registry) RemovePlayer(roomID, playerID string) (Removal, error) {
	rm, ok := r.store.Get(roomID)
	if !ok {
		return Removal{}, fmt.Errorf("remove from %s: %w", roomID, ErrRoomNotFound)
	}
	if playerID == rm.HostID {
		r.store.Delete(roomID)
		log.Printf("Room %s closed, host %s left", roomID, playerID)
		return Removal{Room: rm, Player: rm.Host(), Closed: true}, nil
	}

	p := rm.remove(playerID)
	if p == nil {
		return Removal{}, fmt.Errorf("remove %s: %w", playerID, ErrPlayerNotFound)
	}
	r.store.Put(rm)
	log.Printf("Player %s (%s) left room %s", p.Name, playerID, roomID)
	return Removal{Room: rm, Player: p}, nil
}

func (r *Registry) Get(roomID string) (*Room, bool) {
	return r.store.Get(roomID)
}

func (r *Registry) List() []Summary {
	rooms := r.store.List()
	out := make([]Summary, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, rm.Summary())
	}
	return out
}

func generateRoomID() string {
	b := make([]byte, constants.ROOM_ID_LENGTH)
	max := big.NewInt(int64(len(constants.ROOM_ID_CHARS)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = constants.ROOM_ID_CHARS[idx.Int64()]
	}
	return string(b)
}
