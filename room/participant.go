package room

import (
	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// Conn is the outbound side of a networked participant.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Participant is either a Human behind a connection or a Bot simulated by
// the host. Switch on the concrete type.
type Participant interface {
	participant()
}

type Human struct {
	Conn Conn
}

type Bot struct {
	Difficulty constants.BotDifficulty
}

func (Human) participant() {}
func (Bot) participant()   {}

// Player is a room member.
type Player struct {
	ID          string
	Name        string
	ColorIndex  int
	Participant Participant
}

func (p *Player) IsBot() bool {
	_, ok := p.Participant.(Bot)
	return ok
}

// Conn returns the player's connection, or false for bots.
func (p *Player) Conn() (Conn, bool) {
	h, ok := p.Participant.(Human)
	if !ok || h.Conn == nil {
		return nil, false
	}
	return h.Conn, true
}

func (p *Player) rosterEntry(hostID string) models.RosterEntry {
	e := models.RosterEntry{
		ID:         p.ID,
		Name:       p.Name,
		ColorIndex: p.ColorIndex,
		IsHost:     p.ID == hostID,
	}
	if b, ok := p.Participant.(Bot); ok {
		e.IsBot = true
		e.BotDifficulty = b.Difficulty
	}
	return e
}
