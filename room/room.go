package room

import (
	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// Room is one match session. Players keep join order; the host is first.
type Room struct {
	ID      string
	HostID  string
	Players []*Player
}

// Summary is the read-only view served over HTTP.
type Summary struct {
	RoomID   string `json:"roomId"`
	HostName string `json:"hostName"`
	Players  int    `json:"players"`
	Bots     int    `json:"bots"`
}

func (r *Room) Host() *Player {
	return r.Player(r.HostID)
}

func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Humans returns every member behind a live connection, host included.
func (r *Room) Humans() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if _, ok := p.Conn(); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) BotCount() int {
	n := 0
	for _, p := range r.Players {
		if p.IsBot() {
			n++
		}
	}
	return n
}

func (r *Room) Roster() []models.RosterEntry {
	out := make([]models.RosterEntry, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p.rosterEntry(r.HostID))
	}
	return out
}

func (r *Room) Summary() Summary {
	s := Summary{RoomID: r.ID, Bots: r.BotCount()}
	s.Players = len(r.Players) - s.Bots
	if h := r.Host(); h != nil {
		s.HostName = h.Name
	}
	return s
}

// slotOwner returns the id of the player holding slot, or "".
func (r *Room) slotOwner(slot int) string {
	for _, p := range r.Players {
		if p.ColorIndex == slot {
			return p.ID
		}
	}
	return ""
}

// lowestFreeSlot returns the smallest unused color slot, or -1.
func (r *Room) lowestFreeSlot() int {
	for slot := 0; slot < constants.MAX_PLAYERS; slot++ {
		if r.slotOwner(slot) == "" {
			return slot
		}
	}
	return -1
}

func (r *Room) remove(id string) *Player {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return p
		}
	}
	return nil
}
