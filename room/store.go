package room

import (
	"github.com/emilianodevborn/Snake-Red/lobby"
)

// Store persists rooms by id.
type Store interface {
	Get(id string) (*Room, bool)
	Put(r *Room)
	Delete(id string)
	List() []*Room
}

// MemoryStore keeps rooms in process memory, in creation order.
type MemoryStore struct {
	rooms *lobby.Service[*Room]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: lobby.NewService[*Room]()}
}

func (s *MemoryStore) Get(id string) (*Room, bool) {
	return s.rooms.Get(id)
}

func (s *MemoryStore) Put(r *Room) {
	s.rooms.Put(r.ID, r)
}

func (s *MemoryStore) Delete(id string) {
	s.rooms.Remove(id)
}

func (s *MemoryStore) List() []*Room {
	return s.rooms.Snapshot()
}
