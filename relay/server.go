// Package relay routes messages between the members of each room. A single
// goroutine (Server.Run) owns the room registry and every client's room
// membership; transports and HTTP handlers talk to it through its inbox.
package relay

import (
	"context"
	"errors"
	"log"

	"github.com/emilianodevborn/Snake-Red/lobby"
	"github.com/emilianodevborn/Snake-Red/models"
	"github.com/emilianodevborn/Snake-Red/room"
)

var ErrStopped = errors.New("relay stopped")

// TokenIssuer mints the session token handed out with roomCreated and
// playerConnected.
type TokenIssuer interface {
	Issue(playerID, roomID, name string) (string, error)
}

type Server struct {
	registry *room.Registry
	tokens   TokenIssuer

	// Connections that have not created or joined a room.
	lobby   *lobby.Service[*Client]
	clients map[string]*Client

	inbox   chan any
	stopped chan struct{}
}

type connectEvent struct{ client *Client }

type messageEvent struct {
	client *Client
	data   []byte
}

type disconnectEvent struct{ client *Client }

type queryEvent struct{ run func() }

// Stats is a point-in-time view of the relay.
type Stats struct {
	Connections int            `json:"connections"`
	Lobby       int            `json:"lobby"`
	Rooms       []room.Summary `json:"rooms"`
}

func NewServer(registry *room.Registry, tokens TokenIssuer) *Server {
	return &Server{
		registry: registry,
		tokens:   tokens,
		lobby:    lobby.NewService[*Client](),
		clients:  make(map[string]*Client),
		inbox:    make(chan any, 256),
		stopped:  make(chan struct{}),
	}
}

// Run processes events until ctx is done, then closes every client.
func (s *Server) Run(ctx context.Context) {
	defer close(s.stopped)

	for {
		select {
		case <-ctx.Done():
			for _, c := range s.clients {
				c.Close()
			}
			log.Printf("Relay stopped with %d connections", len(s.clients))
			return
		case ev := <-s.inbox:
			s.handle(ev)
		}
	}
}

func (s *Server) handle(ev any) {
	switch e := ev.(type) {
	case connectEvent:
		s.clients[e.client.ID] = e.client
		s.lobby.Add(e.client.ID, e.client)
		log.Printf("Client %s connected over %s", e.client.ID, e.client.Transport)
	case messageEvent:
		if _, ok := s.clients[e.client.ID]; !ok {
			return
		}
		s.dispatch(e.client, e.data)
	case disconnectEvent:
		s.disconnect(e.client)
	case queryEvent:
		e.run()
	}
}

func (s *Server) enqueue(ev any) bool {
	select {
	case s.inbox <- ev:
		return true
	case <-s.stopped:
		return false
	}
}

// Register admits a new connection into the lobby.
func (s *Server) Register(c *Client) {
	if !s.enqueue(connectEvent{client: c}) {
		c.Close()
	}
}

// Submit hands an inbound frame from c to the relay.
func (s *Server) Submit(c *Client, data []byte) {
	s.enqueue(messageEvent{client: c, data: data})
}

// Unregister reports that c's transport has gone away.
func (s *Server) Unregister(c *Client) {
	if !s.enqueue(disconnectEvent{client: c}) {
		c.Close()
	}
}

// query runs fn on the relay goroutine and waits for it.
func (s *Server) query(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	ev := queryEvent{run: func() {
		fn()
		close(done)
	}}

	select {
	case s.inbox <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}
}

func (s *Server) Rooms(ctx context.Context) ([]room.Summary, error) {
	var out []room.Summary
	err := s.query(ctx, func() { out = s.registry.List() })
	return out, err
}

// Roster returns the members of roomID, or false if there is no such room.
func (s *Server) Roster(ctx context.Context, roomID string) ([]models.RosterEntry, bool, error) {
	var (
		out   []models.RosterEntry
		found bool
	)
	err := s.query(ctx, func() {
		if rm, ok := s.registry.Get(roomID); ok {
			out, found = rm.Roster(), true
		}
	})
	return out, found, err
}

func (s *Server) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.query(ctx, func() {
		st = Stats{
			Connections: len(s.clients),
			Lobby:       s.lobby.Len(),
			Rooms:       s.registry.List(),
		}
	})
	return st, err
}

func (s *Server) disconnect(c *Client) {
	if _, ok := s.clients[c.ID]; !ok {
		return
	}
	delete(s.clients, c.ID)
	s.lobby.Remove(c.ID)
	defer c.Close()

	if c.roomID == "" {
		log.Printf("Client %s disconnected", c.ID)
		return
	}

	rem, err := s.registry.RemovePlayer(c.roomID, c.ID)
	c.roomID = ""
	if err != nil {
		log.Printf("Client %s disconnected: %v", c.ID, err)
		return
	}

	if rem.Closed {
		s.closeRoom(rem.Room, c.ID)
		return
	}
	s.broadcastRoster(rem.Room, rem.Player.Name, true)
}

// closeRoom tells every remaining human the room is gone and drops them.
func (s *Server) closeRoom(rm *room.Room, hostID string) {
	msg := mustEncode(roomClosed())
	for _, p := range rm.Players {
		if p.ID == hostID {
			continue
		}
		conn, ok := p.Conn()
		if !ok {
			continue
		}
		conn.Send(msg)
		conn.Close()
		if c, ok := s.clients[p.ID]; ok {
			c.roomID = ""
		}
	}
}
