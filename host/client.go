// Package host connects a headless participant to the relay over a
// websocket. As a room host it publishes snapshots from a session; as a
// client it mirrors them.
package host

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
	"github.com/emilianodevborn/Snake-Red/protocol"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

var ErrClosed = errors.New("connection closed")

// Event is one inbound relay message.
type Event struct {
	Type string
	Raw  []byte
}

type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	events chan Event
	done   chan struct{}

	closeOnce sync.Once

	mu       sync.RWMutex
	playerID string
	roomID   string
	token    string
}

// Dial connects to the relay's websocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()
	return c, nil
}

// Events yields inbound messages and is closed when the connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.conn.Close()
	})
	return nil
}

func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// Token is the session token from roomCreated or playerConnected.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) CreateRoom(name string) error {
	return c.write(protocol.CreateRoom{Type: constants.MSG_CREATE_ROOM, Name: name})
}

func (c *Client) JoinRoom(roomID, name string) error {
	return c.write(protocol.JoinRoom{Type: constants.MSG_JOIN_ROOM, RoomID: roomID, Name: name})
}

func (c *Client) AddBot(name string, difficulty constants.BotDifficulty) error {
	return c.write(protocol.AddBot{Type: constants.MSG_ADD_BOT, BotName: name, BotDifficulty: difficulty})
}

func (c *Client) ChangeColor(playerID string, slot int) error {
	return c.write(protocol.ChangeColor{
		Type:          constants.MSG_CHANGE_COLOR,
		RoomID:        c.RoomID(),
		PlayerID:      playerID,
		NewColorIndex: slot,
	})
}

func (c *Client) StartGame() error {
	return c.write(protocol.StartGame{Type: constants.MSG_START_GAME})
}

func (c *Client) SendInput(dir models.Direction) error {
	return c.write(protocol.NewInput(c.PlayerID(), dir))
}

// PublishState sends a snapshot for the relay to fan out.
func (c *Client) PublishState(gs *models.GameState) error {
	return c.write(protocol.NewGameState(gs))
}

func (c *Client) write(msg any) error {
	b, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	case c.send <- b:
		return nil
	}
}

func (c *Client) readLoop() {
	defer func() {
		close(c.events)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPingHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Relay connection error: %v", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msgType, err := protocol.DecodeType(message)
		if err != nil {
			log.Printf("Dropping malformed message from relay: %v", err)
			continue
		}
		c.track(msgType, message)

		select {
		case c.events <- Event{Type: msgType, Raw: message}:
		case <-c.done:
			return
		}
	}
}

// track records our own identity from the join replies.
func (c *Client) track(msgType string, raw []byte) {
	switch msgType {
	case constants.MSG_ROOM_CREATED:
		if m, err := protocol.Decode[protocol.RoomCreated](raw); err == nil {
			c.setIdentity(m.PlayerID, m.RoomID, m.Token)
		}
	case constants.MSG_PLAYER_CONNECTED:
		if m, err := protocol.Decode[protocol.PlayerConnected](raw); err == nil {
			c.setIdentity(m.PlayerID, m.RoomID, m.Token)
		}
	case constants.MSG_ROOM_CLOSED:
		c.setIdentity("", "", "")
	}
}

func (c *Client) setIdentity(playerID, roomID, token string) {
	c.mu.Lock()
	c.playerID, c.roomID, c.token = playerID, roomID, token
	c.mu.Unlock()
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Printf("Relay write error: %v", err)
				c.Close()
				return
			}
		}
	}
}
