package relay

import (
	"log"
	"strings"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/protocol"
	"github.com/emilianodevborn/Snake-Red/room"
)

func (s *Server) dispatch(c *Client, data []byte) {
	msgType, err := protocol.DecodeType(data)
	if err != nil {
		log.Printf("Dropping malformed message from %s: %v", c.ID, err)
		return
	}

	switch msgType {
	case constants.MSG_CREATE_ROOM:
		s.handleCreateRoom(c, data)
	case constants.MSG_JOIN_ROOM:
		s.handleJoinRoom(c, data)
	case constants.MSG_ADD_BOT:
		s.handleAddBot(c, data)
	case constants.MSG_CHANGE_COLOR:
		s.handleChangeColor(c, data)
	case constants.MSG_START_GAME:
		s.handleStartGame(c, data)
	case constants.MSG_GAME_STATE:
		s.handleGameState(c, data)
	case constants.MSG_INPUT:
		s.handleInput(c, data)
	case constants.MSG_OFFER, constants.MSG_ANSWER, constants.MSG_CANDIDATE:
		s.handleSignal(c, data)
	default:
		log.Printf("Ignoring unknown message type %q from %s", msgType, c.ID)
	}
}

func (s *Server) handleCreateRoom(c *Client, data []byte) {
	if c.roomID != "" {
		sendError(c, constants.ERR_ALREADY_IN_ROOM, "Already in a room")
		return
	}
	msg, err := protocol.Decode[protocol.CreateRoom](data)
	if err != nil {
		log.Printf("Dropping createRoom from %s: %v", c.ID, err)
		return
	}

	rm, host, err := s.registry.CreateRoom(c.ID, nameOr(msg.Name, constants.DEFAULT_HOST_NAME), c)
	if err != nil {
		log.Printf("Error creating room for %s: %v", c.ID, err)
		sendError(c, room.Code(err), err.Error())
		return
	}
	s.lobby.Remove(c.ID)
	c.roomID, c.name = rm.ID, host.Name

	send(c, protocol.RoomCreated{
		Type:       constants.MSG_ROOM_CREATED,
		RoomID:     rm.ID,
		Name:       host.Name,
		PlayerID:   host.ID,
		ColorIndex: host.ColorIndex,
		Token:      s.issueToken(host.ID, rm.ID, host.Name),
	})
	s.broadcastRoster(rm, "", false)
}

func nameOr(name, fallback string) string {
	if name = strings.TrimSpace(name); name == "" {
		return fallback
	}
	return name
}

func (s *Server) handleJoinRoom(c *Client, data []byte) {
	if c.roomID != "" {
		sendError(c, constants.ERR_ALREADY_IN_ROOM, "Already in a room")
		return
	}
	msg, err := protocol.Decode[protocol.JoinRoom](data)
	if err != nil {
		log.Printf("Dropping joinRoom from %s: %v", c.ID, err)
		return
	}

	rm, p, err := s.registry.JoinRoom(msg.RoomID, c.ID, nameOr(msg.Name, constants.DEFAULT_CLIENT_NAME), c)
	if err != nil {
		log.Printf("Join failed for %s: %v", c.ID, err)
		sendError(c, room.Code(err), err.Error())
		return
	}
	s.lobby.Remove(c.ID)
	c.roomID, c.name = rm.ID, p.Name

	send(c, protocol.PlayerConnected{
		Type:       constants.MSG_PLAYER_CONNECTED,
		PlayerName: p.Name,
		PlayerID:   p.ID,
		RoomID:     rm.ID,
		ColorIndex: p.ColorIndex,
		Token:      s.issueToken(p.ID, rm.ID, p.Name),
	})
	s.broadcastRoster(rm, p.Name, false)
}

func (s *Server) handleAddBot(c *Client, data []byte) {
	if !requireRoom(c) {
		return
	}
	msg, err := protocol.Decode[protocol.AddBot](data)
	if err != nil {
		log.Printf("Dropping addBot from %s: %v", c.ID, err)
		return
	}

	rm, bot, err := s.registry.AddBot(c.roomID, c.ID, msg.BotName, msg.BotDifficulty)
	if err != nil {
		log.Printf("addBot from %s rejected: %v", c.ID, err)
		sendError(c, room.Code(err), err.Error())
		return
	}
	s.broadcastRoster(rm, bot.Name, false)
}

func (s *Server) handleChangeColor(c *Client, data []byte) {
	if !requireRoom(c) {
		return
	}
	msg, err := protocol.Decode[protocol.ChangeColor](data)
	if err != nil {
		log.Printf("Dropping changeColor from %s: %v", c.ID, err)
		return
	}
	if msg.RoomID != "" && msg.RoomID != c.roomID {
		sendError(c, constants.ERR_NOT_IN_ROOM, "Not a member of room "+msg.RoomID)
		return
	}
	playerID := msg.PlayerID
	if playerID == "" {
		playerID = c.ID
	}

	rm, err := s.registry.ChangeColor(c.roomID, c.ID, playerID, msg.NewColorIndex)
	if err != nil {
		log.Printf("changeColor from %s rejected: %v", c.ID, err)
		sendError(c, room.Code(err), err.Error())
		return
	}
	s.broadcastRoster(rm, "", false)
}

func (s *Server) handleStartGame(c *Client, data []byte) {
	rm, ok := s.memberRoom(c)
	if !ok {
		return
	}
	if rm.HostID != c.ID {
		sendError(c, constants.ERR_UNAUTHORIZED, "Only the host can start the game")
		return
	}
	log.Printf("Room %s starting with %d players", rm.ID, len(rm.Players))
	broadcast(rm, data, "")
}

func (s *Server) handleGameState(c *Client, data []byte) {
	rm, ok := s.memberRoom(c)
	if !ok {
		return
	}
	broadcast(rm, data, "")
}

// handleInput forwards a client's direction change to the host only.
func (s *Server) handleInput(c *Client, data []byte) {
	rm, ok := s.memberRoom(c)
	if !ok {
		return
	}
	if rm.HostID == c.ID {
		return
	}
	if host, ok := rm.Host().Conn(); ok {
		host.Send(data)
	}
}

// handleSignal relays WebRTC negotiation: host to clients, client to host.
func (s *Server) handleSignal(c *Client, data []byte) {
	rm, ok := s.memberRoom(c)
	if !ok {
		return
	}
	if rm.HostID != c.ID {
		if host, ok := rm.Host().Conn(); ok {
			host.Send(data)
		}
		return
	}

	sig, err := protocol.Decode[protocol.Signal](data)
	if err != nil {
		log.Printf("Dropping signal from %s: %v", c.ID, err)
		return
	}
	if sig.Target != "" {
		if p := rm.Player(sig.Target); p != nil {
			if conn, ok := p.Conn(); ok {
				conn.Send(data)
			}
		}
		return
	}
	broadcast(rm, data, c.ID)
}

func (s *Server) memberRoom(c *Client) (*room.Room, bool) {
	if !requireRoom(c) {
		return nil, false
	}
	rm, ok := s.registry.Get(c.roomID)
	if !ok {
		c.roomID = ""
		sendError(c, constants.ERR_ROOM_NOT_FOUND, "Room no longer exists")
		return nil, false
	}
	return rm, true
}

func (s *Server) broadcastRoster(rm *room.Room, name string, disconnected bool) {
	broadcast(rm, mustEncode(protocol.PlayerList{
		Type:          constants.MSG_PLAYER_LIST,
		Players:       rm.Roster(),
		RoomID:        rm.ID,
		NewPlayerName: name,
		Disconnected:  disconnected,
		ShowToast:     name != "",
	}), "")
}

func (s *Server) issueToken(playerID, roomID, name string) string {
	if s.tokens == nil {
		return ""
	}
	token, err := s.tokens.Issue(playerID, roomID, name)
	if err != nil {
		log.Printf("Error issuing token for %s: %v", playerID, err)
		return ""
	}
	return token
}

func requireRoom(c *Client) bool {
	if c.roomID == "" {
		sendError(c, constants.ERR_NOT_IN_ROOM, "Join a room first")
		return false
	}
	return true
}

// broadcast sends data to every human in rm except the member with id skip.
func broadcast(rm *room.Room, data []byte, skip string) {
	for _, p := range rm.Players {
		if p.ID == skip {
			continue
		}
		switch part := p.Participant.(type) {
		case room.Human:
			if part.Conn != nil {
				part.Conn.Send(data)
			}
		case room.Bot:
			// Simulated by the host; nothing to deliver.
		}
	}
}

func send(c *Client, msg any) {
	c.Send(mustEncode(msg))
}

func sendError(c *Client, code, message string) {
	send(c, protocol.NewError(code, message))
}

func roomClosed() protocol.RoomClosed {
	return protocol.RoomClosed{Type: constants.MSG_ROOM_CLOSED}
}

func mustEncode(msg any) []byte {
	return protocol.MustEncode(msg)
}
