package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/room"
)

type fakeIssuer struct{}

func (fakeIssuer) Issue(playerID, roomID, name string) (string, error) {
	return "token-" + roomID + "-" + playerID, nil
}

func startServer(t *testing.T) *Server {
	t.Helper()
	reg := room.NewRegistry(room.NewMemoryStore(), room.WithRoomIDGenerator(func() string { return "ROOMA" }))
	s := NewServer(reg, fakeIssuer{})
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)
	return s
}

func connect(s *Server, id string) *Client {
	c := NewClient(id, "test", 64)
	s.Register(c)
	return c
}

func recvRaw(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case b := <-c.Outbound():
		return b
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message to %s", c.ID)
		return nil
	}
}

func recv(t *testing.T, c *Client) map[string]any {
	t.Helper()
	var msg map[string]any
	require.NoError(t, json.Unmarshal(recvRaw(t, c), &msg))
	return msg
}

// barrier returns once every event submitted before it has been handled.
func barrier(t *testing.T, s *Server) {
	t.Helper()
	_, err := s.Stats(context.Background())
	require.NoError(t, err)
}

func assertSilent(t *testing.T, s *Server, clients ...*Client) {
	t.Helper()
	barrier(t, s)
	for _, c := range clients {
		assert.Len(t, c.Outbound(), 0, "unexpected message for %s", c.ID)
	}
}

func submit(s *Server, c *Client, raw string) {
	s.Submit(c, []byte(raw))
}

// setupRoom creates ROOMA hosted by "host" and joins the given clients,
// draining the join traffic.
func setupRoom(t *testing.T, s *Server, clientIDs ...string) (*Client, []*Client) {
	t.Helper()
	host := connect(s, "host")
	submit(s, host, `{"type":"createRoom","name":"Ana"}`)
	require.Equal(t, constants.MSG_ROOM_CREATED, recv(t, host)["type"])
	require.Equal(t, constants.MSG_PLAYER_LIST, recv(t, host)["type"])

	clients := make([]*Client, 0, len(clientIDs))
	for _, id := range clientIDs {
		c := connect(s, id)
		submit(s, c, `{"type":"joinRoom","roomId":"ROOMA","name":"`+id+`"}`)
		require.Equal(t, constants.MSG_PLAYER_CONNECTED, recv(t, c)["type"])
		require.Equal(t, constants.MSG_PLAYER_LIST, recv(t, c)["type"])
		require.Equal(t, constants.MSG_PLAYER_LIST, recv(t, host)["type"])
		for _, prev := range clients {
			require.Equal(t, constants.MSG_PLAYER_LIST, recv(t, prev)["type"])
		}
		clients = append(clients, c)
	}
	return host, clients
}

func TestCreateAndJoin(t *testing.T) {
	s := startServer(t)
	host := connect(s, "host")

	submit(s, host, `{"type":"createRoom","name":"Ana"}`)

	created := recv(t, host)
	assert.Equal(t, "roomCreated", created["type"])
	assert.Equal(t, "ROOMA", created["roomId"])
	assert.Equal(t, "host", created["playerId"])
	assert.Equal(t, float64(0), created["colorIndex"])
	assert.Equal(t, "token-ROOMA-host", created["token"])
	assert.Equal(t, "playerList", recv(t, host)["type"])

	guest := connect(s, "guest")
	submit(s, guest, `{"type":"joinRoom","roomId":"ROOMA","name":"Leo"}`)

	joined := recv(t, guest)
	assert.Equal(t, "playerConnected", joined["type"])
	assert.Equal(t, "Leo", joined["playerName"])
	assert.Equal(t, "guest", joined["playerId"])
	assert.Equal(t, "token-ROOMA-guest", joined["token"])

	list := recv(t, host)
	assert.Equal(t, "playerList", list["type"])
	assert.Equal(t, "Leo", list["newPlayerName"])
	assert.Equal(t, true, list["showToast"])
	assert.Equal(t, false, list["disconnected"])
	players := list["players"].([]any)
	require.Len(t, players, 2)
	assert.Equal(t, float64(1), players[1].(map[string]any)["colorIndex"])

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Connections)
	assert.Equal(t, 0, stats.Lobby)
	require.Len(t, stats.Rooms, 1)
	assert.Equal(t, 2, stats.Rooms[0].Players)
}

func TestBlankNamesGetDefaults(t *testing.T) {
	s := startServer(t)
	host := connect(s, "host")
	submit(s, host, `{"type":"createRoom","name":"  "}`)
	assert.Equal(t, constants.DEFAULT_HOST_NAME, recv(t, host)["name"])
	recv(t, host)

	guest := connect(s, "guest")
	submit(s, guest, `{"type":"joinRoom","roomId":"ROOMA"}`)
	assert.Equal(t, constants.DEFAULT_CLIENT_NAME, recv(t, guest)["playerName"])

	roster, ok, err := s.Roster(context.Background(), "ROOMA")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, roster, 2)
	assert.Equal(t, "Host", roster[0].Name)
	assert.Equal(t, "Cliente", roster[1].Name)
}

func TestJoinUnknownRoom(t *testing.T) {
	s := startServer(t)
	host, _ := setupRoom(t, s)
	c := connect(s, "lost")

	submit(s, c, `{"type":"joinRoom","roomId":"NOPE1","name":"Leo"}`)

	msg := recv(t, c)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, constants.ERR_ROOM_NOT_FOUND, msg["code"])
	assertSilent(t, s, host)

	roster, found, err := s.Roster(context.Background(), "ROOMA")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, roster, 1)

	// Connection stays usable for a retry.
	submit(s, c, `{"type":"joinRoom","roomId":"ROOMA","name":"Leo"}`)
	assert.Equal(t, "playerConnected", recv(t, c)["type"])
}

func TestAlreadyInRoom(t *testing.T) {
	s := startServer(t)
	host, _ := setupRoom(t, s)

	submit(s, host, `{"type":"joinRoom","roomId":"ROOMA","name":"Again"}`)

	msg := recv(t, host)
	assert.Equal(t, constants.ERR_ALREADY_IN_ROOM, msg["code"])
}

func TestInputGoesToHostOnly(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1", "c2")
	raw := `{"type":"input","id":"c1","direction":{"x":0,"y":-1}}`

	submit(s, clients[0], raw)

	assert.JSONEq(t, raw, string(recvRaw(t, host)))
	assertSilent(t, s, clients...)
}

func TestInputFromHostIsDropped(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1")

	submit(s, host, `{"type":"input","id":"host","direction":{"x":1,"y":0}}`)

	assertSilent(t, s, host, clients[0])
}

func TestGameStateBroadcastVerbatim(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1", "c2")
	raw := `{"type":"gameState","state":{"snakes":[],"food":[],"obstacles":[],"consumedFood":3,"isGameOver":false,"isMultiplayer":true,"scores":[]}}`

	submit(s, host, raw)

	assert.Equal(t, raw, string(recvRaw(t, host)))
	for _, c := range clients {
		assert.Equal(t, raw, string(recvRaw(t, c)))
	}
}

func TestStartGameHostOnly(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1")

	submit(s, clients[0], `{"type":"startGame"}`)
	msg := recv(t, clients[0])
	assert.Equal(t, constants.ERR_UNAUTHORIZED, msg["code"])
	assertSilent(t, s, host)

	submit(s, host, `{"type":"startGame"}`)
	assert.Equal(t, "startGame", recv(t, host)["type"])
	assert.Equal(t, "startGame", recv(t, clients[0])["type"])
}

func TestAddBot(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1")

	submit(s, clients[0], `{"type":"addBot","botName":"Rex","botDifficulty":"hard"}`)
	assert.Equal(t, constants.ERR_UNAUTHORIZED, recv(t, clients[0])["code"])
	assertSilent(t, s, host)

	submit(s, host, `{"type":"addBot","botName":"Rex","botDifficulty":"hard"}`)
	list := recv(t, clients[0])
	assert.Equal(t, "playerList", list["type"])
	players := list["players"].([]any)
	require.Len(t, players, 3)
	bot := players[2].(map[string]any)
	assert.Equal(t, true, bot["isBot"])
	assert.Equal(t, "hard", bot["botDifficulty"])
	assert.Equal(t, float64(2), bot["colorIndex"])
	assert.Equal(t, "playerList", recv(t, host)["type"])
}

func TestChangeColor(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1")

	submit(s, clients[0], `{"type":"changeColor","roomId":"ROOMA","playerId":"c1","newColorIndex":0}`)
	msg := recv(t, clients[0])
	assert.Equal(t, constants.ERR_SLOT_TAKEN, msg["code"])
	assertSilent(t, s, host)

	submit(s, clients[0], `{"type":"changeColor","roomId":"ROOMA","playerId":"c1","newColorIndex":4}`)
	list := recv(t, host)
	players := list["players"].([]any)
	assert.Equal(t, float64(4), players[1].(map[string]any)["colorIndex"])
	recv(t, clients[0])

	submit(s, clients[0], `{"type":"changeColor","roomId":"OTHER","playerId":"c1","newColorIndex":5}`)
	assert.Equal(t, constants.ERR_NOT_IN_ROOM, recv(t, clients[0])["code"])
}

func TestSignalRouting(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1", "c2")

	offer := `{"type":"offer","from":"c1","payload":{"sdp":"v=0"}}`
	submit(s, clients[0], offer)
	assert.Equal(t, offer, string(recvRaw(t, host)))
	assertSilent(t, s, clients...)

	candidate := `{"type":"candidate","payload":{"candidate":"x"}}`
	submit(s, host, candidate)
	for _, c := range clients {
		assert.Equal(t, candidate, string(recvRaw(t, c)))
	}
	assertSilent(t, s, host)

	answer := `{"type":"answer","target":"c2","payload":{"sdp":"v=0"}}`
	submit(s, host, answer)
	assert.Equal(t, answer, string(recvRaw(t, clients[1])))
	assertSilent(t, s, host, clients[0])
}

func TestNotInRoom(t *testing.T) {
	s := startServer(t)
	c := connect(s, "c")

	submit(s, c, `{"type":"gameState","state":{}}`)

	assert.Equal(t, constants.ERR_NOT_IN_ROOM, recv(t, c)["code"])
}

func TestMalformedAndUnknownMessagesAreDropped(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1")

	submit(s, clients[0], `{"type":`)
	submit(s, clients[0], `{"type":"dance"}`)
	submit(s, clients[0], ``)
	assertSilent(t, s, host, clients[0])

	submit(s, clients[0], `{"type":"input","id":"c1","direction":{"x":1,"y":0}}`)
	assert.Equal(t, "input", recv(t, host)["type"])
}

func TestClientDisconnectRebroadcastsRoster(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1", "c2")

	s.Unregister(clients[0])

	list := recv(t, host)
	assert.Equal(t, "playerList", list["type"])
	assert.Equal(t, true, list["disconnected"])
	assert.Equal(t, "c1", list["newPlayerName"])
	assert.Len(t, list["players"].([]any), 2)
	assert.Equal(t, "playerList", recv(t, clients[1])["type"])

	select {
	case <-clients[0].Done():
	case <-time.After(time.Second):
		t.Fatal("departed client not closed")
	}
}

func TestHostDisconnectClosesRoom(t *testing.T) {
	s := startServer(t)
	host, clients := setupRoom(t, s, "c1", "c2")

	s.Unregister(host)

	for _, c := range clients {
		assert.Equal(t, "roomClosed", recv(t, c)["type"])
		select {
		case <-c.Done():
		case <-time.After(time.Second):
			t.Fatalf("client %s not closed", c.ID)
		}
	}
	rooms, err := s.Rooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, found, err := s.Roster(context.Background(), "ROOMA")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoppedServer(t *testing.T) {
	reg := room.NewRegistry(room.NewMemoryStore())
	s := NewServer(reg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	c := connect(s, "c")
	barrier(t, s)

	cancel()
	<-done

	_, err := s.Rooms(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, c.Send([]byte("x")), ErrClientClosed)
}

func TestClientSendBufferFull(t *testing.T) {
	c := NewClient("c", "test", 1)

	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), ErrSendBuffer)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send([]byte("c")), ErrClientClosed)
}
