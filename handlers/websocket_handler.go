package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/emilianodevborn/Snake-Red/config"
	"github.com/emilianodevborn/Snake-Red/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketHandler bridges websocket connections into the relay.
type WebSocketHandler struct {
	relay    *relay.Server
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(rs *relay.Server, cfg *config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		relay: rs,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cfg.OriginAllowed(origin)
			},
		},
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := relay.NewClient(uuid.New().String(), "websocket", h.cfg.SendBuffer)
	h.relay.Register(client)

	go h.writePump(client, conn)
	h.readPump(client, conn)
}

func (h *WebSocketHandler) readPump(client *relay.Client, conn *websocket.Conn) {
	defer func() {
		h.relay.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for %s: %v", client.ID, err)
			}
			break
		}
		h.relay.Submit(client, message)
	}
}

// writePump sends one frame per queued message. Once the relay closes the
// client it flushes what is still queued and closes the socket.
func (h *WebSocketHandler) writePump(client *relay.Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message := <-client.Outbound():
			if err := writeFrame(conn, message); err != nil {
				return
			}
		case <-client.Done():
			for {
				select {
				case message := <-client.Outbound():
					if err := writeFrame(conn, message); err != nil {
						return
					}
				default:
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, message []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, message)
}
