package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/emilianodevborn/Snake-Red/config"
	"github.com/emilianodevborn/Snake-Red/relay"
	webrtcManager "github.com/emilianodevborn/Snake-Red/webrtc"
)

const answerTimeout = 10 * time.Second

type sessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type offerRequest struct {
	Name  string             `json:"name"`
	Offer sessionDescription `json:"offer"`
}

type offerResponse struct {
	PeerID string             `json:"peerId"`
	Answer sessionDescription `json:"answer"`
}

// WebRTCHandler lets a browser reach the relay over a data channel instead
// of a websocket. Every text message on the channel is a relay frame.
type WebRTCHandler struct {
	relay         *relay.Server
	webrtcManager *webrtcManager.Manager
	cfg           *config.Config
}

func NewWebRTCHandler(rs *relay.Server, webrtcManager *webrtcManager.Manager, cfg *config.Config) *WebRTCHandler {
	return &WebRTCHandler{
		relay:         rs,
		webrtcManager: webrtcManager,
		cfg:           cfg,
	}
}

// HandleOffer handles WebRTC offer from client
func (h *WebRTCHandler) HandleOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.cfg.MaxMessageSize)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if req.Offer.Type != "" && req.Offer.Type != "offer" {
		http.Error(w, "Expected an offer", http.StatusBadRequest)
		return
	}

	id := uuid.New().String()
	client := relay.NewClient(id, "webrtc", h.cfg.SendBuffer)

	peer, err := h.webrtcManager.CreatePeerConnection(id, req.Name, webrtcManager.PeerHandler{
		OnOpen: func(p *webrtcManager.PeerConnection) {
			h.relay.Register(client)
			go h.pump(client, p)
		},
		OnMessage: func(p *webrtcManager.PeerConnection, data []byte) {
			h.relay.Submit(client, data)
		},
		OnClose: func(p *webrtcManager.PeerConnection) {
			h.relay.Unregister(client)
			client.Close()
		},
	})
	if err != nil {
		http.Error(w, "Failed to create peer connection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), answerTimeout)
	defer cancel()

	answer, err := h.webrtcManager.Answer(ctx, peer, req.Offer.SDP)
	if err != nil {
		log.Printf("WebRTC negotiation failed for %s: %v", req.Name, err)
		h.webrtcManager.RemovePeer(id)
		http.Error(w, "Failed to negotiate peer connection", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, offerResponse{
		PeerID: id,
		Answer: sessionDescription{Type: answer.Type.String(), SDP: answer.SDP},
	})
}

// pump drains the client's queue onto the data channel until the relay
// closes the client, then tears the peer down.
func (h *WebRTCHandler) pump(client *relay.Client, peer *webrtcManager.PeerConnection) {
	for {
		select {
		case message := <-client.Outbound():
			if err := peer.Send(message); err != nil {
				log.Printf("DataChannel send to %s failed: %v", client.ID, err)
			}
		case <-client.Done():
			for {
				select {
				case message := <-client.Outbound():
					peer.Send(message)
				default:
					h.webrtcManager.RemovePeer(client.ID)
					return
				}
			}
		}
	}
}
