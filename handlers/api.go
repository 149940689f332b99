package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/emilianodevborn/Snake-Red/auth"
	"github.com/emilianodevborn/Snake-Red/models"
	"github.com/emilianodevborn/Snake-Red/relay"
	"github.com/emilianodevborn/Snake-Red/web"
	webrtcManager "github.com/emilianodevborn/Snake-Red/webrtc"
)

type roomResponse struct {
	RoomID  string               `json:"roomId"`
	Players []models.RosterEntry `json:"players"`
}

// APIHandler serves the read-only room API and the status page.
type APIHandler struct {
	relay  *relay.Server
	issuer *auth.Issuer
	peers  *webrtcManager.Manager
}

func NewAPIHandler(rs *relay.Server, issuer *auth.Issuer, peers *webrtcManager.Manager) *APIHandler {
	return &APIHandler{relay: rs, issuer: issuer, peers: peers}
}

func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.status)
	r.Get("/healthz", h.health)
	r.Route("/api/rooms", func(r chi.Router) {
		r.Get("/", h.listRooms)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.issuer))
			r.Use(auth.RequireRoom(func(req *http.Request) string {
				return chi.URLParam(req, "roomID")
			}))
			r.Get("/{roomID}", h.getRoom)
		})
	})
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *APIHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.relay.Rooms(r.Context())
	if err != nil {
		http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *APIHandler) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	roster, found, err := h.relay.Roster(r.Context(), roomID)
	if err != nil {
		http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{RoomID: roomID, Players: roster})
}

func (h *APIHandler) status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.relay.Stats(r.Context())
	if err != nil {
		http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
		return
	}
	view := web.Status{
		Connections: stats.Connections,
		Lobby:       stats.Lobby,
		Rooms:       stats.Rooms,
	}
	if h.peers != nil {
		view.WebRTCPeers = h.peers.Len()
	}
	render(w, r, web.StatusPage(view))
}

func render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
