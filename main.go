package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/emilianodevborn/Snake-Red/auth"
	"github.com/emilianodevborn/Snake-Red/config"
	"github.com/emilianodevborn/Snake-Red/handlers"
	"github.com/emilianodevborn/Snake-Red/relay"
	"github.com/emilianodevborn/Snake-Red/room"
	"github.com/emilianodevborn/Snake-Red/webrtc"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	registry := room.NewRegistry(room.NewMemoryStore(), room.WithIDAttempts(cfg.RoomIDAttempts))
	relayServer := relay.NewServer(registry, issuer)
	go relayServer.Run(ctx)

	webrtcManager := webrtc.NewManager(webrtc.ICEConfig{
		STUNURLs:       cfg.STUNURLs,
		TURNURLs:       cfg.TURNURLs,
		TURNUsername:   cfg.TURNUsername,
		TURNCredential: cfg.TURNCredential,
	})

	wsHandler := handlers.NewWebSocketHandler(relayServer, cfg)
	webrtcHandler := handlers.NewWebRTCHandler(relayServer, webrtcManager, cfg)
	apiHandler := handlers.NewAPIHandler(relayServer, issuer, webrtcManager)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// WebSocket (lobby, relay)
	r.Handle("/ws", wsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))

		// Data channel transport
		r.Post("/webrtc/offer", webrtcHandler.HandleOffer)

		apiHandler.RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on %s", cfg.Addr())
	log.Printf("WebSocket endpoint: /ws")
	log.Printf("WebRTC offer endpoint: /webrtc/offer")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("Server stopped")
}
