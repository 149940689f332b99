// Package web renders the relay's HTML status page.
package web

import (
	"github.com/emilianodevborn/Snake-Red/room"
)

//go:generate templ generate

// Status is the view model behind StatusPage.
type Status struct {
	Connections int
	Lobby       int
	WebRTCPeers int
	Rooms       []room.Summary
}
