// Command host plays Snake through a relay without a browser. By default it
// creates a room, adds bots and runs the authoritative simulation; with
// -join it joins an existing room and steers with the autopilot.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/host"
	"github.com/emilianodevborn/Snake-Red/models"
)

var (
	serverURL     = flag.String("server", "ws://localhost:8080/ws", "Relay websocket URL")
	name          = flag.String("name", "Host", "Player name")
	bots          = flag.Int("bots", 1, "Bots to add to a new room")
	botDifficulty = flag.String("bot-difficulty", string(constants.BOT_HARD), "Bot difficulty (easy, hard)")
	difficulty    = flag.String("difficulty", string(constants.DEFAULT_DIFFICULTY), "Game difficulty (1, 2, 3)")
	wait          = flag.Duration("wait", 10*time.Second, "How long to wait in the lobby before starting")
	rounds        = flag.Int("rounds", 1, "Rounds to play before closing the room")
	join          = flag.String("join", "", "Room code to join instead of hosting")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := newDisplay()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := host.Dial(dialCtx, *serverURL)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *serverURL, err)
	}
	defer client.Close()

	if *join != "" {
		err = runClient(ctx, client, d)
	} else {
		err = runHost(ctx, client, d)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		d.fail(err)
		os.Exit(1)
	}
}

func runHost(ctx context.Context, client *host.Client, d *display) error {
	if _, ok := constants.DIFFICULTY_LEVELS[constants.Difficulty(*difficulty)]; !ok {
		log.Printf("Unknown difficulty %q, using %s", *difficulty, constants.DEFAULT_DIFFICULTY)
		*difficulty = string(constants.DEFAULT_DIFFICULTY)
	}

	return host.RunHost(ctx, client, host.HostOptions{
		Name:          *name,
		Bots:          *bots,
		BotDifficulty: constants.BotDifficulty(*botDifficulty),
		Difficulty:    constants.Difficulty(*difficulty),
		LobbyWait:     *wait,
		Rounds:        *rounds,
		OnRoomCreated: func(roomID string) {
			d.localPlayer = client.PlayerID()
			d.roomCreated(roomID)
		},
		OnRoster: d.roster,
		OnRoundOver: func(round int, gs *models.GameState) {
			d.scoreboard(round, gs)
		},
	})
}

func runClient(ctx context.Context, client *host.Client, d *display) error {
	d.info("Joining room %s as %s", *join, *name)

	over, round := false, 0
	err := host.RunClient(ctx, client, host.ClientOptions{
		Name:      *name,
		RoomID:    *join,
		Autopilot: true,
		OnState: func(gs *models.GameState) {
			if d.localPlayer == "" {
				d.localPlayer = client.PlayerID()
			}
			if gs.IsGameOver && !over {
				round++
				d.scoreboard(round, gs)
			}
			over = gs.IsGameOver
		},
	})
	if errors.Is(err, host.ErrRoomClosed) {
		d.info("The host closed the room")
		return nil
	}
	return err
}
