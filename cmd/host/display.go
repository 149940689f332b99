package main

import (
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/emilianodevborn/Snake-Red/models"
)

type display struct {
	roomColor   *color.Color
	lobbyColor  *color.Color
	scoreColor  *color.Color
	winColor    *color.Color
	errorColor  *color.Color
	infoColor   *color.Color
	localPlayer string
}

func newDisplay() *display {
	return &display{
		roomColor:  color.New(color.FgCyan, color.Bold),
		lobbyColor: color.New(color.FgGreen),
		scoreColor: color.New(color.FgYellow),
		winColor:   color.New(color.FgGreen, color.Bold),
		errorColor: color.New(color.FgRed, color.Bold),
		infoColor:  color.New(color.FgWhite),
	}
}

func stamp() string {
	return time.Now().Format("15:04:05")
}

func (d *display) roomCreated(roomID string) {
	d.roomColor.Printf("[%s] [ROOM] Share this code to join: %s\n", stamp(), roomID)
}

func (d *display) roster(players []models.RosterEntry) {
	d.lobbyColor.Printf("[%s] [LOBBY] %d in room:", stamp(), len(players))
	for _, p := range players {
		tag := ""
		switch {
		case p.IsHost:
			tag = " (host)"
		case p.IsBot:
			tag = " (" + string(p.BotDifficulty) + " bot)"
		}
		d.lobbyColor.Printf(" %s%s", p.Name, tag)
	}
	d.lobbyColor.Println()
}

func (d *display) info(format string, args ...any) {
	d.infoColor.Printf("[%s] "+format+"\n", append([]any{stamp()}, args...)...)
}

func (d *display) fail(err error) {
	d.errorColor.Printf("[%s] [ERROR] %v\n", stamp(), err)
}

// scoreboard prints the final scores, best first.
func (d *display) scoreboard(round int, gs *models.GameState) {
	scores := append([]models.Score(nil), gs.Scores...)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	d.roomColor.Printf("[%s] [GAME OVER] Round %d\n", stamp(), round)
	for i, s := range scores {
		c := d.scoreColor
		if i == 0 {
			c = d.winColor
		}
		marker := " "
		if s.PlayerID == d.localPlayer {
			marker = "*"
		}
		c.Printf("  %s %-16s %6d\n", marker, s.Name, s.Score)
	}
}
