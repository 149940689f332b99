package models

import (
	"github.com/emilianodevborn/Snake-Red/constants"
)

// Coordinate is a grid cell.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coordinate) Add(d Direction) Coordinate {
	return Coordinate{X: c.X + d.X, Y: c.Y + d.Y}
}

// Direction is a unit heading vector on the grid.
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	UP    = Direction{X: 0, Y: -1}
	DOWN  = Direction{X: 0, Y: 1}
	LEFT  = Direction{X: -1, Y: 0}
	RIGHT = Direction{X: 1, Y: 0}
)

// CLOCKWISE lists headings in clockwise order starting from RIGHT.
var CLOCKWISE = [4]Direction{RIGHT, DOWN, LEFT, UP}

func (d Direction) Opposite() Direction {
	return Direction{X: -d.X, Y: -d.Y}
}

// IsUnit reports whether d is one of the four grid headings.
func (d Direction) IsUnit() bool {
	for _, c := range CLOCKWISE {
		if c == d {
			return true
		}
	}
	return false
}

// Segment is one snake cell with the heading it was entered with.
type Segment struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Direction Direction `json:"direction"`
}

func (s Segment) Coordinate() Coordinate {
	return Coordinate{X: s.X, Y: s.Y}
}

type Snake struct {
	ID          string    `json:"id"`
	Segments    []Segment `json:"segments"`
	Direction   Direction `json:"direction"`
	SpeedFactor int       `json:"speedFactor"`
	IsBot       bool      `json:"isBot"`
	ColorIndex  int       `json:"colorIndex"`

	BotDifficulty constants.BotDifficulty `json:"botDifficulty,omitempty"`
}

func (s *Snake) Head() Coordinate {
	return s.Segments[0].Coordinate()
}

// Occupies reports whether any segment of s sits on c.
func (s *Snake) Occupies(c Coordinate) bool {
	for _, seg := range s.Segments {
		if seg.X == c.X && seg.Y == c.Y {
			return true
		}
	}
	return false
}

type Food struct {
	Coordinates Coordinate `json:"coordinates"`
	Sprite      string     `json:"sprite"`
}

type Score struct {
	PlayerID string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// GameState is the authoritative snapshot replicated host -> relay -> peers.
type GameState struct {
	Snakes        []Snake      `json:"snakes"`
	Food          []Food       `json:"food"`
	Obstacles     []Coordinate `json:"obstacles"`
	ConsumedFood  int          `json:"consumedFood"`
	IsGameOver    bool         `json:"isGameOver"`
	IsMultiplayer bool         `json:"isMultiplayer"`
	Scores        []Score      `json:"scores"`
}

// Snake returns the live snake for id, or nil.
func (gs *GameState) Snake(id string) *Snake {
	for i := range gs.Snakes {
		if gs.Snakes[i].ID == id {
			return &gs.Snakes[i]
		}
	}
	return nil
}

// ScoreOf returns the current score for playerID.
func (gs *GameState) ScoreOf(playerID string) int {
	for _, s := range gs.Scores {
		if s.PlayerID == playerID {
			return s.Score
		}
	}
	return 0
}

// HumanCount counts live snakes that are not bots.
func (gs *GameState) HumanCount() int {
	n := 0
	for _, s := range gs.Snakes {
		if !s.IsBot {
			n++
		}
	}
	return n
}

// RosterEntry is one member of a room as shown in playerList.
type RosterEntry struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	ColorIndex    int                     `json:"colorIndex"`
	IsBot         bool                    `json:"isBot"`
	IsHost        bool                    `json:"isHost,omitempty"`
	BotDifficulty constants.BotDifficulty `json:"botDifficulty,omitempty"`
}
