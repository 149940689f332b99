// Package protocol is the wire contract between relay, host and clients:
// flat JSON objects discriminated by their "type" field.
package protocol

import (
	"encoding/json"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// Envelope is the part of every message the relay dispatches on.
type Envelope struct {
	Type string `json:"type"`
}

type CreateRoom struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type RoomCreated struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId"`
	Name       string `json:"name"`
	PlayerID   string `json:"playerId"`
	ColorIndex int    `json:"colorIndex"`
	Token      string `json:"token,omitempty"`
}

type JoinRoom struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type PlayerConnected struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
	RoomID     string `json:"roomId"`
	ColorIndex int    `json:"colorIndex"`
	Token      string `json:"token,omitempty"`
}

// PlayerList is broadcast on every membership change.
type PlayerList struct {
	Type          string               `json:"type"`
	Players       []models.RosterEntry `json:"players"`
	RoomID        string               `json:"roomId"`
	NewPlayerName string               `json:"newPlayerName,omitempty"`
	Disconnected  bool                 `json:"disconnected"`
	ShowToast     bool                 `json:"showToast"`
}

type AddBot struct {
	Type          string                  `json:"type"`
	BotName       string                  `json:"botName"`
	BotDifficulty constants.BotDifficulty `json:"botDifficulty"`
}

type ChangeColor struct {
	Type          string `json:"type"`
	RoomID        string `json:"roomId"`
	PlayerID      string `json:"playerId"`
	NewColorIndex int    `json:"newColorIndex"`
}

type StartGame struct {
	Type string `json:"type"`
}

// Input carries a direction change for player ID, client to host.
type Input struct {
	Type      string           `json:"type"`
	ID        string           `json:"id"`
	Direction models.Direction `json:"direction"`
}

type GameState struct {
	Type  string            `json:"type"`
	State *models.GameState `json:"state"`
}

// Signal is an offer, answer or candidate. The relay never looks inside
// the payload; Target optionally addresses one peer.
type Signal struct {
	Type    string          `json:"type"`
	From    string          `json:"from,omitempty"`
	Target  string          `json:"target,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type RoomClosed struct {
	Type string `json:"type"`
}

func NewError(code, message string) Error {
	return Error{Type: constants.MSG_ERROR, Message: message, Code: code}
}

func NewGameState(gs *models.GameState) GameState {
	return GameState{Type: constants.MSG_GAME_STATE, State: gs}
}

func NewInput(playerID string, dir models.Direction) Input {
	return Input{Type: constants.MSG_INPUT, ID: playerID, Direction: dir}
}
