package room

import (
	"errors"

	"github.com/emilianodevborn/Snake-Red/constants"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSlotsExhausted  = errors.New("room is full")
	ErrBotsExhausted   = errors.New("bot limit reached")
	ErrNotHost         = errors.New("only the host can do that")
	ErrSlotTaken       = errors.New("color already taken")
	ErrInvalidSlot     = errors.New("invalid color slot")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrRoomIDExhausted = errors.New("could not allocate a room id")
)

// Code maps a registry error to the code carried by an error message.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return constants.ERR_ROOM_NOT_FOUND
	case errors.Is(err, ErrSlotsExhausted):
		return constants.ERR_SLOTS_EXHAUSTED
	case errors.Is(err, ErrBotsExhausted):
		return constants.ERR_BOTS_EXHAUSTED
	case errors.Is(err, ErrNotHost):
		return constants.ERR_UNAUTHORIZED
	case errors.Is(err, ErrSlotTaken):
		return constants.ERR_SLOT_TAKEN
	case errors.Is(err, ErrInvalidSlot):
		return constants.ERR_INVALID_SLOT
	case errors.Is(err, ErrPlayerNotFound):
		return constants.ERR_PLAYER_NOT_FOUND
	default:
		return ""
	}
}
