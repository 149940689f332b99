package constants

import "time"

const (
	// Board geometry
	CANVAS_WIDTH  = 1200
	CANVAS_HEIGHT = 800
	CELL_SIZE     = 20
	GRID_WIDTH    = CANVAS_WIDTH / CELL_SIZE
	GRID_HEIGHT   = CANVAS_HEIGHT / CELL_SIZE

	// Room limits
	MAX_PLAYERS    = 10
	MAX_BOTS       = 4
	ROOM_ID_LENGTH = 5
	ROOM_ID_CHARS  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// Names used when a join message carries none
	DEFAULT_HOST_NAME   = "Host"
	DEFAULT_CLIENT_NAME = "Cliente"

	// Round seeding
	INITIAL_FOOD    = 3
	SPAWN_X         = 5
	SPAWN_Y         = 5
	SPAWN_SPACING   = 5
	PLACE_ATTEMPTS  = 10
	OBSTACLE_DECAY  = 0.9
	KILL_BONUS      = 50
	SURVIVOR_BONUS  = 100
	FOOD_SCORE      = 1
	START_FALLBACK  = 2 * time.Second
	BOT_MOVE_BUDGET = 40 * time.Millisecond

	// Message types
	MSG_CREATE_ROOM      = "createRoom"
	MSG_ROOM_CREATED     = "roomCreated"
	MSG_JOIN_ROOM        = "joinRoom"
	MSG_PLAYER_CONNECTED = "playerConnected"
	MSG_PLAYER_LIST      = "playerList"
	MSG_ADD_BOT          = "addBot"
	MSG_CHANGE_COLOR     = "changeColor"
	MSG_START_GAME       = "startGame"
	MSG_INPUT            = "input"
	MSG_GAME_STATE       = "gameState"
	MSG_OFFER            = "offer"
	MSG_ANSWER           = "answer"
	MSG_CANDIDATE        = "candidate"
	MSG_ERROR            = "error"
	MSG_ROOM_CLOSED      = "roomClosed"

	// Error codes carried by MSG_ERROR
	ERR_ROOM_NOT_FOUND   = "ROOM_NOT_FOUND"
	ERR_SLOTS_EXHAUSTED  = "SLOTS_EXHAUSTED"
	ERR_BOTS_EXHAUSTED   = "BOTS_EXHAUSTED"
	ERR_UNAUTHORIZED     = "UNAUTHORIZED"
	ERR_SLOT_TAKEN       = "SLOT_TAKEN"
	ERR_INVALID_SLOT     = "INVALID_SLOT"
	ERR_NOT_IN_ROOM      = "NOT_IN_ROOM"
	ERR_ALREADY_IN_ROOM  = "ALREADY_IN_ROOM"
	ERR_PLAYER_NOT_FOUND = "PLAYER_NOT_FOUND"
)

// AVAILABLE_COLORS is indexed by color slot.
var AVAILABLE_COLORS = [MAX_PLAYERS]string{
	"green",
	"blue",
	"red",
	"yellow",
	"purple",
	"orange",
	"pink",
	"brown",
	"gray",
	"black",
}

// FOOD_SPRITES are cosmetic tags; the engine ignores them.
var FOOD_SPRITES = []string{"orange", "lemon"}

type Role string

const (
	ROLE_HOST   Role = "host"
	ROLE_CLIENT Role = "client"
)

type BotDifficulty string

const (
	BOT_EASY BotDifficulty = "easy"
	BOT_HARD BotDifficulty = "hard"
)

// SpeedFactor returns ticks-per-move for a bot of this difficulty.
func (d BotDifficulty) SpeedFactor() int {
	if d == BOT_EASY {
		return 2
	}
	return 1
}

func (d BotDifficulty) Valid() bool {
	return d == BOT_EASY || d == BOT_HARD
}

// Difficulty is a game difficulty level: "1", "2" or "3".
type Difficulty string

type DifficultyLevel struct {
	TickRate      time.Duration
	ObstacleEvery int
}

var DIFFICULTY_LEVELS = map[Difficulty]DifficultyLevel{
	"1": {TickRate: 150 * time.Millisecond, ObstacleEvery: 1},
	"2": {TickRate: 100 * time.Millisecond, ObstacleEvery: 2},
	"3": {TickRate: 50 * time.Millisecond, ObstacleEvery: 3},
}

const DEFAULT_DIFFICULTY Difficulty = "2"

// Level resolves the difficulty, falling back to DEFAULT_DIFFICULTY.
func (d Difficulty) Level() DifficultyLevel {
	if lvl, ok := DIFFICULTY_LEVELS[d]; ok {
		return lvl
	}
	return DIFFICULTY_LEVELS[DEFAULT_DIFFICULTY]
}
