package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "snake-relay-dev-secret"

type Config struct {
	Port           string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	MaxMessageSize int64
	SendBuffer     int
	RoomIDAttempts int

	STUNURLs       []string
	TURNURLs       []string
	TURNUsername   string
	TURNCredential string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	cfg := &Config{
		Port:           getString("PORT", "8080"),
		JWTSecret:      getString("JWT_SECRET", defaultJWTSecret),
		TokenTTL:       getDuration("TOKEN_TTL", 24*time.Hour),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),
		MaxMessageSize: int64(getInt("MAX_MESSAGE_SIZE", 64*1024)),
		SendBuffer:     getInt("SEND_BUFFER", 256),
		RoomIDAttempts: getInt("ROOM_ID_ATTEMPTS", 16),
		STUNURLs:       getList("ICE_STUN_URLS", []string{"stun:stun.l.google.com:19302"}),
		TURNURLs:       getList("ICE_TURN_URLS", nil),
		TURNUsername:   getString("ICE_TURN_USERNAME", ""),
		TURNCredential: getString("ICE_TURN_CREDENTIAL", ""),
	}
	if cfg.JWTSecret == defaultJWTSecret {
		log.Printf("JWT_SECRET not set, using development secret")
	}
	return cfg
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// OriginAllowed reports whether a websocket Origin header is accepted.
func (c *Config) OriginAllowed(origin string) bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}
	return b, nil
}

func getString(key, def string) string {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def
	}
	return strings.TrimSpace(v)
}

func getInt(key string, def int) int {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
