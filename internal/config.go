package internal

import (
	"fmt"
	"time"
)

// Config is the realtime server's environment configuration.
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=1m"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HandshakeTimeout  time.Duration `env:"HANDSHAKE_TIMEOUT,default=10s"`
	AuthLookupTimeout time.Duration `env:"AUTH_LOOKUP_TIMEOUT,default=5s"`

	SendBufferSize   int    `env:"SEND_BUFFER_SIZE,default=64"`
	MaxContentLength int    `env:"MAX_CONTENT_LENGTH,default=2000"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`

	TicketSecret string        `env:"TICKET_SECRET,required=true"`
	TicketTTL    time.Duration `env:"TICKET_TTL,default=1m"`
	SessionTTL   time.Duration `env:"SESSION_TTL,default=24h"`

	// InspectPort exposes the read-only store inspector when non-zero.
	InspectPort int `env:"INSPECT_PORT"`
}

// CharacterRune validates that the replacement setting is one rune.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
