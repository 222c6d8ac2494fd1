package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_WAIT_TIMEOUT bounds every asynchronous assertion in the scenarios
	WaitTimeout time.Duration `envconfig:"E2E_WAIT_TIMEOUT" default:"5s"`
	// E2E_TICKET_SECRET signs the upgrade tickets used by the ticket scenario
	TicketSecret string `envconfig:"E2E_TICKET_SECRET" default:"e2e-ticket-secret"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
