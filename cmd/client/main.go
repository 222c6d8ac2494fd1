package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"

	"artisan-chat/client"
	"artisan-chat/domain"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL     string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	SessionCookie string `env:"CHAT_SESSION_COOKIE"`
	Ticket        string `env:"CHAT_TICKET"`
	RecipientID   string `env:"CHAT_RECIPIENT,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the realtime client lifecycle: configuration loading, the
// reconnecting connection, and the stdin send loop.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Build the handshake credential: ticket query parameter or session cookie.
	url := config.ServerURL
	header := http.Header{}
	switch {
	case config.Ticket != "":
		url = fmt.Sprintf("%s?ticket=%s", url, config.Ticket)
	case config.SessionCookie != "":
		header.Set("Cookie", config.SessionCookie)
	default:
		return exitConfig, fmt.Errorf("either CHAT_TICKET or CHAT_SESSION_COOKIE is required")
	}

	manager := client.NewManager(log, url, header,
		func(msg domain.Message) {
			fmt.Printf("[%s] %s: %s\n",
				msg.CreatedAt.Format(time.TimeOnly), msg.SenderID, msg.Content)
		},
		func(payload map[string]any) {
			log.Info("Notification received", "payload", payload)
		},
	)
	manager.Start()
	defer manager.Stop()

	log.Info(fmt.Sprintf(">>> Chatting with %s via %s (Ctrl+C to quit)...",
		config.RecipientID, config.ServerURL))

	// 4. Send loop: every stdin line becomes a message to the recipient.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			content := strings.TrimSpace(line)
			if content == "" {
				continue
			}
			manager.Send(config.RecipientID, content, nil)
		}
	}
}
