package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"artisan-chat/auth"
	"artisan-chat/internal"
	"artisan-chat/moderation"
	"artisan-chat/realtime"
	"artisan-chat/repositories"
	"artisan-chat/runtime/workers"
	"artisan-chat/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB for messages and sessions, Bluge for search)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	banned, err := moderation.LoadBannedWords()
	if err != nil {
		return fmt.Errorf("failed to load banned words: %w", err)
	}
	log.Info(fmt.Sprintf("%d banned terms loaded [%s]",
		len(banned.Words), strings.Join(banned.Categories, ",")))
	moderator, err := moderation.NewModerator(banned.Words, replacement, log)
	if err != nil {
		return err
	}

	// 4. Repositories & Services
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	searchRepository := repositories.NewMessageSearchRepository(blugeWriter, log)
	sessionRepository := repositories.NewSessionRepository(db)
	messaging := services.NewMessagingService(
		messageRepository, searchRepository, moderator, log, config.MaxContentLength)

	// 5. Realtime core
	registry := realtime.NewRegistry(log)
	router := realtime.NewRouter(log, registry, messaging)
	tickets := auth.NewTicketIssuer([]byte(config.TicketSecret), config.TicketTTL)
	authenticator := auth.NewAuthenticator(
		auth.NewSessionAuthenticator(sessionRepository, log), tickets, log)
	hub := realtime.NewHub(log, registry, router, authenticator,
		config.SendBufferSize, config.HandshakeTimeout, config.AuthLookupTimeout)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Supervised workers (heartbeat sweep + telemetry)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(realtime.NewLivenessWorker(log, registry, config.HeartbeatInterval))
	sup.Add(workers.NewTelemetryWorker(log, config.TelemetryInterval, registry.Counts))
	go sup.Run(ctx)

	// 8. Optional store inspector for local debugging
	if config.InspectPort != 0 {
		internal.StartInspectServer(db, config.InspectPort, func() map[string]any {
			users, conns := registry.Counts()
			return map[string]any{"users": users, "connections": conns}
		})
		log.Info("Store inspector available", "url",
			fmt.Sprintf("http://localhost:%d/inspect", config.InspectPort))
	}

	// 9. HTTP server exposing the single upgrade endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting realtime server", "address", address, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 10. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 11. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
