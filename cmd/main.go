package main

import (
	"batepapo/api"
	"batepapo/internal"
	"batepapo/moderation"
	"batepapo/repositories"
	"batepapo/runtime/workers"
	"batepapo/search"
	"batepapo/services"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so that deferred cleanup (database close,
// index flush) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Search index (Bluge)
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = blugeWriter.Close()
	}()

	// 4. Moderation
	censoredChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	censored, err := moderation.LoadWords()
	if err != nil {
		return fmt.Errorf("failed to load censored words: %w", err)
	}
	log.Info("Loaded censored dictionaries", "languages", censored.Languages, "words", len(censored.Words))
	moderator, err := moderation.NewModerator(censored.Words, censoredChar, log)
	if err != nil {
		return fmt.Errorf("failed to build moderator: %w", err)
	}

	// 5. Repositories & Services
	participantRepository := repositories.NewParticipantRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log)
	messageIndex := search.NewMessageIndex(blugeWriter, log)

	presenceService := services.NewPresenceService(participantRepository, log)
	messageService := services.NewMessageService(messageRepository, presenceService, &moderator, messageIndex, log)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Eviction sweeper under supervision
	sweeper := workers.NewSweeperWorker(presenceService, config.InactivityWindow, config.SweepInterval, log)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(sweeper)
	go sup.Run(ctx)

	// 8. Debug inspector
	internal.StartDebugServer(db, config.DebugPort, internal.ChatMapper, internal.ProcessStats())

	// 9. HTTP server
	handler := api.NewHandler(presenceService, messageService, log)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: api.NewRouter(handler, log),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 10. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 11. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
