package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-vault/api"
	"chat-vault/domain"
	"chat-vault/internal/database"
	"chat-vault/internal/logs"
	"chat-vault/moderation"
	"chat-vault/realtime"
	"chat-vault/repositories"
	"chat-vault/services"
	"chat-vault/validation"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes
// error reporting, so that deferred cleanup (database close, index close) always
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge index)
	db, index, err := database.Open(config.BadgerFilepath, config.BlugeFilepath)
	if err != nil {
		return fmt.Errorf("storage opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing storage...")
		database.Cleanup(db, index)
	}()

	// 3. Pipeline components
	repository, err := repositories.NewMessageRepository(db, index, log)
	if err != nil {
		return fmt.Errorf("repository setup failed: %w", err)
	}
	defer func() { _ = repository.Close() }()

	blocklist := moderation.DefaultBlocklist
	if words := splitList(config.InappropriateWords); len(words) > 0 {
		blocklist = words
	}
	filter, err := moderation.NewFilter(blocklist)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	validator := validation.NewValidator(config.MaxContentLength, domain.Sender(config.DefaultSender))
	hub := realtime.NewHub(log, config.SubscriberBufferSize)
	messages := services.NewMessageService(repository, validator, filter, hub, log)
	queries := services.NewQueryService(repository, log, config.DefaultPageSize, config.MaxPageSize)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. HTTP Server Setup
	router := api.NewRouter(api.RouterConfig{
		APIKeys:         splitList(config.APIKeys),
		RateLimit:       config.RateLimit,
		RateLimitWindow: config.RateLimitWindow,
		AllowedOrigins:  splitList(config.AllowedOrigins),
	}, log, messages, queries, hub)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

// splitList parses a comma-separated environment value, dropping empty entries.
func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
