package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"flyte/domain"
	"flyte/internal"
	"flyte/moderation"
	"flyte/repositories"
	"flyte/runtime"
	"flyte/runtime/workers"
	"flyte/services"
	"flyte/slot"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the lifecycle and centralizes
// error reporting, so that defers (database cleanup) execute before the
// process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// Fail fast on a slot count that does not tile a day.
	if _, err := slot.Compute(time.Now(), config.TotalSlots); err != nil {
		return fmt.Errorf("invalid TOTAL_SLOTS: %w", err)
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & services
	store := repositories.NewStore(db, log)
	users := repositories.NewUserRepository(store)
	rooms := repositories.NewRoomRepository(store)
	journeys := repositories.NewJourneyRepository(store)
	participants := repositories.NewParticipantRepository(store)
	messages := repositories.NewMessageRepository(store)
	media := repositories.NewMediaRepository(store)

	moderator, err := loadModerator(config)
	if err != nil {
		return err
	}

	broker := runtime.NewBroker(log)
	notifications := make(chan domain.Notification, config.NotificationBuffer)

	messageService := services.NewMessageService(store, rooms, users, messages, media)

	// App is what a transport adapter (WebSocket/HTTP, out of this module)
	// consumes: every service plus the broker to subscribe live sinks on.
	app := App{
		Journeys: services.NewJourneyService(log, store, users, rooms, journeys, participants, config.TotalSlots),
		Messages: messageService,
		Chat:     services.NewChatService(log, participants, messageService, broker, notifications, moderator),
		Rooms:    services.NewRoomService(rooms, journeys, messageService, participants),
		Users:    users,
		Broker:   broker,
	}

	internal.StartDebugServer(log, internal.Core{
		Journeys: app.Journeys,
		Messages: app.Messages,
		Rooms:    app.Rooms,
	}, config.DebugAddr)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervision: the notifier runs off the request path.
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewNotifier(log, participants, broker, notifications))

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	log.Info("flyte core started", "total_slots", config.TotalSlots, "moderation", moderator != nil)

	// 6. Wait for stop; transport adapters plug into the services and the
	// broker from here.
	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	sup.Stop()
	<-done
	log.Info("Program stopped cleanly")

	return nil
}

// loadModerator builds the censoring automaton from the configured word
// list, or returns nil when moderation is disabled.
func loadModerator(config Config) (*moderation.Moderator, error) {
	if config.CensoredWordsPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(config.CensoredWordsPath)
	if err != nil {
		return nil, fmt.Errorf("censored words: %w", err)
	}
	words := strings.Fields(string(raw))
	replacement := []rune(config.ModerationCharReplacement)
	if len(replacement) != 1 {
		return nil, fmt.Errorf("MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			config.ModerationCharReplacement)
	}
	return moderation.NewModerator(words, replacement[0])
}
