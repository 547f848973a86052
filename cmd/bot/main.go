package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hotel-bot/config"
	"hotel-bot/internal/bot"
	"hotel-bot/internal/conversation"
	"hotel-bot/internal/db"
	"hotel-bot/internal/events"
	"hotel-bot/internal/history"
	"hotel-bot/internal/hotels"
	"hotel-bot/internal/server"
	"hotel-bot/internal/state"
	"hotel-bot/pkg/logger"
)

// historyDB is a history backend the bot can migrate and probe.
type historyDB interface {
	history.Repository
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close()
}

func main() {
	l := logger.New("info")

	cfg, err := config.Load()
	if err != nil {
		l.Fatalw("Failed to load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		l.Fatalw("Configuration is incomplete", "error", err)
	}
	if cfg.Log.Development {
		l = logger.NewDevelopment()
	} else {
		l = logger.New(cfg.Log.Level)
	}
	defer func() { _ = l.Sync() }()
	l.Infow("Starting hotel search bot", "bot", conversation.BotName)

	location, _ := cfg.Search.TimeLocation()

	database, err := openHistory(cfg, l)
	if err != nil {
		l.Fatalw("Failed to open history database", "driver", cfg.History.Driver, "error", err)
	}
	defer database.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		l.Fatalw("Failed to migrate history database", "error", err)
	}

	checks := map[string]server.Check{"history": database.Ping}

	var (
		store state.Store
		cache hotels.Cache
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancelPing()
		if err != nil {
			l.Fatalw("Failed to connect to Redis", "addr", cfg.Redis.Addr, "error", err)
		}

		store = state.NewRedisStore(rdb, cfg.Redis.SessionTTL)
		cache = hotels.NewRedisCache(rdb, cfg.Redis.CacheTTL, l)
		checks["sessions"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		l.Infow("Sessions are kept in Redis", "addr", cfg.Redis.Addr)
	} else {
		memory := state.NewMemoryStore(cfg.Redis.SessionTTL, l)
		sweeper, err := memory.StartSweeper("@every 10m")
		if err != nil {
			l.Fatalw("Failed to schedule session sweeper", "error", err)
		}
		defer sweeper.Stop()

		store = memory
		cache = hotels.NopCache{}
		l.Infow("Sessions are kept in memory", "ttl", cfg.Redis.SessionTTL)
	}

	gateway := hotels.New(hotels.Options{
		BaseURL:         cfg.HotelsAPI.BaseURL,
		Key:             cfg.HotelsAPI.Key,
		Host:            cfg.HotelsAPI.Host,
		Timeout:         cfg.HotelsAPI.Timeout,
		MaxTries:        cfg.HotelsAPI.MaxTries,
		MaxElapsed:      cfg.HotelsAPI.MaxElapsed,
		Parallelism:     cfg.HotelsAPI.Parallelism,
		ResultsSize:     cfg.HotelsAPI.ResultsSize,
		SiteURLTemplate: cfg.HotelsAPI.SiteURLTemplate,
		DumpDir:         cfg.HotelsAPI.DumpDir,
	}, cache, l)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		l.Infow("Publishing search events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	api, err := bot.NewAPI(cfg.Telegram, l)
	if err != nil {
		l.Fatalw("Failed to create Telegram bot", "error", err)
	}

	engine := conversation.NewEngine(conversation.Deps{
		Store:   store,
		Gateway: gateway,
		History: history.NewRecorder(database, l),
		Sender:  bot.NewSender(api, l),
		Events:  publisher,
		Logger:  l,
	}, conversation.Options{
		MaxHotels:  cfg.Search.MaxHotels,
		MaxPhotos:  cfg.Search.MaxPhotos,
		MaxHistory: cfg.Search.MaxHistory,
		Location:   location,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	telegramBot := bot.NewTelegramBot(api, engine, l)
	if err := telegramBot.Start(ctx); err != nil {
		l.Fatalw("Failed to start Telegram bot", "error", err)
	}

	httpServer := server.NewServer(cfg.Server.Port, checks, l)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Infow("Shutting down bot...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		l.Errorw("Error during HTTP server shutdown", "error", err)
	}
	if err := telegramBot.Stop(shutdownCtx); err != nil {
		l.Errorw("Error during bot shutdown", "error", err)
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		l.Errorw("Error during search shutdown", "error", err)
	}
	stop()

	l.Infow("Bot stopped successfully")
}

// openHistory connects the configured history backend. Postgres gets a few
// attempts since it often starts alongside the bot.
func openHistory(cfg *config.Config, l *logger.Logger) (historyDB, error) {
	switch cfg.History.Driver {
	case "sqlite":
		return db.NewSQLiteDB(cfg.History.SQLitePath)
	case "postgres":
		var (
			database *db.PostgresDB
			err      error
		)
		maxRetries := 5
		for i := 0; i < maxRetries; i++ {
			database, err = db.NewPostgresDB(cfg.DB)
			if err == nil {
				return database, nil
			}
			l.Errorw("Failed to connect to database, retrying...", "attempt", i+1, "error", err)
			time.Sleep(time.Duration(i+1) * time.Second)
		}
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}
	return nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
}
