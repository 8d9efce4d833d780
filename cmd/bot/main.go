package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hray3182/RemindMe/internal/ai"
	"github.com/hray3182/RemindMe/internal/bot"
	"github.com/hray3182/RemindMe/internal/clock"
	"github.com/hray3182/RemindMe/internal/config"
	"github.com/hray3182/RemindMe/internal/database"
	"github.com/hray3182/RemindMe/internal/lock"
	"github.com/hray3182/RemindMe/internal/logger"
	"github.com/hray3182/RemindMe/internal/repository"
	"github.com/hray3182/RemindMe/internal/scheduler"
	"github.com/hray3182/RemindMe/internal/temporal"
	"github.com/hray3182/RemindMe/internal/transport"
)

const defaultConfigPath = ".env"

func newRootCmd() *cobra.Command {
	var (
		configPath string
		wipeDB     bool
	)
	cmd := &cobra.Command{
		Use:           "remindme",
		Short:         "A chat bot that reminds you of things",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, wipeDB)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "env file to load before reading the environment")
	cmd.Flags().BoolVar(&wipeDB, "wipedb", false, "drop all stored data before starting")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, wipeDB bool) error {
	log := logger.New("remindme", cfg.LogLevel)

	store, closeStore, err := openStore(ctx, cfg, wipeDB, log)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	tg, err := transport.NewTelegram(cfg.TelegramToken, cfg.SendRetries, log)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	resolver := temporal.NewResolver(newParser(cfg, log))
	b := bot.New(tg, store, resolver, locker, clk, bot.Config{
		Owner:       cfg.BotOwner,
		DebugChatID: cfg.DebugChatID,
	}, log)

	sched := scheduler.New(store, tg, locker, b.Contexts(), clk, scheduler.Config{
		PollInterval:   cfg.PollInterval,
		ErrorLimit:     cfg.DeliveryErrorLimit,
		BatchSize:      cfg.DeliveryBatchSize,
		VacuumSchedule: cfg.VacuumSchedule,
	}, log)
	b.Handlers().SetNotifier(sched)

	log.Info().
		Str("database_driver", cfg.DatabaseDriver).
		Str("date_parser", cfg.DateParser).
		Bool("redis_lock", cfg.RedisURL != "").
		Msg("starting")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(ctx) })
	g.Go(func() error { return sched.Start(ctx) })
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("shut down gracefully")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, wipeDB bool, log zerolog.Logger) (repository.Store, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, nil, err
		}
		if wipeDB {
			if err := db.Wipe(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
			log.Warn().Msg("wiped database")
		}
		if err := db.Migrate(ctx, log); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repository.NewPostgres(db), db.Close, nil

	case config.DriverSQLite:
		if wipeDB {
			if err := database.WipeSQLite(cfg.SQLitePath); err != nil {
				return nil, nil, err
			}
			log.Warn().Str("path", cfg.SQLitePath).Msg("wiped database")
		}
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := database.MigrateSQLite(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repository.NewSQLite(db), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseDriver)
}

func newParser(cfg *config.Config, log zerolog.Logger) temporal.Parser {
	if cfg.DateParser == config.ParserOpenAI {
		client := ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		return ai.NewDateParser(client, log)
	}
	return temporal.NewDateParser()
}

func newLocker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedis(client, lock.DefaultTTL, log), func() { _ = client.Close() }, nil
}
