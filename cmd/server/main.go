package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kaspaclash/arena-server/internal/combat"
	"github.com/kaspaclash/arena-server/internal/config"
	"github.com/kaspaclash/arena-server/internal/duel"
	"github.com/kaspaclash/arena-server/internal/matchmaking"
	"github.com/kaspaclash/arena-server/internal/notify"
	"github.com/kaspaclash/arena-server/internal/rating"
	"github.com/kaspaclash/arena-server/internal/repository"
	"github.com/kaspaclash/arena-server/internal/server"
	"github.com/kaspaclash/arena-server/internal/stake"
	"github.com/kaspaclash/arena-server/internal/wallet"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting arena server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	stats := db.Pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)

	queueStore := repository.NewPGQueueStore(db)
	matchStore := repository.NewPGMatchStore(db)
	ratingStore := repository.NewPGRatingStore(db)

	hub := notify.NewHub(logger)
	ratings := rating.NewUpdater(ratingStore, logger)
	settler := stake.NewLedgerSettler(logger)
	verifier := wallet.NewVerifier(wallet.AddressKeyResolver{})

	matches := duel.NewManager(matchStore, hub, ratings, settler, verifier, matchConfig(cfg.Match, logger), logger)
	logger.Info("match manager initialized")

	queue := matchmaking.NewEngine(queueStore, matches, matchmaking.Config{
		BaseWindow:     cfg.Matchmaking.BaseWindow,
		ExpansionRate:  cfg.Matchmaking.ExpansionRate,
		MinWait:        cfg.Matchmaking.MinWait,
		MaxWindow:      cfg.Matchmaking.MaxWindow,
		CandidateLimit: cfg.Matchmaking.CandidateLimit,
		StaleAfter:     cfg.Matchmaking.StaleAfter,
	}, logger)
	logger.Info("matchmaking engine initialized",
		zap.Int("base_window", cfg.Matchmaking.BaseWindow),
		zap.Int("max_window", cfg.Matchmaking.MaxWindow),
	)

	sweeper, err := duel.NewSweeper(matches, logger, queue.SweepStale)
	if err != nil {
		logger.Fatal("failed to create sweeper", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()
	logger.Info("deadline sweeper started", zap.Duration("interval", cfg.Match.SweepInterval))

	srv := server.New(cfg.Server, server.Deps{
		Queue:   queue,
		Matches: matches,
		Ratings: ratings,
		Hub:     hub,
	}, logger)

	go func() {
		if serveErr := srv.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(serveErr))
			stop()
		}
	}()

	logger.Info("arena server initialized",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
	)

	<-ctx.Done()
	logger.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}

	logger.Info("arena server stopped")
}

func matchConfig(cfg config.MatchConfig, logger *zap.Logger) duel.Config {
	format := combat.Format(cfg.DefaultFormat)
	if !format.Valid() {
		logger.Warn("unknown default format, falling back to best_of_3",
			zap.String("format", cfg.DefaultFormat))
		format = combat.FormatBestOf3
	}
	return duel.Config{
		SelectionTimeout: cfg.SelectionTimeout,
		MoveTimeout:      cfg.MoveTimeout,
		StakeTimeout:     cfg.StakeTimeout,
		DisconnectGrace:  cfg.DisconnectGrace,
		RoomTTL:          cfg.RoomTTL,
		SweepInterval:    cfg.SweepInterval,
		DefaultFormat:    format,
	}
}

// initLogger builds the zap logger from configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
