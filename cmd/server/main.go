package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/DrawSync/internal/api/controller"
	apirepository "ctchen222/DrawSync/internal/api/repository"
	"ctchen222/DrawSync/internal/api/service"
	"ctchen222/DrawSync/internal/auth"
	"ctchen222/DrawSync/internal/broadcast"
	"ctchen222/DrawSync/internal/config"
	"ctchen222/DrawSync/internal/db"
	"ctchen222/DrawSync/internal/events"
	"ctchen222/DrawSync/internal/hub"
	"ctchen222/DrawSync/internal/logger"
	"ctchen222/DrawSync/internal/repository"
	"ctchen222/DrawSync/internal/server"
	"ctchen222/DrawSync/internal/session"
	"ctchen222/DrawSync/internal/telemetry"
	"ctchen222/DrawSync/internal/transport"
	"ctchen222/DrawSync/internal/words"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	serviceName     = "drawsync"
	serviceVersion  = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	shutdownOtel, err := telemetry.InitOtel(ctx, telemetry.Config{
		CollectorAddr:  cfg.OtelCollectorAddr,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	})
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := run(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "Server exiting")
}

func run(ctx context.Context, cfg *config.Config) error {
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return err
	}

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Initialize SQLite DB
	sqlDB, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}

	bank := words.NewBank()
	if err := bank.LoadFile(cfg.WordsFile); err != nil {
		return err
	}

	// Create repositories
	userRepo := apirepository.NewUserRepository(sqlDB)
	statsRepo := apirepository.NewStatsRepository(sqlDB)
	playerRepo := repository.NewPlayerRepository(rdb)
	leaderboardRepo := repository.NewLeaderboardRepository(rdb)
	publisher := events.NewPublisher(rdb)

	// Create services
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	verifier := auth.NewVerifier(cfg.JWTSecret, userRepo)
	userService := service.NewUserService(userRepo, issuer)
	statsService := service.NewStatsService(statsRepo, userRepo, leaderboardRepo, publisher)

	// Create hub
	h := hub.NewHub(hub.Options{
		Settings:  cfg.Settings(),
		ServerID:  cfg.ServerID,
		Sessions:  session.NewRegistry(verifier),
		Router:    broadcast.NewRouter(metrics),
		Words:     bank,
		Sink:      statsService,
		Metrics:   metrics,
		Presence:  playerRepo,
		Publisher: publisher,
		Redis:     rdb,
	})

	// Create controllers and the Gin-based server
	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(h, server.API{
		Users:    controller.NewUserController(userService),
		Stats:    controller.NewStatsController(statsService),
		Rooms:    controller.NewRoomController(h, publisher),
		Verifier: verifier,
	}, transport.WithRateLimit(rate.Limit(cfg.MessageRate), cfg.MessageBurst))

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}
	socketListener, err := net.Listen("tcp", cfg.SocketAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(gctx, "HTTP server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.ServeSocket(gctx, socketListener)
	})
	g.Go(func() error {
		return h.RunEventSubscriber(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.InfoContext(gctx, "Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(
			h.Shutdown(shutdownCtx),
			httpServer.Shutdown(shutdownCtx),
		)
	})
	return g.Wait()
}
