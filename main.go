package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"partypics-app/config"
	"partypics-app/database"
	notificationsapi "partypics-app/internal/api/notifications"
	sharedmediaapi "partypics-app/internal/api/sharedmedia"
	routes "partypics-app/internal/app/http"
	"partypics-app/internal/app/http/middleware"
	"partypics-app/internal/domain/sharedmedia"
	"partypics-app/internal/infra/imaging"
	"partypics-app/internal/infra/logger"
	"partypics-app/internal/infra/metrics"
	"partypics-app/internal/infra/relay"
	"partypics-app/internal/infra/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	config.LoadEnv()
	cfg := config.App

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid logger configuration")
	}

	db, err := database.InitDB(cfg.DBURL, gormLogLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}
	log.Info().Msg("connected and migrated")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := relay.NewHub(64, log)
	defer hub.Close()

	// single instance: the hub is the publisher; with redis every instance
	// hears every notification through the bridge
	var publisher relay.Publisher = hub
	if cfg.RedisURL != "" {
		client, err := relay.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis setup failed")
		}
		defer client.Close()

		bridge := relay.NewRedisBridge(client, cfg.RedisChannel, hub, log)
		if err := bridge.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("redis unreachable")
		}
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Error().Err(err).Msg("redis bridge stopped")
			}
		}()
		publisher = bridge
	}

	manager := sharedmedia.NewManager(
		repository.NewSharedMediaRepository(db),
		repository.NewTournamentRepository(db),
		imaging.NewProcessor(imaging.Limits{
			MaxWidth:  sharedmedia.MaxImageWidth,
			MaxHeight: sharedmedia.MaxImageHeight,
		}, cfg.NormalizeJPEG),
		publisher,
		sharedmedia.Options{Metrics: metrics.Recorder{}},
		log,
	)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(),
	)

	// CORS must run before the routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Dependencies{
		SharedMedia:    sharedmediaapi.NewHandler(manager, log),
		Notifications:  notificationsapi.NewHandler(hub, publisher, log),
		JWTSecret:      cfg.JWTSecret,
		ModeratorRoles: cfg.ModeratorRoles,
		Health: func(c *gin.Context) error {
			return database.Ping(c.Request.Context(), db)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// end open event streams so Shutdown does not wait on them
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return gormlogger.Info
	case "error", "fatal", "panic":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
