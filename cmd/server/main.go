package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kindlyrobotics/huddle/internal/config"
	"github.com/kindlyrobotics/huddle/internal/contacts"
	"github.com/kindlyrobotics/huddle/internal/db"
	"github.com/kindlyrobotics/huddle/internal/handlers"
	"github.com/kindlyrobotics/huddle/internal/ratelimit"
	"github.com/kindlyrobotics/huddle/internal/registry"
	"github.com/kindlyrobotics/huddle/internal/signaling"
	"github.com/kindlyrobotics/huddle/internal/snapshot"
)

func main() {
	// Local .env is a dev convenience; ignore when absent.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshot store: Redis when configured, JSON file otherwise. API rate
	// limiting rides on the same Redis connection and is skipped without one.
	var store snapshot.Store
	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisStore, err := snapshot.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, falling back to file snapshot")
			store = snapshot.NewFileStore(cfg.DataDir)
		} else {
			defer redisStore.Close()
			store = redisStore
			limiter = ratelimit.NewLimiter(redisStore.Client())
		}
	} else {
		store = snapshot.NewFileStore(cfg.DataDir)
	}

	// Contact store: Postgres when configured, JSON file otherwise.
	var contactStore contacts.Store = contacts.NewFileStore(cfg.DataDir)
	if cfg.DatabaseURL != "" {
		pg, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to postgres")
		}
		defer pg.Close()
		if err := db.RunMigrations(pg, cfg.MigrationsDir); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}
		contactStore = contacts.NewSQLStore(pg)
	}

	reg := registry.New(store, cfg.RoomCleanupDelay)
	defer reg.Close()
	reg.LoadSnapshot(ctx)

	hub := signaling.NewHub(reg)
	go hub.Run(ctx)

	iceHandler := handlers.NewIceHandler(cfg.TwilioAccountSID, cfg.TwilioAuthToken)

	r := mux.NewRouter()
	r.Use(handlers.CORS(cfg.CORSAllowedOrigins))
	r.HandleFunc("/api/health", handlers.HealthCheck).Methods("GET")
	r.HandleFunc("/api/contact", limiter.Middleware("contact", 10, time.Minute, handlers.Contact(contactStore))).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/room/create", limiter.Middleware("room-create", 30, time.Minute, handlers.CreateRoom(reg))).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/room/{roomId}", handlers.GetRoom(reg)).Methods("GET")
	r.HandleFunc("/api/ice-servers", iceHandler.GetIceServers).Methods("GET", "OPTIONS")
	r.HandleFunc("/ws", handlers.ServeWs(hub, cfg.CORSAllowedOrigins))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("Starting signaling server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down signaling server...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Forced shutdown")
	}
	logrus.Info("Signaling server exited")
}

func setupLogging(env string) {
	if env == "prod" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}
}
