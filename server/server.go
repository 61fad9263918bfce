package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beatstore/config"
	"beatstore/core/session"
	"beatstore/core/upload"
	"beatstore/db"
	"beatstore/logger"
	"beatstore/model"
	"beatstore/repository"
	"beatstore/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := db.Connect(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(&model.User{}, &model.Beat{}, &model.Purchase{}); err != nil {
		logger.Fatal("Failed to migrate database", logger.ErrorField(err))
	}

	var sessionStore session.Store
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, using in-memory sessions", logger.ErrorField(err))
		sessionStore = session.NewMemoryStore()
	} else {
		defer db.CloseRedis()
		sessionStore = session.NewRedisStore(db.RedisClient)
		logger.Info("Successfully connected to Redis")
	}

	store, err := storage.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", logger.ErrorField(err))
	}

	renderer, err := NewRenderer(cfg.TemplateDir)
	if err != nil {
		logger.Fatal("Failed to load templates", logger.ErrorField(err))
	}

	sessions := session.NewManager(sessionStore, cfg.SessionSecret, cfg.SessionCookie)
	intake := upload.NewIntake(store, cfg.AudioPrefix, cfg.CoverPrefix)

	userRepo := repository.NewUserRepository(db.DB)
	beatRepo := repository.NewBeatRepository(db.DB)
	purchaseRepo := repository.NewPurchaseRepository(db.DB)

	handler := NewHandler(userRepo, beatRepo, purchaseRepo, intake, sessions, renderer, cfg)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
