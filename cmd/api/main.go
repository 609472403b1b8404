package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/config"
	appHTTP "github.com/hireconnect/hireconnect-backend-go/internal/handler/http"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/backend"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/database"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/storage"
	"github.com/hireconnect/hireconnect-backend-go/internal/repository/postgresql"
	profileService "github.com/hireconnect/hireconnect-backend-go/internal/service/profile"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetLogLoggerLevel(cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("init local storage: %w", err)
	}

	backendClient := backend.NewClient("backend", cfg.Backend.URL, cfg.Backend.Timeout)
	attendanceClient := backend.NewClient("attendance", cfg.Backend.AttendanceURL, cfg.Backend.Timeout)

	profileRepo := postgresql.NewProfileRepository(db)
	transactor := postgresql.NewTransactor(db)
	profileSvc := profileService.NewProfileService(
		profileRepo,
		transactor,
		backendClient,
		fileStorage,
		cfg.Storage.PhotoMaxBytes,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceClient)
	profileHandler := appHTTP.NewProfileHandler(profileSvc, cfg.Storage.PhotoMaxBytes)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			App:            "hireconnect-api",
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			UploadsDir:     fileStorage.BasePath(),
			UploadsURL:     cfg.Storage.BaseURL,
		},
		attendanceHandler,
		profileHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
