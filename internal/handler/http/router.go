package http

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/hireconnect/hireconnect-backend-go/internal/handler/http/middleware"
)

// RouterConfig carries the settings the router needs from the app config.
type RouterConfig struct {
	App            string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
	UploadsDir     string
	UploadsURL     string
}

func NewRouter(cfg RouterConfig, attendanceHandler AttendanceHandler, profileHandler ProfileHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Profile-Source"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.UploadsDir != "" && cfg.UploadsURL != "" {
		prefix := "/" + strings.Trim(cfg.UploadsURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerRequired)

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/punch-in", attendanceHandler.Forward)
			r.Post("/punch-out", attendanceHandler.Forward)
			r.Post("/break/start", attendanceHandler.Forward)
			r.Post("/break/end", attendanceHandler.Forward)
			r.Get("/today", attendanceHandler.Forward)
			r.Get("/summary", attendanceHandler.Forward)
			r.Get("/leave-balance", attendanceHandler.Forward)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/break-logs", attendanceHandler.Forward)
				r.Post("/break-logs/approve", attendanceHandler.Forward)
				r.Post("/break-logs/reject", attendanceHandler.Forward)
				r.Get("/leaves", attendanceHandler.Forward)
				r.Post("/leaves/process", attendanceHandler.Forward)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/attendance", func(r chi.Router) {
				r.Get("/live", attendanceHandler.Forward)
				r.Post("/override/{id}", attendanceHandler.Forward)
				r.Get("/reports", attendanceHandler.Reports)
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", attendanceHandler.Forward)
				r.Post("/", attendanceHandler.Forward)
				r.Put("/{id}", attendanceHandler.Forward)
				r.Delete("/{id}", attendanceHandler.Forward)
			})
		})

		r.Route("/employees/{id}/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Get("/stats", profileHandler.GetStats)
			r.Get("/lock", profileHandler.GetLock)
			r.Put("/lock", profileHandler.UpdateLock)
			r.Post("/photo", profileHandler.UploadPhoto)
			r.Delete("/photo", profileHandler.DeletePhoto)
			r.Get("/enhanced", profileHandler.GetEnhanced)
			r.Put("/enhanced", profileHandler.UpdateEnhanced)
		})
	})
	return r
}
