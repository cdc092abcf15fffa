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

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/debemdeboas/folio/internal/admin"
	"github.com/debemdeboas/folio/internal/api"
	"github.com/debemdeboas/folio/internal/auth"
	"github.com/debemdeboas/folio/internal/cache"
	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/db"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/logger"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/render"
	"github.com/debemdeboas/folio/internal/repository"
	"github.com/debemdeboas/folio/internal/routes"
)

const shutdownTimeout = 30 * time.Second

func main() {
	err := godotenv.Load()

	configPath := os.Getenv(config.EnvConfigPath)
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}

	bootLogger := logger.New("info", "console")
	if err != nil {
		bootLogger.Debug().Err(err).Msg("No .env file loaded")
	}
	config.SetLogger(logger.Component(bootLogger, "config"))
	if err := config.LoadConfig(configPath); err != nil {
		bootLogger.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}
	cfg := config.AppConfig

	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	setLoggers(l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, closeApp, err := newApp(ctx, cfg, config.LoadSecrets(), l)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to start")
	}
	defer closeApp()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.WriteTimeout,
	}

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	l.Info().Msg("Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("Forced shutdown")
		return
	}
	l.Info().Msg("Server stopped")
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	cache.SetLogger(logger.Component(l, "cache"))
	repository.SetLogger(logger.Component(l, "repository"))
	imagehost.SetLogger(logger.Component(l, "imagehost"))
	auth.SetLogger(logger.Component(l, "auth"))
	render.SetLogger(logger.Component(l, "render"))
	api.SetLogger(logger.Component(l, "api"))
	admin.SetLogger(logger.Component(l, "admin"))
}

// newApp wires storage, auth and the API onto one handler. The returned func
// releases the database.
func newApp(ctx context.Context, cfg *config.Config, secrets config.Secrets, l zerolog.Logger) (http.Handler, func(), error) {
	if cfg.Database.Driver == config.DriverPostgres && secrets.DatabaseURL != "" {
		cfg.Database.DSN = secrets.DatabaseURL
	}

	d, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewDBRecordRepository(d, cache.NewListCache(cfg.Cache))

	images, err := imagehost.NewStore(ctx, cfg.Images, secrets)
	if err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("image store: %w", err)
	}

	mux := http.NewServeMux()
	provider, err := auth.NewProvider(cfg.Auth, secrets, mux)
	if err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("auth provider: %w", err)
	}

	api.NewServer(cfg, repo, images, provider).Register(mux)

	if local, ok := images.(*imagehost.LocalStore); ok {
		mux.Handle("GET "+routes.UploadsPath, http.StripPrefix(routes.UploadsPath, http.FileServer(http.Dir(local.Dir()))))
	}

	kinds := make([]model.Kind, 0, len(content.All()))
	for _, schema := range content.All() {
		kinds = append(kinds, schema.Kind)
	}
	go repo.Watch(ctx, kinds, cfg.Database.WatchInterval)

	return buildHandler(cfg, provider, mux, l), func() { d.Close() }, nil
}

// buildHandler wraps mux, outermost first: request logging, panic recovery, CORS,
// cache headers, sessions and security headers.
func buildHandler(cfg *config.Config, provider auth.AuthProvider, mux http.Handler, l zerolog.Logger) http.Handler {
	h := secureHeaders(mux)
	h = provider.WithHeaderAuthorization()(h)
	h = cacheIt(h)

	h = handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{config.HCType, config.HAuthorization, config.HSignature}),
		handlers.ExposedHeaders([]string{config.HLocation}),
		handlers.AllowCredentials(),
	)(h)

	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{l}),
		handlers.PrintRecoveryStack(true),
	)(h)

	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(l)(h)
}

type recoveryLogger struct {
	l zerolog.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.l.Error().Msg(fmt.Sprint(v...))
}

func cacheIt(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie, Authorization")
		h.ServeHTTP(w, r)
	})
}

func secureHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		h.ServeHTTP(w, r)
	})
}
