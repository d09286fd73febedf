package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	api "github.com/mind-engage/mindengage-cie/internal/api/http"
	"github.com/mind-engage/mindengage-cie/internal/config"
	"github.com/mind-engage/mindengage-cie/internal/db"
	"github.com/mind-engage/mindengage-cie/internal/logging"
	"github.com/mind-engage/mindengage-cie/internal/portal"
	"github.com/mind-engage/mindengage-cie/internal/records"
	"github.com/mind-engage/mindengage-cie/internal/storage"
	"github.com/mind-engage/mindengage-cie/internal/validate"
)

var (
	version = "dev"

	flush  = logging.Flush
	osExit = os.Exit
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(logging.Options{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		RollbarToken: cfg.RollbarToken,
		RollbarEnv:   cfg.RollbarEnv,
		CodeVersion:  version,
	})
	defer logging.Flush()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.DBDriver).Msg("db open failed")
		exit(1)
	}
	defer dbh.Close()

	var opts []portal.Option
	if cfg.UploadArchiveDir != "" {
		bs, err := storage.NewFSStore(cfg.UploadArchiveDir)
		if err != nil {
			logger.Error().Err(err).Msg("upload archive")
			exit(1)
		}
		opts = append(opts, portal.WithArchive(bs))
	}
	svc := portal.NewService(records.NewSQLStore(dbh), validate.New(), logger, opts...)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(hlog.NewHandler(logger), logging.RequestLogger(logger), middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("db not ready")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(ar chi.Router) {
		api.MountPortal(ar, svc, cfg.MaxUploadBytes)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := serve(srv, logger, cfg); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		exit(1)
	}
}

// exit flushes queued Rollbar items, which os.Exit would otherwise drop
// along with the deferred Flush.
func exit(code int) {
	flush()
	osExit(code)
}

// serve runs srv until SIGINT/SIGTERM, then drains in-flight requests.
func serve(srv *http.Server, logger zerolog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("mode", string(cfg.Mode)).Str("db", cfg.DBDriver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
