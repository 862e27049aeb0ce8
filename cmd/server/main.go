package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/surveyor-app/surveyor/internal/api"
	"github.com/surveyor-app/surveyor/internal/config"
	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/metrics"
	"github.com/surveyor-app/surveyor/internal/middleware"
	"github.com/surveyor-app/surveyor/internal/utils"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "create-user" {
		err = createUser(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "surveyor:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := utils.NewLogger(cfg.LogLevel)

	store, closeStore, err := openStore(cfg.DBPath, cfg.MigrationsDir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("store.close.fail", "err", err)
		}
	}()

	mux := http.NewServeMux()
	opts := api.Options{Logger: log}
	if cfg.Metrics {
		m := metrics.New()
		opts.Recorder, opts.Observer = m, m
		mux.Handle("GET /metrics", m.Handler())
	}
	authn := middleware.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL)
	api.NewRouter(store, authn, opts).Register(mux)
	registerMeta(mux, cfg)

	handler := middleware.WithRequestLogging(middleware.Chain(mux,
		middleware.SecureHeaders,
		middleware.CORS(cfg.CORSOrigin),
		middleware.NoStore,
		middleware.LocaleMiddleware,
	), log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("server.start", "addr", cfg.Addr, "sqlite", cfg.UsesSQLite(), "metrics", cfg.Metrics)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server.stop", "reason", "signal")
	case err := <-errCh:
		log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server.shutdown.fail", "err", err)
		return err
	}
	log.Info("server.stopped")
	return nil
}

// openStore picks SQLite when path is set and the in-memory store otherwise.
func openStore(path, migrationsDir string, log *slog.Logger) (api.Store, func() error, error) {
	if path == "" {
		log.Warn("db.disabled.memory_store", "note", "data is lost on restart")
		return db.NewMemoryStore(), func() error { return nil }, nil
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(conn, migrationsDir); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	store, err := db.NewSQLiteStore(conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	log.Info("db.enabled.sqlite", "path", path)
	return store, conn.Close, nil
}

func registerMeta(mux *http.ServeMux, cfg config.Config) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		writeJSON(w, map[string]any{
			"ok":         true,
			"name":       "Surveyor API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
