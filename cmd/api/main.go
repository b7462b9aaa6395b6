package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"estatehub.app/internal/audit"
	"estatehub.app/internal/auth"
	"estatehub.app/internal/config"
	"estatehub.app/internal/estate"
	"estatehub.app/internal/httpapi"
	"estatehub.app/internal/mailer"
	"estatehub.app/internal/media"
	"estatehub.app/internal/obs"
	"estatehub.app/internal/report"
	"estatehub.app/internal/store/pg"
	"estatehub.app/internal/stream"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

// backend is what the estate and report services need from storage.
type backend interface {
	estate.Store
	report.Source
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (or ESTATEHUB_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db    *sql.DB
		users auth.UserStore
		store backend
	)
	if cfg.DB.DSN != "" {
		db, err = pg.Open(cfg.DB)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		users = auth.NewPGStore(db)
		store = pg.New(db)
	} else {
		obs.Warn("memory_store", map[string]any{"reason": "no db.dsn configured; data is lost on restart"})
		mem := auth.NewMemoryStore()
		users = mem
		store = estate.NewMemoryStore(estate.NewDirectory(mem))
	}

	tokens, err := auth.NewTokenService(cfg.Auth.Secret, auth.WithTokenTTL(cfg.Auth.TokenTTL))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	mail := mailer.NewLogMailer("")
	authSvc, err := auth.NewService(users, tokens,
		auth.WithResetNotifier(mail),
		auth.WithResetTTL(cfg.Auth.ResetTTL))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	images, err := media.Open(ctx, cfg.Media)
	if err != nil {
		log.Fatalf("media store: %v", err)
	}
	hub := stream.New()
	estateSvc := estate.NewService(store, estate.NewDirectory(users),
		estate.WithImageStore(images),
		estate.WithReceiptSender(mail),
		estate.WithNotificationPublisher(hub))

	svc := httpapi.Services{
		Auth:    authSvc,
		Estate:  estateSvc,
		Reports: report.NewService(store, nil),
		Welcome: mail,
		Trail:   audit.NewTrail(db),
		Stream:  hub,
	}
	if cfg.Auth.DenylistSize > 0 {
		svc.Denylist = auth.NewLRUDenylist(cfg.Auth.DenylistSize, tokens.TTL())
	}
	if strings.EqualFold(cfg.Media.Driver, "disk") {
		svc.Uploads = http.FileServer(http.Dir(cfg.Media.Dir))
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, svc, cfg.HTTP)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	obs.Info("server_starting", map[string]any{
		"version": version,
		"addr":    srv.Addr,
		"storage": storageName(db),
		"media":   cfg.Media.Driver,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("listen: %v", err)
		}
	case <-ctx.Done():
	}
	obs.Info("server_stopping", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		obs.Error("shutdown_failed", err, nil)
	}
	if db != nil {
		_ = db.Close()
	}
	obs.Info("server_stopped", nil)
}

func storageName(db *sql.DB) string {
	if db == nil {
		return "memory"
	}
	return "postgres"
}
