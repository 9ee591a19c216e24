package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	api "github.com/mind-engage/mindengage-assess/internal/api/http"
	"github.com/mind-engage/mindengage-assess/internal/attempt"
	auth "github.com/mind-engage/mindengage-assess/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assess/internal/cache"
	"github.com/mind-engage/mindengage-assess/internal/catalog"
	"github.com/mind-engage/mindengage-assess/internal/config"
	"github.com/mind-engage/mindengage-assess/internal/db"
	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/logx"
	"github.com/mind-engage/mindengage-assess/internal/selection"
	syncx "github.com/mind-engage/mindengage-assess/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logx.New(cfg.LogLevel, cfg.LogFormat)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	store := exam.NewSQLStore(dbh, cfg.DBDriver)

	// --- Catalog cache ---
	var c cache.Cache = cache.NewMemory()
	if cfg.CacheDriver == "redis" {
		rc, err := cache.Dial(ctx, cfg.RedisAddr, "assess")
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using in-process cache")
		} else {
			defer rc.Close()
			c = rc
		}
	}
	source := selection.NewCachedSource(selection.CatalogSource{}, c, time.Duration(cfg.CacheTTLSec)*time.Second)

	if cfg.SeedFile != "" {
		im := catalog.NewImporter(store, catalog.WithInvalidator(source), catalog.WithLogger(log))
		if _, err := im.ImportFile(ctx, cfg.SeedFile); err != nil {
			log.Fatalf("seed %s: %v", cfg.SeedFile, err)
		}
	}

	// --- Attempt lifecycle ---
	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	svc := attempt.NewService(store,
		attempt.WithLogger(log),
		attempt.WithNotifier(events),
		attempt.WithResolver(selection.NewRuleSetResolver(selection.NewPoolResolver(source, nil))),
	)

	// --- Router ---
	deps := api.Deps{
		Attempts:    svc,
		Events:      events,
		Auth:        auth.NewAuthService(cfg.AuthHMACSecret),
		Ready:       dbh.PingContext,
		CORSOrigins: cfg.CORSOrigins(),
		Log:         log,
	}
	// Local login (enabled by default; disable with ENABLE_LOCAL_AUTH=false)
	if cfg.EnableLocalAuth {
		deps.Admin = &auth.Admin{User: cfg.AdminUser, PassHash: cfg.AdminPassHash}
	}
	if cfg.EnableGuestAuth {
		deps.GuestTenant = cfg.GuestTenantID
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		shutdown, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		if err := srv.Shutdown(shutdown); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr": cfg.HTTPAddr, "mode": cfg.Mode, "db": cfg.DBDriver, "cache": cfg.CacheDriver,
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
