package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Zaiqa/internal/config"
	"Zaiqa/internal/menu"
	"Zaiqa/internal/page"
	"Zaiqa/internal/session"
	"Zaiqa/internal/site"
	"Zaiqa/internal/storage"
	"Zaiqa/pkg/kit"
)

func main() {
	service := "site"

	cfg, err := config.Load(getenv("ZAIQA_CONFIG", config.DefaultPath))
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	kv, err := storage.Open(cfg.StorageConfig())
	if err != nil {
		log.Fatal("open storage failed", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}
	defer func() { _ = kv.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	menuStore, err := openMenu(ctx, kv)
	if err != nil {
		log.Fatal("menu store init failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := site.NewCartMetrics(reg)

	contact := cfg.HandoffContact()
	pages := page.NewRegistry(page.Deps{
		KV:        kv,
		Contact:   contact,
		Log:       log,
		OnDegrade: metrics.Degraded,
	}, cfg.Session.IdleTimeout)
	site.RegisterPageGauge(reg, pages)
	go pages.Run(ctx, cfg.Session.SweepEvery)

	reservations := kit.NewIPRateLimiter(cfg.RateLimit.Reservations, cfg.RateLimit.Window)
	checkouts := kit.NewIPRateLimiter(cfg.RateLimit.Checkouts, cfg.RateLimit.Window)
	go forgetIdleClients(ctx, cfg.RateLimit.Window, reservations, checkouts)

	s := &site.Server{
		Pages:   pages,
		Menu:    &menu.Server{Store: menuStore, Contact: contact, Log: log},
		Contact: contact,
		Metrics: metrics,
		Log:     log,
		Ready:   map[string]site.Pinger{"storage": kv, "menu": menuStore},
	}

	h := site.NewHandler(s, site.HTTPDeps{
		Log:              log,
		Service:          service,
		Registry:         reg,
		MetricsEnabled:   cfg.Metrics.Enabled,
		MetricsTokenHash: cfg.Metrics.TokenHash,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		Sessions:         session.NewTokenMaker(cfg.Session.Secret),
		SessionOptions: session.Options{
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.SecureCookie,
			Log:    log,
		},
		ReservationLimiter: reservations,
		CheckoutLimiter:    checkouts,
	})

	if err := kit.RunHTTPServer(ctx, cfg.HTTP.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openMenu keeps the menu next to the carts on postgres. Other drivers serve
// the built-in menu.
func openMenu(ctx context.Context, kv storage.KV) (menu.Store, error) {
	sqlKV, ok := kv.(*storage.SQLKV)
	if !ok || sqlKV.Driver() != storage.DriverPostgres {
		return menu.NewMemStore(), nil
	}

	st := menu.NewPostgresStore(sqlKV.DB())
	if err := st.Migrate(ctx, menu.DefaultItems()); err != nil {
		return nil, err
	}
	return st, nil
}

func forgetIdleClients(ctx context.Context, every time.Duration, limiters ...*kit.IPRateLimiter) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, l := range limiters {
				l.Forget()
			}
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
