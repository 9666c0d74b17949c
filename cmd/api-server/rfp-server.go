package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"rfpintake/internal/admin"
	"rfpintake/internal/app"
	"rfpintake/internal/config"
	"rfpintake/internal/gateway"
	"rfpintake/internal/handlers"
	"rfpintake/internal/logging"
	"rfpintake/internal/metrics"
	"rfpintake/internal/registration"
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("rfp")

	recordStore, closeStore, err := app.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Cannot open record store: %v", err)
	}
	defer closeStore()

	uploader, err := app.NewUploader(ctx, cfg, m)
	if err != nil {
		log.Fatalf("Cannot init media storage: %v", err)
	}

	if err := cfg.RequireAdmin(); err != nil {
		slog.Warn("admin login disabled", "err", err)
	}

	gw := gateway.New(recordStore, app.Tables(cfg), m)
	console := admin.NewConsole(gw, admin.Info{
		BaseID:       cfg.BaseID,
		StoreBackend: cfg.Store.Backend,
		MediaBackend: cfg.Media.Backend,
		CompanyName:  cfg.Branding.CompanyName,
		PortalTitle:  cfg.Branding.PortalTitle,
		SupportEmail: cfg.Branding.SupportEmail,
	})
	sessions := admin.NewSessions(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.SessionTTL, m)
	regs := registration.NewRegistry(registration.Deps{
		Vendors:       gw,
		Uploader:      uploader,
		Namespace:     cfg.Media.Namespace,
		UploadTimeout: cfg.Registration.UploadTimeout,
		Metrics:       m,
	}, cfg.Registration.IdleTTL)

	h := handlers.NewHandler(gw, console, sessions, regs)
	h.PublicBaseURL = cfg.Server.PublicBaseURL

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", m.Handler())
	r.Route("/api", h.Routes)

	srv := &http.Server{Addr: cfg.Server.Address, Handler: r}
	go func() {
		slog.Info("starting server", "addr", cfg.Server.Address, "store", cfg.Store.Backend, "media", cfg.Media.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", "open_registrations", regs.Len())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}
