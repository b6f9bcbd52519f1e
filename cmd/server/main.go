package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/draftbid/internal/config"
	"github.com/mmynk/draftbid/internal/engine"
	"github.com/mmynk/draftbid/internal/events"
	"github.com/mmynk/draftbid/internal/metrics"
	"github.com/mmynk/draftbid/internal/middleware"
	"github.com/mmynk/draftbid/internal/service"
	"github.com/mmynk/draftbid/internal/storage/sqlite"
	"github.com/mmynk/draftbid/internal/transport/ws"
	"github.com/mmynk/draftbid/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := events.NewHub(cfg.EventBuffer)
	defer hub.Close()
	metrics.RegisterHub(reg, hub)

	eng := engine.New(store, hub, engine.Options{
		RoundDuration:    cfg.RoundDuration,
		TickInterval:     cfg.TickInterval,
		SweepInterval:    cfg.SweepInterval,
		ReserveOpenSlots: cfg.ReserveOpenSlots,
		Metrics:          m,
	})

	mux := http.NewServeMux()

	// Register Connect services
	interceptors := connect.WithInterceptors(
		middleware.RequestID(),
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(m),
	)
	auctionPath, auctionHandler := service.NewAuctionServiceHandler(service.NewAuctionService(eng), interceptors)
	mux.Handle(auctionPath, auctionHandler)

	roomPath, roomHandler := service.NewRoomServiceHandler(service.NewRoomService(store, eng, cfg.DefaultBudget), interceptors)
	mux.Handle(roomPath, roomHandler)

	observers := ws.NewServer(hub, slog.Default())
	metrics.RegisterObservers(reg, observers)
	mux.Handle("/ws", observers.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Add CORS middleware and wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		slog.Info("Connect server starting", "address", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Observer streams end when the hub closes.
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms, X-Request-Id")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, X-Request-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
