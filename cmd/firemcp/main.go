// Command firemcp serves Google Cloud Firestore operations as Model Context
// Protocol tools over stdio or HTTP.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/firemcp/auth"
	"github.com/jonwraymond/firemcp/config"
	"github.com/jonwraymond/firemcp/doccache"
	"github.com/jonwraymond/firemcp/fstore"
	"github.com/jonwraymond/firemcp/fsvalue"
	"github.com/jonwraymond/firemcp/guard"
	"github.com/jonwraymond/firemcp/health"
	"github.com/jonwraymond/firemcp/mcpserver"
	"github.com/jonwraymond/firemcp/observe"
	"github.com/jonwraymond/firemcp/store"
	"github.com/jonwraymond/firemcp/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "firemcp:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "firemcp",
		Version:     cfg.Version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.TracingExporter != "",
			Exporter:  cfg.TracingExporter,
			SamplePct: cfg.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.MetricsExporter != "",
			Exporter: cfg.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.LogLevel,
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	log := obs.Logger()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cache := doccache.New(doccache.Config{TTL: cfg.CacheTTL, MaxSize: cfg.CacheMaxSize})

	var norm *fsvalue.Normalizer
	if resolver, ok := st.(fsvalue.RefResolver); ok {
		norm = fsvalue.New(resolver)
	} else {
		norm = fsvalue.New(nil)
	}

	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return err
	}
	if err := observe.RegisterCacheGauges(obs.Meter(), func() observe.CacheSample {
		s := cache.Stats()
		return observe.CacheSample{
			Size:     s.Size,
			MaxSize:  s.MaxSize,
			Hits:     s.Hits,
			Misses:   s.Misses,
			HitRatio: s.HitRatio,
		}
	}); err != nil {
		return err
	}

	srv := mcpserver.New(mcpserver.ServerInfo{Name: "firemcp", Version: cfg.Version})
	srv.Use(
		mcpserver.ObserveMiddleware(obs, metrics),
		mcpserver.GuardMiddleware(buildGuard(cfg)),
	)

	svc := tools.NewService(st, cache, norm, log)
	if err := tools.Register(srv, svc); err != nil {
		return err
	}

	log.Info(ctx, "server configured",
		observe.Field{Key: "transport", Value: cfg.Transport},
		observe.Field{Key: "tools", Value: len(srv.ToolNames())},
		observe.Field{Key: "memory_store", Value: cfg.MemoryStore},
	)

	if cfg.Transport == config.TransportStdio {
		return mcpserver.ServeStdio(ctx, srv)
	}
	return serveHTTP(ctx, cfg, srv, st, cache, log)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.MemoryStore {
		return store.NewMemoryStore(), nil
	}
	return fstore.New(ctx, cfg.ProjectID, cfg.CredentialsFile)
}

func buildGuard(cfg *config.Config) *guard.Guard {
	return guard.New(guard.Config{
		CallTimeout:   cfg.CallTimeout,
		MaxConcurrent: cfg.MaxConcurrent,
		RatePerSecond: cfg.RateLimit,
	})
}

func serveHTTP(ctx context.Context, cfg *config.Config, srv *mcpserver.Server, st store.Store, cache *doccache.Cache, log observe.Logger) error {
	agg := health.NewAggregator(
		health.NewStoreChecker(st, 5*time.Second),
		health.NewCacheChecker(cache),
	)

	protect := auth.Middleware(buildAuthChain(cfg))

	mux := http.NewServeMux()
	mux.Handle("/mcp", protect(mcpserver.HTTPHandler(srv)))
	mux.Handle("/sse", protect(mcpserver.SSEHandler(srv)))
	mux.Handle("/metrics", promhttp.Handler())
	health.RegisterHandlers(mux, agg)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	log.Info(ctx, "http server listening", observe.Field{Key: "addr", Value: cfg.HTTPAddr})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func buildAuthChain(cfg *config.Config) *auth.Chain {
	var authenticators []auth.Authenticator
	if len(cfg.APIKeys) > 0 {
		authenticators = append(authenticators, auth.NewAPIKeyAuthenticator("", cfg.APIKeys))
	}
	if cfg.JWTSecret != "" {
		authenticators = append(authenticators, auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret: []byte(cfg.JWTSecret),
			Issuer: cfg.JWTIssuer,
		}))
	}
	return auth.NewChain(authenticators...)
}
