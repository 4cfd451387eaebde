package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"tag-arena/server/internal/net"
	"tag-arena/server/internal/telemetry"
	"tag-arena/server/logging"
	"tag-arena/server/logging/sinks"
)

// Config captures the process-level knobs, all sourced from the environment.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// LogJSONPath enables the NDJSON sink when non-empty.
	LogJSONPath string
	// BroadcastEvery forwards every Nth snapshot (default 1).
	BroadcastEvery int
}

// ConfigFromEnv reads configuration from the environment, falling back to
// defaults suitable for local development.
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:           ":8080",
		BroadcastEvery: 1,
	}
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	cfg.LogJSONPath = os.Getenv("LOG_JSON_PATH")
	if raw := os.Getenv("BROADCAST_EVERY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.BroadcastEvery = n
		}
	}
	return cfg
}

// Run wires the logging router, hub, and HTTP server together and blocks
// until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	fallback := log.New(os.Stderr, "", log.LstdFlags)

	logCfg := logging.DefaultConfig()
	logCfg.Fields = map[string]any{"service": "tag-arena"}

	sinkSet := map[string]logging.Sink{
		"console": sinks.NewConsole(os.Stdout),
	}
	var jsonFile *os.File
	if cfg.LogJSONPath != "" {
		f, err := os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open json log %s: %w", cfg.LogJSONPath, err)
		}
		jsonFile = f
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
		logCfg.JSON.FilePath = cfg.LogJSONPath
		sinkSet["json"] = sinks.NewJSON(f, logCfg.JSON.FlushInterval)
	}

	router, err := logging.NewRouter(logCfg, logging.SystemClock{}, fallback, sinkSet)
	if err != nil {
		if jsonFile != nil {
			jsonFile.Close()
		}
		return fmt.Errorf("build logging router: %w", err)
	}

	hub := net.NewHub(net.HubConfig{
		Logger:         telemetry.WrapLogger(fallback),
		Publisher:      router,
		Metrics:        telemetry.NewMemoryMetrics(),
		LogStats:       router.Stats,
		BroadcastEvery: cfg.BroadcastEvery,
	})

	stopReaper := make(chan struct{})
	go hub.Run(stopReaper)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: net.NewHTTPHandler(hub),
	}

	errCh := make(chan error, 1)
	go func() {
		fallback.Printf("listening on %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fallback.Printf("server shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			close(stopReaper)
			closeRouter(router, fallback)
			if jsonFile != nil {
				jsonFile.Close()
			}
			return err
		}
	}

	close(stopReaper)
	closeRouter(router, fallback)
	if jsonFile != nil {
		jsonFile.Close()
	}
	return nil
}

func closeRouter(router *logging.Router, fallback *log.Logger) {
	closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := router.Close(closeCtx); err != nil {
		fallback.Printf("logging router close: %v", err)
	}
}
