package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Extra-Chill/astra-web/internal/config"
	"github.com/Extra-Chill/astra-web/internal/metrics"
	"github.com/Extra-Chill/astra-web/internal/settings"
	"github.com/Extra-Chill/astra-web/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		noWatch  bool
		noMetric bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg, path, !noWatch, !noMetric)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the layout when the config file changes")
	cmd.Flags().BoolVar(&noMetric, "no-metrics", false, "Do not expose /metrics")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, path string, watch, withMetrics bool) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("astra-web v%s starting...", version)

	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return err
	}

	source := config.NewLayoutSource(cfg.Layout())

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if watch && path != "" {
		watcher, err := config.NewWatcher(path, source, config.DefaultDebounce)
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watcher.Start(ctx); err != nil {
			log.Printf("Warning: layout hot reload disabled: %v", err)
		}
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if withMetrics {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	handlers := web.NewHandlers(source, cfg.Files.Dir, store, recorder)
	server := web.NewServer(web.ServerConfig{
		Addr:              cfg.Server.Addr,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		AdminUser:         cfg.Server.AdminUser,
		AdminPasswordHash: cfg.Server.AdminPasswordHash,
		Metrics:           metricsHandler,
	}, handlers)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	log.Printf("Serving files from %s", cfg.Files.Dir)
	log.Println("Endpoints:")
	log.Println("  GET  /         - File listing")
	log.Println("  GET  /upload   - Configuration form")
	log.Println("  POST /upload   - Save configuration")
	log.Println("  GET  /health   - Health check")
	if withMetrics {
		log.Println("  GET  /metrics  - Prometheus metrics")
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	log.Println("Goodbye!")
	return nil
}

// configPath returns --config, or $ASTRA_CONFIG as a fallback.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(configEnv)
	}
	return path
}

// loadConfig loads path, or the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded config from %s", path)
	return cfg, nil
}
