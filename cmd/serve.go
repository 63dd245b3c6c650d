package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhinvv1/WebDriverAgent/internal/config"
	"github.com/abhinvv1/WebDriverAgent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the sampling tools",
	Long: `Start a Model Context Protocol (MCP) server exposing grid_tree, skeleton,
fetch_element, rn_tree, page_source and the cache tools. Agents call the tools
directly without shell overhead.

Supported transports:
  stdio             Standard I/O (default)
  streamable-http   Streamable HTTP transport (for remote agents)

When --config is set the file is watched and cache and sampling settings are
reloaded on change.

Examples:
  gridtree serve --fixture app.yaml
  gridtree serve --fixture app.yaml --transport streamable-http --addr :8080
  gridtree serve --fixture app.yaml --metrics-addr :9090 --result-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", server.TransportStdio, "Transport: stdio, streamable-http")
	serveCmd.Flags().String("addr", ":8080", "Listen address for streamable-http transport")
	serveCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (disabled when empty)")
	serveCmd.Flags().Duration("result-ttl", 500*time.Millisecond, "Reuse complete grid results for this long (0 to disable)")
	serveCmd.Flags().Duration("sweep-interval", 0, "Expired cache entry sweep interval (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	addr, _ := cmd.Flags().GetString("addr")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	resultTTL, _ := cmd.Flags().GetDuration("result-ttl")
	sweepInterval := app.cfg.Cache.SweepInterval
	if cmd.Flags().Changed("sweep-interval") {
		sweepInterval, _ = cmd.Flags().GetDuration("sweep-interval")
	}
	configPath, _ := rootCmd.PersistentFlags().GetString("config")

	provider, err := openProvider()
	if err != nil {
		return err
	}
	engine := newEngine(provider)
	cache := engine.Resolver().Cache()
	srv := server.New(server.Config{
		Version:   version,
		Sampling:  app.cfg.Sampling,
		RNURL:     app.cfg.RN.URL,
		ResultTTL: resultTTL,
	}, engine, newFetcher(), inspectorOf(provider), app.logger)

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stop()
		return srv.Serve(ctx, transport, addr)
	})

	if sweepInterval > 0 {
		g.Go(func() error {
			cache.Janitor(ctx, sweepInterval)
			return nil
		})
	}

	if metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, metricsAddr)
		})
	}

	if configPath != "" {
		g.Go(func() error {
			err := config.Watch(ctx, configPath, func(cfg *config.Config, err error) {
				if err != nil {
					app.logger.Warn("config reload failed", "path", configPath, "error", err)
					return
				}
				if err := cfg.ApplyCache(cache); err != nil {
					app.logger.Warn("cache settings rejected", "error", err)
					return
				}
				if err := srv.SetSampling(cfg.Sampling); err != nil {
					app.logger.Warn("sampling settings rejected", "error", err)
					return
				}
				app.logger.Info("config reloaded", "path", configPath)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// serveMetrics exposes the Prometheus registry on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	app.logger.Info("metrics listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
