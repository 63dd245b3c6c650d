package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhinvv1/WebDriverAgent/internal/attrcache"
	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/output"
	"github.com/abhinvv1/WebDriverAgent/internal/pagesource"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
	"github.com/abhinvv1/WebDriverAgent/internal/rntree"
)

// openProvider loads the platform backend selected by --fixture.
func openProvider() (*platform.Provider, error) {
	fixture, _ := rootCmd.PersistentFlags().GetString("fixture")
	return platform.NewProvider(platform.ProviderOptions{Fixture: fixture})
}

// newEngine wires a sampling engine to the provider's backend through a
// fresh attribute cache sized from the configuration.
func newEngine(p *platform.Provider) *gridsample.Engine {
	cache := attrcache.New(app.cfg.CacheOptions())
	resolver := attrcache.NewResolver(cache, p.Backend, nil)
	return gridsample.NewEngine(p.Backend, resolver, app.logger.With("provider", p.Name))
}

// inspectorOf returns the provider's in-process RN inspector, if any.
func inspectorOf(p *platform.Provider) rntree.Inspector {
	if ins, ok := p.Backend.(rntree.Inspector); ok {
		return ins
	}
	return nil
}

// newFetcher builds an RN tree fetcher from the rn configuration section.
func newFetcher() *rntree.Fetcher {
	opts := append(app.cfg.FetcherOptions(), rntree.WithLogger(app.logger))
	return rntree.NewFetcher(opts...)
}

// addSamplingFlags adds flags overriding the sampling section of the config.
func addSamplingFlags(cmd *cobra.Command) {
	cmd.Flags().Int("samples-x", 0, "Grid columns (default from config)")
	cmd.Flags().Int("samples-y", 0, "Grid rows (default from config)")
	cmd.Flags().Int("max-depth-for-point", 0, "Snapshot depth below each hit element, 0 for the hit element only (default from config)")
	cmd.Flags().Int("max-tree-depth", 0, "Drop nodes deeper than this (default from config)")
	cmd.Flags().Duration("time-budget", 0, "Stop sampling after this long (default from config)")
	cmd.Flags().Duration("probe-timeout", 0, "Bound on each probe's platform queries (default from config)")
}

// samplingConfig overlays explicitly set flags on the configured sampling values.
func samplingConfig(cmd *cobra.Command) gridsample.Config {
	cfg := app.cfg.Sampling
	flags := cmd.Flags()
	intFlag := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	durationFlag := func(name string, dst *time.Duration) {
		if flags.Changed(name) {
			*dst, _ = flags.GetDuration(name)
		}
	}
	intFlag("samples-x", &cfg.SamplesX)
	intFlag("samples-y", &cfg.SamplesY)
	if flags.Changed("max-depth-for-point") {
		depth, _ := flags.GetInt("max-depth-for-point")
		cfg.MaxDepthForPoint = gridsample.PointDepth(depth)
	}
	intFlag("max-tree-depth", &cfg.MaxTreeDepth)
	durationFlag("time-budget", &cfg.TimeBudget)
	durationFlag("probe-timeout", &cfg.ProbeTimeout)
	return cfg
}

// pointFlag parses the required --at flag.
func pointFlag(cmd *cobra.Command) (platform.Point, error) {
	at, _ := cmd.Flags().GetString("at")
	if at == "" {
		return platform.Point{}, fmt.Errorf("--at x,y is required")
	}
	return platform.ParsePoint(at)
}

// printSnapshot prints a point fetch in the current output format.
func printSnapshot(ctx context.Context, pt platform.Point, snap model.Snapshot) error {
	if output.OutputFormat == output.FormatXML {
		doc, err := pagesource.SnapshotXML(ctx, snap, pagesource.Options{})
		if err != nil {
			return err
		}
		return output.Print(doc)
	}
	tree, err := output.TreeOf(ctx, snap)
	if err != nil {
		return err
	}
	return output.Print(output.NewElementResult(pt.X, pt.Y, tree))
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
