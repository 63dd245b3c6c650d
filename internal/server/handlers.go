package server

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abhinvv1/WebDriverAgent/internal/attrcache"
	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/output"
	"github.com/abhinvv1/WebDriverAgent/internal/pagesource"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
	"github.com/abhinvv1/WebDriverAgent/internal/rntree"
)

func (s *Server) registerTools() {
	// grid_tree
	s.mcp.AddTool(
		mcp.NewTool("grid_tree",
			mcp.WithDescription("Rebuild the full element tree by probing a grid of points and merging shallow snapshots. Returns WDA-style XML page source by default."),
			mcp.WithNumber("samples-x", mcp.Description("Grid columns")),
			mcp.WithNumber("samples-y", mcp.Description("Grid rows")),
			mcp.WithNumber("max-depth-for-point", mcp.Description("Snapshot depth below each hit element (0 = hit element only)")),
			mcp.WithNumber("max-tree-depth", mcp.Description("Drop nodes deeper than this")),
			mcp.WithNumber("time-budget-ms", mcp.Description("Stop sampling after this many milliseconds")),
			mcp.WithString("format", mcp.Description("Output format: xml, yaml, json (default: xml)")),
			mcp.WithBoolean("include-index", mcp.Description("Add each element's sibling position to the XML")),
			mcp.WithBoolean("refresh", mcp.Description("Ignore cached results and sample again")),
		),
		s.handleGridTree,
	)

	// skeleton
	s.mcp.AddTool(
		mcp.NewTool("skeleton",
			mcp.WithDescription("Identify the element at a point with its attributes and at most one level of children"),
			mcp.WithNumber("x", mcp.Description("X coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Y coordinate"), mcp.Required()),
			mcp.WithNumber("depth", mcp.Description("0 for the element only, 1 to include children")),
			mcp.WithString("format", mcp.Description("Output format: xml, yaml, json (default: yaml)")),
		),
		s.handleSkeleton,
	)

	// fetch_element
	s.mcp.AddTool(
		mcp.NewTool("fetch_element",
			mcp.WithDescription("Return the subtree of the element at a point, truncated at a depth and optionally filtered"),
			mcp.WithNumber("x", mcp.Description("X coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Y coordinate"), mcp.Required()),
			mcp.WithNumber("max-depth", mcp.Description("Levels below the hit element (default: 3)")),
			mcp.WithString("types", mcp.Description("Comma-separated element types to keep")),
			mcp.WithBoolean("visible-only", mcp.Description("Drop invisible descendants")),
			mcp.WithString("format", mcp.Description("Output format: xml, yaml, json (default: yaml)")),
		),
		s.handleFetchElement,
	)

	// rn_tree
	s.mcp.AddTool(
		mcp.NewTool("rn_tree",
			mcp.WithDescription("Retrieve the React-Native component tree from the app's inspector or its embedded HTTP server"),
			mcp.WithString("url", mcp.Description("Tree endpoint (default: configured rn.url, then the in-process inspector)")),
			mcp.WithString("tag-key", mcp.Description("Attribute used as the XML element tag (default: type)")),
			mcp.WithString("include", mcp.Description("Comma-separated attributes to render, after flattening (default: all)")),
			mcp.WithString("exclude", mcp.Description("Comma-separated attributes never to render")),
			mcp.WithString("format", mcp.Description("Output format: xml, yaml, json (default: xml)")),
		),
		s.handleRNTree,
	)

	// page_source
	s.mcp.AddTool(
		mcp.NewTool("page_source",
			mcp.WithDescription("XML page source. Uses the React-Native tree when available and falls back to grid sampling."),
			mcp.WithString("url", mcp.Description("RN tree endpoint override")),
			mcp.WithBoolean("include-index", mcp.Description("Add each element's sibling position")),
		),
		s.handlePageSource,
	)

	// cache_config
	s.mcp.AddTool(
		mcp.NewTool("cache_config",
			mcp.WithDescription("Show attribute cache statistics and optionally change its bounds"),
			mcp.WithNumber("max-size", mcp.Description("Maximum number of cached attribute values")),
			mcp.WithNumber("expiry-ms", mcp.Description("Lifetime of a cached value in milliseconds")),
		),
		s.handleCacheConfig,
	)

	// cache_clear
	s.mcp.AddTool(
		mcp.NewTool("cache_clear",
			mcp.WithDescription("Drop cached attribute values, for one element or all of them"),
			mcp.WithString("id", mcp.Description("Element identity to clear (default: everything)")),
		),
		s.handleCacheClear,
	)
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func parseFormat(params map[string]any, def output.Format) (output.Format, error) {
	return output.ParseFormat(StringParam(params, "format", string(def)))
}

// samplingConfig overlays tool parameters on the server's defaults.
func (s *Server) samplingConfig(params map[string]any) gridsample.Config {
	cfg := s.Sampling()
	cfg.SamplesX = IntParam(params, "samples-x", cfg.SamplesX)
	cfg.SamplesY = IntParam(params, "samples-y", cfg.SamplesY)
	if _, ok := params["max-depth-for-point"]; ok {
		cfg.MaxDepthForPoint = gridsample.PointDepth(IntParam(params, "max-depth-for-point", 0))
	}
	cfg.MaxTreeDepth = IntParam(params, "max-tree-depth", cfg.MaxTreeDepth)
	if ms := IntParam(params, "time-budget-ms", 0); ms > 0 {
		cfg.TimeBudget = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// buildTree runs one sampling pass, reusing a recent complete result.
func (s *Server) buildTree(ctx context.Context, cfg gridsample.Config, refresh bool) (*gridsample.Result, bool, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if refresh {
		s.results.InvalidateAll()
	}
	return s.results.BuildTree(cfg, func() (*gridsample.Result, error) {
		return s.engine.BuildTree(ctx, cfg)
	})
}

func (s *Server) handleGridTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	format, err := parseFormat(params, output.FormatXML)
	if err != nil {
		return toolError(err), nil
	}
	cfg := s.samplingConfig(params)
	if err := cfg.Validate(); err != nil {
		return toolError(err), nil
	}

	res, cached, err := s.buildTree(ctx, cfg, BoolParam(params, "refresh", false))
	if err != nil {
		return toolError(err), nil
	}
	s.logger.Debug("grid_tree", "run_id", res.RunID, "cached", cached, "status", res.Status)

	if format == output.FormatXML {
		doc, err := pagesource.SnapshotXML(ctx, res.Root, pagesource.Options{
			IncludeIndex: BoolParam(params, "include-index", false),
		})
		if err != nil {
			return toolError(err), nil
		}
		result := mcp.NewToolResultText(doc)
		if !res.Complete() {
			result.Content = append(result.Content, mcp.NewTextContent(
				fmt.Sprintf("partial tree: %s after %d of %d points", res.StopReason, len(res.Probes), res.Points)))
		}
		return result, nil
	}

	summary := output.NewGridResult(res)
	tree, err := output.TreeOf(ctx, res.Root)
	if err != nil {
		return toolError(apperrors.Wrap(apperrors.ErrCodeSerialization, "rendering tree", err)), nil
	}
	summary.Tree = &tree
	return s.text(format, summary)
}

func pointParam(params map[string]any) (platform.Point, error) {
	_, okX := params["x"]
	_, okY := params["y"]
	if !okX || !okY {
		return platform.Point{}, fmt.Errorf("x and y are required")
	}
	return platform.Point{X: FloatParam(params, "x", 0), Y: FloatParam(params, "y", 0)}, nil
}

func (s *Server) handleSkeleton(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	pt, err := pointParam(params)
	if err != nil {
		return toolError(err), nil
	}
	format, err := parseFormat(params, output.FormatYAML)
	if err != nil {
		return toolError(err), nil
	}
	res := <-s.engine.FetchSkeletonAsync(ctx, pt, gridsample.SkeletonParams{MaxDepth: IntParam(params, "depth", 1)})
	if res.Err != nil {
		return toolError(res.Err), nil
	}
	return s.element(ctx, format, pt, res.Snapshot)
}

func (s *Server) handleFetchElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	pt, err := pointParam(params)
	if err != nil {
		return toolError(err), nil
	}
	format, err := parseFormat(params, output.FormatYAML)
	if err != nil {
		return toolError(err), nil
	}
	res := <-s.engine.FetchAsync(ctx, pt, gridsample.FetchParams{
		MaxDepth:    IntParam(params, "max-depth", gridsample.DefaultMaxDepthForPoint),
		Types:       StringSliceParam(params, "types"),
		VisibleOnly: BoolParam(params, "visible-only", false),
	})
	if res.Err != nil {
		return toolError(res.Err), nil
	}
	return s.element(ctx, format, pt, res.Snapshot)
}

// element renders a point fetch.
func (s *Server) element(ctx context.Context, format output.Format, pt platform.Point, snap model.Snapshot) (*mcp.CallToolResult, error) {
	if format == output.FormatXML {
		doc, err := pagesource.SnapshotXML(ctx, snap, pagesource.Options{})
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(doc), nil
	}
	tree, err := output.TreeOf(ctx, snap)
	if err != nil {
		return toolError(apperrors.Wrap(apperrors.ErrCodeSerialization, "rendering element", err)), nil
	}
	return s.text(format, output.NewElementResult(pt.X, pt.Y, tree))
}

// fetchRN retrieves the RN tree from url, the configured endpoint or the
// in-process inspector, in that order.
func (s *Server) fetchRN(ctx context.Context, url string) (*rntree.Node, error) {
	if url == "" {
		url = s.rnURL
	}
	if url != "" {
		return s.fetcher.FetchURL(ctx, url)
	}
	return s.fetcher.FetchApplication(ctx, s.inspector)
}

func (s *Server) handleRNTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	format, err := parseFormat(params, output.FormatXML)
	if err != nil {
		return toolError(err), nil
	}
	tree, err := s.fetchRN(ctx, StringParam(params, "url", ""))
	if err != nil {
		return toolError(err), nil
	}
	if format != output.FormatXML {
		return s.text(format, tree)
	}
	doc, err := pagesource.RNTreeXML(tree, pagesource.RNOptions{
		TagKey:  StringParam(params, "tag-key", ""),
		Include: StringSliceParam(params, "include"),
		Exclude: StringSliceParam(params, "exclude"),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(doc), nil
}

func (s *Server) handlePageSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	doc, source, err := s.pageSource(ctx, StringParam(params, "url", ""), BoolParam(params, "include-index", false))
	if err != nil {
		return toolError(err), nil
	}
	s.logger.Debug("page_source", "source", source, "bytes", len(doc))
	return mcp.NewToolResultText(doc), nil
}

// pageSource prefers the RN tree and falls back to a grid-sampled tree
// when the RN tree is unavailable or cannot be serialized.
func (s *Server) pageSource(ctx context.Context, url string, includeIndex bool) (doc, source string, err error) {
	tree, err := s.fetchRN(ctx, url)
	if err == nil {
		doc, err = pagesource.RNTreeXML(tree, pagesource.RNOptions{})
		if err == nil {
			return doc, "rn", nil
		}
	}
	s.logger.Debug("rn tree unavailable, falling back to grid sampling", "error", err)

	res, _, err := s.buildTree(ctx, s.Sampling(), false)
	if err != nil {
		return "", "", err
	}
	doc, err = pagesource.SnapshotXML(ctx, res.Root, pagesource.Options{IncludeIndex: includeIndex})
	if err != nil {
		return "", "", err
	}
	return doc, "grid", nil
}

func (s *Server) handleCacheConfig(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	cache := s.engine.Resolver().Cache()
	if n := IntParam(params, "max-size", 0); n != 0 {
		if err := cache.SetMaxSize(n); err != nil {
			return toolError(err), nil
		}
	}
	if ms := IntParam(params, "expiry-ms", 0); ms != 0 {
		if err := cache.SetExpiry(time.Duration(ms) * time.Millisecond); err != nil {
			return toolError(err), nil
		}
	}
	return s.text(output.FormatYAML, cacheConfigResult{Stats: cache.Stats(), Expiry: cache.Expiry().String()})
}

type cacheConfigResult struct {
	attrcache.Stats `yaml:",inline"`
	Expiry          string `yaml:"expiry" json:"expiry"`
}

func (s *Server) handleCacheClear(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	cache := s.engine.Resolver().Cache()
	s.results.InvalidateAll()

	type clearResult struct {
		Cleared int    `yaml:"cleared" json:"cleared"`
		ID      string `yaml:"id,omitempty" json:"id,omitempty"`
	}
	if id := StringParam(params, "id", ""); id != "" {
		return s.text(output.FormatYAML, clearResult{Cleared: cache.ClearElement(model.Identity(id)), ID: id})
	}
	n := cache.Len()
	cache.Clear()
	return s.text(output.FormatYAML, clearResult{Cleared: n})
}

// text serializes v as a tool result.
func (s *Server) text(format output.Format, v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := output.Fprint(&buf, format, v); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
