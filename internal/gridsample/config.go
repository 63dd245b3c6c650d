package gridsample

import (
	"time"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

const (
	DefaultSamplesX         = 8
	DefaultSamplesY         = 12
	DefaultMaxDepthForPoint = 3
	DefaultMaxTreeDepth     = 60
	DefaultTimeBudget       = 10 * time.Second
	DefaultProbeTimeout     = 2 * time.Second
)

// DepthHitOnly is the MaxDepthForPoint value that snapshots the hit element
// without descendants. Zero cannot express this because it selects the
// default depth.
const DepthHitOnly = -1

// PointDepth converts a depth given explicitly by a user, where 0 means the
// hit element alone, into a MaxDepthForPoint value.
func PointDepth(requested int) int {
	if requested == 0 {
		return DepthHitOnly
	}
	return requested
}

// Config controls a sampling run. Zero fields take defaults.
type Config struct {
	SamplesX         int           `yaml:"samplesX"         json:"samples_x"`
	SamplesY         int           `yaml:"samplesY"         json:"samples_y"`
	MaxDepthForPoint int           `yaml:"maxDepthForPoint" json:"max_depth_for_point"`
	MaxTreeDepth     int           `yaml:"maxTreeDepth"     json:"max_tree_depth"`
	TimeBudget       time.Duration `yaml:"timeBudget"       json:"time_budget"`
	ProbeTimeout     time.Duration `yaml:"probeTimeout"     json:"probe_timeout"`
}

// DefaultConfig returns the default sampling configuration.
func DefaultConfig() Config {
	return Config{
		SamplesX:         DefaultSamplesX,
		SamplesY:         DefaultSamplesY,
		MaxDepthForPoint: DefaultMaxDepthForPoint,
		MaxTreeDepth:     DefaultMaxTreeDepth,
		TimeBudget:       DefaultTimeBudget,
		ProbeTimeout:     DefaultProbeTimeout,
	}
}

// WithDefaults returns c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.SamplesX == 0 {
		c.SamplesX = d.SamplesX
	}
	if c.SamplesY == 0 {
		c.SamplesY = d.SamplesY
	}
	if c.MaxDepthForPoint == 0 {
		c.MaxDepthForPoint = d.MaxDepthForPoint
	}
	if c.MaxTreeDepth == 0 {
		c.MaxTreeDepth = d.MaxTreeDepth
	}
	if c.TimeBudget == 0 {
		c.TimeBudget = d.TimeBudget
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	return c
}

// Validate rejects negative values other than DepthHitOnly.
func (c Config) Validate() error {
	if c.MaxDepthForPoint < DepthHitOnly {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig,
			"sampling value must not be negative", map[string]any{"field": "maxDepthForPoint", "value": c.MaxDepthForPoint})
	}
	fields := map[string]int64{
		"samplesX":     int64(c.SamplesX),
		"samplesY":     int64(c.SamplesY),
		"maxTreeDepth": int64(c.MaxTreeDepth),
		"timeBudget":   int64(c.TimeBudget),
		"probeTimeout": int64(c.ProbeTimeout),
	}
	for name, v := range fields {
		if v < 0 {
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig,
				"sampling value must not be negative", map[string]any{"field": name, "value": v})
		}
	}
	return nil
}

// pointDepth is the snapshot depth requested for each hit element.
func (c Config) pointDepth() int {
	if c.MaxDepthForPoint == DepthHitOnly {
		return 0
	}
	return c.MaxDepthForPoint
}

// GridPoints returns the centres of a cols×rows grid over frame in
// row-major order.
func GridPoints(frame platform.Rect, cols, rows int) []platform.Point {
	if cols <= 0 || rows <= 0 || frame.Empty() {
		return nil
	}
	cellW := frame.Width / float64(cols)
	cellH := frame.Height / float64(rows)
	points := make([]platform.Point, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			points = append(points, platform.Point{
				X: frame.X + (float64(c)+0.5)*cellW,
				Y: frame.Y + (float64(r)+0.5)*cellH,
			})
		}
	}
	return points
}
