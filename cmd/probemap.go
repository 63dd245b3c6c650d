package cmd

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

var probeMapCmd = &cobra.Command{
	Use:   "probe-map",
	Short: "Render a sampling run as a PNG",
	Long: `Run a sampling pass and draw the frame with every discovered element's
bounds and one marker per probe point: green for a hit, blue for a duplicate,
grey for a miss and red for a failure.

Examples:
  gridtree probe-map --fixture app.yaml --output run.png
  gridtree probe-map --fixture app.yaml --scale 2 --samples-x 16 --samples-y 24`,
	RunE: runProbeMap,
}

func init() {
	rootCmd.AddCommand(probeMapCmd)
	addSamplingFlags(probeMapCmd)
	probeMapCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
	probeMapCmd.Flags().Float64("scale", 1, "Pixels per point")
}

func runProbeMap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, err := openProvider()
	if err != nil {
		return err
	}
	res, err := newEngine(provider).BuildTree(ctx, samplingConfig(cmd))
	if err != nil {
		return err
	}
	elements, err := model.Flatten(ctx, res.Root)
	if err != nil {
		return err
	}

	scale, _ := cmd.Flags().GetFloat64("scale")
	img := DrawProbeMap(res.Frame, elements, res.Probes, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	path, _ := cmd.Flags().GetString("output")
	if path != "" {
		return os.WriteFile(path, buf.Bytes(), 0644)
	}
	encoder := base64.NewEncoder(base64.StdEncoding, cmd.OutOrStdout())
	if _, err := encoder.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
