package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/output"
	"github.com/abhinvv1/WebDriverAgent/internal/pagesource"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Rebuild the full element tree by grid sampling",
	Long: `Probe a grid of points over the application frame, snapshot each hit element
to a bounded depth and merge the partial views into one tree.

Examples:
  gridtree grid --fixture app.yaml
  gridtree grid --fixture app.yaml --format xml --include-index
  gridtree grid --fixture app.yaml --samples-x 4 --samples-y 6 --verify`,
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)
	addSamplingFlags(gridCmd)
	gridCmd.Flags().Bool("flat", false, "Output a flat element list with path breadcrumbs instead of a tree")
	gridCmd.Flags().Bool("probes", false, "Include the outcome of every probe point")
	gridCmd.Flags().Bool("include-index", false, "Add each element's sibling position (xml only)")
	gridCmd.Flags().Bool("verify", false, "Sample twice and fail if the two trees differ")
}

func runGrid(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, err := openProvider()
	if err != nil {
		return err
	}
	engine := newEngine(provider)
	cfg := samplingConfig(cmd)

	res, err := engine.BuildTree(ctx, cfg)
	if err != nil {
		return err
	}
	if !res.Complete() {
		app.logger.Warn("tree is partial", "stop_reason", res.StopReason, "points", res.Points, "probed", len(res.Probes))
	}

	if output.OutputFormat == output.FormatXML {
		includeIndex, _ := cmd.Flags().GetBool("include-index")
		doc, err := pagesource.SnapshotXML(ctx, res.Root, pagesource.Options{IncludeIndex: includeIndex})
		if err != nil {
			return err
		}
		return output.Print(doc)
	}

	summary := output.NewGridResult(res)
	if flat, _ := cmd.Flags().GetBool("flat"); flat {
		if summary.Elements, err = model.Flatten(ctx, res.Root); err != nil {
			return err
		}
	} else {
		tree, err := output.TreeOf(ctx, res.Root)
		if err != nil {
			return err
		}
		summary.Tree = &tree
	}
	if probes, _ := cmd.Flags().GetBool("probes"); probes {
		summary.Probes = res.Probes
	}

	verify, _ := cmd.Flags().GetBool("verify")
	if verify {
		second, err := engine.BuildTree(ctx, cfg)
		if err != nil {
			return err
		}
		diff, err := model.DiffTrees(ctx, res.Root, second.Root)
		if err != nil {
			return err
		}
		summary.Verify = &diff
	}

	if err := output.Print(summary); err != nil {
		return err
	}
	if summary.Verify != nil && !summary.Verify.Empty() {
		return fmt.Errorf("trees differ between runs: %d added, %d removed, %d moved, %d changed",
			len(summary.Verify.Added), len(summary.Verify.Removed), len(summary.Verify.Moved), len(summary.Verify.Changed))
	}
	return nil
}
