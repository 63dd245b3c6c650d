package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the subtree of the element at a point",
	Long: `Hit-test a point and return the element found there with its descendants,
truncated at --depth and optionally filtered. A point on empty space returns
the application element.

Examples:
  gridtree fetch --fixture app.yaml --at 195,420
  gridtree fetch --fixture app.yaml --at 195,420 --depth 2 --types XCUIElementTypeButton`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().String("at", "", "Point to fetch (x,y)")
	fetchCmd.Flags().Int("depth", gridsample.DefaultMaxDepthForPoint, "Levels below the hit element")
	fetchCmd.Flags().String("types", "", "Comma-separated element types to keep")
	fetchCmd.Flags().Bool("visible-only", false, "Drop invisible descendants")
}

func runFetch(cmd *cobra.Command, args []string) error {
	pt, err := pointFlag(cmd)
	if err != nil {
		return err
	}
	provider, err := openProvider()
	if err != nil {
		return err
	}

	depth, _ := cmd.Flags().GetInt("depth")
	typesFlag, _ := cmd.Flags().GetString("types")
	visibleOnly, _ := cmd.Flags().GetBool("visible-only")
	snap, err := newEngine(provider).FetchAt(cmd.Context(), pt, gridsample.FetchParams{
		MaxDepth:    depth,
		Types:       splitList(typesFlag),
		VisibleOnly: visibleOnly,
	})
	if err != nil {
		return err
	}
	return printSnapshot(cmd.Context(), pt, snap)
}
