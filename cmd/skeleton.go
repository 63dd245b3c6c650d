package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
)

var skeletonCmd = &cobra.Command{
	Use:   "skeleton",
	Short: "Identify the element at a point",
	Long: `Return the element at a point with its attributes and at most one level of
children. Cheaper than fetch when only the element's identity is needed.`,
	RunE: runSkeleton,
}

func init() {
	rootCmd.AddCommand(skeletonCmd)
	skeletonCmd.Flags().String("at", "", "Point to identify (x,y)")
	skeletonCmd.Flags().Int("depth", 1, "0 for the element only, 1 to include its children")
}

func runSkeleton(cmd *cobra.Command, args []string) error {
	pt, err := pointFlag(cmd)
	if err != nil {
		return err
	}
	provider, err := openProvider()
	if err != nil {
		return err
	}
	depth, _ := cmd.Flags().GetInt("depth")

	res := <-newEngine(provider).FetchSkeletonAsync(cmd.Context(), pt, gridsample.SkeletonParams{MaxDepth: depth})
	if res.Err != nil {
		return res.Err
	}
	return printSnapshot(cmd.Context(), pt, res.Snapshot)
}
