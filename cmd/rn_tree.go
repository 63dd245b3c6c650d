package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhinvv1/WebDriverAgent/internal/output"
	"github.com/abhinvv1/WebDriverAgent/internal/pagesource"
	"github.com/abhinvv1/WebDriverAgent/internal/rntree"
)

var rnTreeCmd = &cobra.Command{
	Use:   "rn-tree",
	Short: "Retrieve the React-Native component tree",
	Long: `Retrieve the React-Native component tree, either from the HTTP server
embedded in the app (--url or rn.url in the config) or from the platform's
in-process inspector.

Examples:
  gridtree rn-tree --url http://127.0.0.1:8082/tree --format xml
  gridtree rn-tree --fixture app.yaml
  gridtree rn-tree --fixture app.yaml --format xml --exclude style.color,style.margin`,
	RunE: runRNTree,
}

func init() {
	rootCmd.AddCommand(rnTreeCmd)
	rnTreeCmd.Flags().String("url", "", "Tree endpoint (default from config)")
	rnTreeCmd.Flags().String("tag-key", pagesource.DefaultRNTagKey, "Attribute used as the XML element tag")
	rnTreeCmd.Flags().String("include", "", "Comma-separated attributes to render, after flattening (default: all)")
	rnTreeCmd.Flags().String("exclude", "", "Comma-separated attributes never to render")
}

func runRNTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fetcher := newFetcher()

	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = app.cfg.RN.URL
	}

	var (
		tree *rntree.Node
		err  error
	)
	if url != "" {
		tree, err = fetcher.FetchURL(ctx, url)
	} else {
		provider, perr := openProvider()
		if perr != nil {
			return perr
		}
		tree, err = fetcher.FetchApplication(ctx, inspectorOf(provider))
	}
	if err != nil {
		return err
	}

	if output.OutputFormat != output.FormatXML {
		return output.Print(tree)
	}
	tagKey, _ := cmd.Flags().GetString("tag-key")
	include, _ := cmd.Flags().GetString("include")
	exclude, _ := cmd.Flags().GetString("exclude")
	doc, err := pagesource.RNTreeXML(tree, pagesource.RNOptions{
		TagKey:  tagKey,
		Include: splitList(include),
		Exclude: splitList(exclude),
	})
	if err != nil {
		return err
	}
	return output.Print(doc)
}
