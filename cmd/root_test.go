package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
	"github.com/abhinvv1/WebDriverAgent/internal/output"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

const twoButtons = `
depthLimit: 1
application:
  id: app
  type: XCUIElementTypeApplication
  frame: 0,0,300,300
  children:
    - id: window
      type: XCUIElementTypeWindow
      children:
        - id: ok
          type: XCUIElementTypeButton
          frame: 0,0,300,150
          attributes: {name: ok, label: OK}
        - id: cancel
          type: XCUIElementTypeButton
          frame: 0,150,300,150
          attributes: {name: cancel, label: Cancel}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoButtons), 0o644))
	return path
}

// resetFlags restores every flag to its default so executions don't leak
// into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns what it printed to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	done := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(r)
		done <- data
	}()

	rootCmd.SetArgs(append(args, "--log-level", "error"))
	runErr := rootCmd.Execute()
	require.NoError(t, w.Close())
	return string(<-done), runErr
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"grid", "skeleton", "fetch", "rn-tree", "probe-map", "serve"}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, found[name], "expected subcommand %q", name)
	}
}

func TestRootCommand_Version(t *testing.T) {
	assert.NotEmpty(t, rootCmd.Version)
}

func TestSamplingConfig_FlagsOverrideConfig(t *testing.T) {
	c := &cobra.Command{Use: "x"}
	addSamplingFlags(c)
	require.NoError(t, c.Flags().Set("samples-x", "4"))
	require.NoError(t, c.Flags().Set("time-budget", "2s"))

	cfg := samplingConfig(c)
	assert.Equal(t, 4, cfg.SamplesX)
	assert.Equal(t, 2*time.Second, cfg.TimeBudget)
	assert.Equal(t, app.cfg.Sampling.SamplesY, cfg.SamplesY)
	assert.Equal(t, app.cfg.Sampling.MaxDepthForPoint, cfg.MaxDepthForPoint)
}

func TestSamplingConfig_ZeroPointDepthMeansHitOnly(t *testing.T) {
	c := &cobra.Command{Use: "x"}
	addSamplingFlags(c)
	assert.Equal(t, app.cfg.Sampling.MaxDepthForPoint, samplingConfig(c).MaxDepthForPoint)

	require.NoError(t, c.Flags().Set("max-depth-for-point", "0"))
	assert.Equal(t, gridsample.DepthHitOnly, samplingConfig(c).MaxDepthForPoint)
}

func TestPointFlag(t *testing.T) {
	c := &cobra.Command{Use: "x"}
	c.Flags().String("at", "", "")

	_, err := pointFlag(c)
	assert.Error(t, err)

	require.NoError(t, c.Flags().Set("at", "10, 20.5"))
	pt, err := pointFlag(c)
	require.NoError(t, err)
	assert.Equal(t, platform.Point{X: 10, Y: 20.5}, pt)
}

func TestGridCommand_JSON(t *testing.T) {
	path := writeFixture(t)
	out, err := execute(t, "grid", "--fixture", path, "--format", "json", "--samples-x", "3", "--samples-y", "3", "--probes")
	require.NoError(t, err)

	var res output.GridResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, gridsample.StatusComplete, res.Status)
	assert.Equal(t, 9, res.Points)
	assert.Len(t, res.Probes, 9)
	require.NotNil(t, res.Tree)
	assert.Equal(t, "XCUIElementTypeApplication", res.Tree.Type)
	require.Len(t, res.Tree.Children, 1)

	var ids []string
	for _, c := range res.Tree.Children[0].Children {
		ids = append(ids, string(c.ID))
	}
	assert.Equal(t, []string{"ok", "cancel"}, ids)
}

func TestGridCommand_FlatVerify(t *testing.T) {
	path := writeFixture(t)
	out, err := execute(t, "grid", "--fixture", path, "--format", "json", "--samples-x", "2", "--samples-y", "2", "--flat", "--verify")
	require.NoError(t, err)

	var res output.GridResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Nil(t, res.Tree)
	assert.NotEmpty(t, res.Elements)
	require.NotNil(t, res.Verify)
	assert.True(t, res.Verify.Empty())
}

func TestGridCommand_XML(t *testing.T) {
	path := writeFixture(t)
	out, err := execute(t, "grid", "--fixture", path, "--format", "xml", "--include-index")
	require.NoError(t, err)
	assert.Contains(t, out, "<XCUIElementTypeApplication")
	assert.Contains(t, out, `name="cancel"`)
	assert.Contains(t, out, `index="1"`)
}

func TestSkeletonCommand(t *testing.T) {
	path := writeFixture(t)
	out, err := execute(t, "skeleton", "--fixture", path, "--at", "150,200", "--depth", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "id: cancel")
	assert.Contains(t, out, "label: Cancel")

	_, err = execute(t, "skeleton", "--fixture", path)
	assert.Error(t, err)
}

func TestFetchCommand(t *testing.T) {
	path := writeFixture(t)
	out, err := execute(t, "fetch", "--fixture", path, "--at", "500,500")
	require.Error(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "fetch", "--fixture", path, "--at", "150,75", "--format", "json")
	require.NoError(t, err)
	var res output.ElementResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "ok", string(res.Element.ID))
	assert.Equal(t, 150.0, res.X)
}

func TestRNTreeCommand_Inspector(t *testing.T) {
	out, err := execute(t, "rn-tree", "--fixture", "../internal/platform/fixture/testdata/login.yaml", "--format", "xml")
	require.NoError(t, err)
	assert.Contains(t, out, `<View type="View" testID="root"`)
}

func TestRNTreeCommand_AttributeFilters(t *testing.T) {
	fixture := "../internal/platform/fixture/testdata/login.yaml"
	out, err := execute(t, "rn-tree", "--fixture", fixture, "--format", "xml", "--exclude", "text")
	require.NoError(t, err)
	assert.Contains(t, out, `<Text type="Text" testID="greeting"`)
	assert.NotContains(t, out, `text="Hello"`)

	out, err = execute(t, "rn-tree", "--fixture", fixture, "--format", "xml", "--include", "testID")
	require.NoError(t, err)
	assert.Contains(t, out, `<View testID="root"`)
	assert.NotContains(t, out, `type="View"`)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}

func TestProbeMapCommand(t *testing.T) {
	path := writeFixture(t)
	png := filepath.Join(t.TempDir(), "map.png")
	_, err := execute(t, "probe-map", "--fixture", path, "--output", png, "--samples-x", "2", "--samples-y", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestRootCommand_BadFormat(t *testing.T) {
	_, err := execute(t, "grid", "--fixture", writeFixture(t), "--format", "csv")
	assert.Error(t, err)
}
