package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-platform/delegatehoist/internal/config"
	"github.com/anvil-platform/delegatehoist/internal/snapshot"
)

const testOptions = `runtime: webpack-runtime
applicationName: app1
eager: true
remotes:
  app2: "internal app2@http://localhost:3001/remoteEntry.js"
shared:
  react: {}
`

const testSnapshot = `name: app1-client
modules:
- id: webpack/container/reference/app2
  resource: app2@http://localhost:3001/remoteEntry.js
- id: ./node_modules/react/index.js
  rawRequest: react
- id: ./src/index.js
  rawRequest: ./src/index
chunks:
- name: webpack-runtime
  runtime: true
- name: app1-main
  modules: [webpack/container/reference/app2, ./node_modules/react/index.js, ./src/index.js]
`

type fixtureFiles struct {
	dir      string
	options  string
	snapshot string
}

func writeFixture(t *testing.T, options string) fixtureFiles {
	t.Helper()
	dir := t.TempDir()
	f := fixtureFiles{
		dir:      dir,
		options:  filepath.Join(dir, "delegatehoist.yaml"),
		snapshot: filepath.Join(dir, "snapshot.yaml"),
	}
	require.NoError(t, os.WriteFile(f.options, []byte(options), 0o644))
	require.NoError(t, os.WriteFile(f.snapshot, []byte(testSnapshot), 0o644))
	return f
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRunCommand_Table(t *testing.T) {
	f := writeFixture(t, testOptions)

	stdout, _, err := execute(t, "run", "--config", f.options, "--snapshot", f.snapshot, "--passes", "2")
	require.NoError(t, err)

	assert.Contains(t, stdout, "changed")
	assert.Contains(t, stdout, "converged")
	assert.Contains(t, stdout, "webpack-runtime")
	assert.Contains(t, stdout, "./src/index.js")
}

func TestRunCommand_JSONAndWrite(t *testing.T) {
	f := writeFixture(t, testOptions)
	out := filepath.Join(f.dir, "out.yaml")

	stdout, _, err := execute(t, "run", "--config", f.options, "--snapshot", f.snapshot, "--passes", "2", "--write", out, "-o", "json")
	require.NoError(t, err)

	var res struct {
		Compilation string `json:"compilation"`
		Passes      []struct {
			Pass   int64  `json:"pass"`
			Result string `json:"result"`
		} `json:"passes"`
		Graph snapshot.Document `json:"graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.NotEmpty(t, res.Compilation)
	require.Len(t, res.Passes, 2)
	assert.Equal(t, "changed", res.Passes[0].Result)
	assert.Equal(t, "converged", res.Passes[1].Result)

	written, err := snapshot.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"webpack-runtime": {"./node_modules/react/index.js", "webpack/container/reference/app2"},
		"app1-main":       {"./src/index.js"},
	}, written.Adjacency())
	assert.Equal(t, res.Graph, written.Document())
}

func TestRunCommand_ServerCompiler(t *testing.T) {
	f := writeFixture(t, testOptions)

	stdout, _, err := execute(t, "run", "--config", f.options, "--snapshot", f.snapshot, "--compiler", "server", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "applicationsSkipped: ServerCompilation")
}

func TestRunCommand_Errors(t *testing.T) {
	f := writeFixture(t, testOptions)

	_, _, err := execute(t, "run", "--config", f.options, "--snapshot", f.snapshot, "--passes", "0")
	assert.ErrorContains(t, err, "--passes")

	_, _, err = execute(t, "run", "--config", f.options, "--snapshot", f.snapshot, "-o", "xml")
	assert.ErrorContains(t, err, "invalid output format")

	_, _, err = execute(t, "run", "--config", f.options)
	assert.ErrorContains(t, err, "snapshot")

	_, _, err = execute(t, "run", "--config", f.options, "--snapshot", filepath.Join(f.dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscoverCommand(t *testing.T) {
	f := writeFixture(t, testOptions)

	stdout, _, err := execute(t, "discover", "--config", f.options, "--snapshot", f.snapshot, "-o", "json")
	require.NoError(t, err)

	var found []discoveredModule
	require.NoError(t, json.Unmarshal([]byte(stdout), &found))
	assert.Equal(t, []discoveredModule{{
		ID:       "webpack/container/reference/app2",
		Resource: "app2@http://localhost:3001/remoteEntry.js",
		Class:    "none",
	}}, found)
}

func TestValidateCommand(t *testing.T) {
	valid := writeFixture(t, testOptions)
	stdout, _, err := execute(t, "validate", "--config", valid.options)
	require.NoError(t, err)
	assert.Contains(t, stdout, "options valid")

	invalid := writeFixture(t, "container: rt\nruntime: rt\ndelegateRequestMode: fragment\n")
	_, stderr, err := execute(t, "validate", "--config", invalid.options)
	require.ErrorIs(t, err, config.ErrInvalidOptions)
	assert.Contains(t, stderr, "container")
	assert.Contains(t, stderr, "delegateRequestMode")

	warn := writeFixture(t, "runtime: rt\neager: true\n")
	_, stderr, err = execute(t, "validate", "--config", warn.options)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: eager has no effect without applicationName")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCommand_RecompilesOnChange(t *testing.T) {
	f := writeFixture(t, testOptions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr lockedBuffer
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"watch", "--config", f.options, "--snapshot", f.snapshot, "--metrics-bind-address", "0", "-o", "json"})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	errCh := make(chan error, 1)
	go func() { errCh <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return bytes.Count([]byte(stdout.String()), []byte(`"compilation"`)) >= 1
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(f.options, []byte(testOptions+"debug: true\n"), 0o644))

	require.Eventually(t, func() bool {
		return bytes.Count([]byte(stdout.String()), []byte(`"compilation"`)) >= 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
