package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject moves into a fresh directory initialised with the defaults.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	_, err = run(t, "init", "--yes")
	require.NoError(t, err)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String() + errOut.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "mockgraph" {
		t.Errorf("expected Use to be 'mockgraph', got %s", cmd.Use)
	}

	expected := []string{"version", "init", "metadata", "mock", "snapshot", "serve", "watch"}
	for _, name := range expected {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3-test"
	defer func() { Version = "dev" }()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mockgraph:")
	assert.Contains(t, out, "1.2.3-test")
}

func TestInitCommand(t *testing.T) {
	dir := newProject(t)

	assert.FileExists(t, filepath.Join(dir, "mockgraph.yml"))
	assert.FileExists(t, filepath.Join(dir, "fixtures", "greeter.yaml"))

	_, err := run(t, "init", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err := run(t, "init", "--yes", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote mockgraph.yml")
	assert.NotContains(t, out, "greeter.yaml", "existing fixtures directory is left alone")
}

func TestInvalidConfig(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mockgraph.yml"), []byte("cache:\n  backend: memcached\n"), 0644))

	_, err := run(t, "metadata", "fixtures/greeter.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestMetadataCommand(t *testing.T) {
	newProject(t)

	out, err := run(t, "metadata", "fixtures/greeter.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "object"`)
	assert.Contains(t, out, `"greet"`)

	out, err = run(t, "metadata", "--format", "tree", "fixtures/greeter.yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "object #0\n"), out)
	assert.Contains(t, out, "  greet: function greet #1\n")

	_, err = run(t, "metadata", "--format", "xml", "fixtures/greeter.yaml")
	assert.Error(t, err)
}

func TestMetadataCommand_InvalidFixture(t *testing.T) {
	dir := newProject(t)
	bad := filepath.Join(dir, "fixtures", "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("module: ./bad\nexports:\n  f: {$ref: nowhere}\n"), 0644))

	out, err := run(t, "metadata", bad)
	require.Error(t, err)
	assert.Contains(t, out, "FIXTURE INVALID")
}

func TestMockCommand(t *testing.T) {
	newProject(t)

	out, err := run(t, "mock", "fixtures/greeter.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "greet: function greet")
	assert.Contains(t, out, "./greeter:")
	assert.Contains(t, out, "stubs")

	out, err = run(t, "mock", "--json", "fixtures/greeter.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "function"`)
}

func TestSnapshotCommands(t *testing.T) {
	newProject(t)

	out, err := run(t, "snapshot", "save", "--invoke", "fixtures/greeter.yaml")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 4, out)
	id := fields[3]
	assert.NotContains(t, out, "(0 calls)")

	out, err = run(t, "snapshot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "./greeter")

	out, err = run(t, "snapshot", "show", "--calls", id)
	require.NoError(t, err)
	assert.Contains(t, out, "module:")
	assert.Contains(t, out, "object #0")
	assert.Contains(t, out, "ORDER")
	assert.Contains(t, out, "greet")

	out, err = run(t, "snapshot", "show", "--json", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"refId": 0`)

	_, err = run(t, "snapshot", "delete", id)
	require.NoError(t, err)

	_, err = run(t, "snapshot", "show", id)
	assert.Error(t, err)

	_, err = run(t, "snapshot", "show", "not-a-uuid")
	assert.Error(t, err)
}

func TestSnapshotList_SuggestsModules(t *testing.T) {
	newProject(t)

	_, err := run(t, "snapshot", "save", "fixtures/greeter.yaml")
	require.NoError(t, err)

	out, err := run(t, "snapshot", "list", "--module", "./greter")
	require.Error(t, err)
	assert.Contains(t, out, "Did you mean: ./greeter?")
}

func TestWatchCommand_ReportsRegistrations(t *testing.T) {
	newProject(t)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	out, err := runContext(t, ctx, "watch")
	require.NoError(t, err)
	assert.Contains(t, out, "Watching fixtures")
	assert.Contains(t, out, "registered ./greeter")
}

func TestServeCommand_StopsOnCancel(t *testing.T) {
	newProject(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := runContext(t, ctx, "serve", "--addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "Serving 1 modules")
}
