package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCopiesFixtureAndIsolatesRuns(t *testing.T) {
	fixture := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fixture, "data.txt"), []byte("abc"), 0o644))

	tmpRoot := t.TempDir()
	ws1, err := Create(tmpRoot, "suite", fixture)
	require.NoError(t, err)
	defer ws1.Destroy()

	data, err := os.ReadFile(filepath.Join(ws1.Path, "data.txt"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	require.NoError(t, os.WriteFile(filepath.Join(ws1.Path, "data.txt"), []byte("mutated"), 0o644))

	ws2, err := Create(tmpRoot, "suite", fixture)
	require.NoError(t, err)
	defer ws2.Destroy()

	data2, err := os.ReadFile(filepath.Join(ws2.Path, "data.txt"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data2), "second workspace must not see the first workspace's mutation")
}

func TestEnvAdditions(t *testing.T) {
	ws := &Workspace{Path: "/tmp/ws1", SuitePath: "/suites/basic"}
	env := ws.EnvAdditions()
	assert.Contains(t, env, "CCTR_WORK_DIR=/tmp/ws1")
	assert.Contains(t, env, "CCTR_FIXTURE_DIR=/tmp/ws1")
	assert.Contains(t, env, "CCTR_TEST_PATH=/suites/basic")
}

func TestDestroyRemovesDirectory(t *testing.T) {
	tmpRoot := t.TempDir()
	ws, err := Create(tmpRoot, "suite", "")
	require.NoError(t, err)
	require.NoError(t, ws.Destroy())
	_, statErr := os.Stat(ws.Path)
	assert.True(t, os.IsNotExist(statErr))
}
