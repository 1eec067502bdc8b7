package cctrconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cctr.yml")
	require.NoError(t, os.WriteFile(path, []byte("shell: zsh\nparallel: 4\nenv:\n  - FOO=bar\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "zsh", cfg.Shell)
	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, []string{"FOO=bar"}, cfg.Env)
}

func TestLoadRejectsBadEnvEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cctr.yml")
	require.NoError(t, os.WriteFile(path, []byte("env:\n  - NOTKEYVALUE\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
