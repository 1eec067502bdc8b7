package runner

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultShell(t *testing.T) {
	got := defaultShell()
	if runtime.GOOS == "windows" {
		assert.Equal(t, "powershell", got)
	} else {
		assert.Equal(t, "bash", got)
	}
}

func TestRunCommandWarnsOnMultiLineCmdShell(t *testing.T) {
	res := runCommand(context.Background(), "cmd", "echo one\necho two", t.TempDir(), nil, nil)
	assert.NotEmpty(t, res.Warning)
}

func TestRunCommandNoWarningOnSingleLineCmdShell(t *testing.T) {
	res := runCommand(context.Background(), "cmd", "echo one", t.TempDir(), nil, nil)
	assert.Empty(t, res.Warning)
}
