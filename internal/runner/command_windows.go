//go:build windows

package runner

import "os/exec"

// setProcAttr is a no-op on Windows. A true process-tree kill there needs
// a job object (golang.org/x/sys/windows), which this module does not
// depend on; killProcessGroup falls back to killing the direct child only.
func setProcAttr(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
