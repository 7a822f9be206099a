//go:build unix

package exec

import (
	"os/exec"
	"syscall"
)

// isolate puts the child in its own process group so a timeout kills
// anything it spawned as well.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
