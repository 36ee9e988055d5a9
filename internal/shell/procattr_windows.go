//go:build windows

package shell

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

func killProcessGroup(pid int) error {
	// /T takes the child tree (node under cmd.exe) down as well.
	if err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run(); err != nil {
		return fmt.Errorf("taskkill %d: %w", pid, err)
	}
	return nil
}

func killPortListeners(port int) {
	out, err := exec.Command("netstat", "-ano").Output()
	if err != nil {
		return
	}
	suffix := fmt.Sprintf(":%d", port)
	killed := map[string]bool{}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || !strings.HasSuffix(fields[1], suffix) || fields[3] != "LISTENING" {
			continue
		}
		pid := fields[4]
		if killed[pid] {
			continue
		}
		if err := exec.Command("taskkill", "/F", "/PID", pid).Run(); err == nil {
			killed[pid] = true
			logging.Info("killed process on port", "pid", pid, "port", port)
		}
	}
}
