// Package keepawake stops the machine from sleeping while a run is going.
package keepawake

import (
	"os/exec"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
)

// Blocker holds a helper process that inhibits sleep until Release.
type Blocker struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	logger *log.Logger
}

// command returns the inhibitor for goos, or nil when there is none.
func command(goos string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("caffeinate", "-i")
	case "linux":
		if path, err := exec.LookPath("systemd-inhibit"); err == nil {
			return exec.Command(path, "--what=sleep:idle", "--who=lister", "--why=Job listing run", "sleep", "infinity")
		}
		return exec.Command("sh", "-c", "while true; do sleep 60; done")
	default:
		return nil
	}
}

// Prevent starts the inhibitor for this OS. Failure is logged; the run goes
// on without it.
func Prevent(logger *log.Logger) *Blocker {
	return prevent(command(runtime.GOOS), logger)
}

func prevent(cmd *exec.Cmd, logger *log.Logger) *Blocker {
	b := &Blocker{logger: logger.WithPrefix("keepawake")}
	if cmd == nil {
		b.logger.Warn("⚠️ Unsupported OS for sleep prevention", "os", runtime.GOOS)
		return b
	}
	if err := cmd.Start(); err != nil {
		b.logger.Error("❌ Failed to prevent sleep", "err", err)
		return b
	}
	b.cmd = cmd
	b.logger.Info("☕ Sleep prevention on", "cmd", cmd.Path)
	return b
}

// Release stops the inhibitor. It is safe to call more than once.
func (b *Blocker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cmd == nil {
		return
	}
	if err := b.cmd.Process.Kill(); err != nil {
		b.logger.Warn("⚠️ Failed to allow sleep", "err", err)
	}
	_ = b.cmd.Wait()
	b.cmd = nil
	b.logger.Info("😴 Sleep prevention off")
}

func (b *Blocker) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cmd != nil
}
