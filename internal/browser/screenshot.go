package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// ScreenShotDebugger saves full-page screenshots into the debugging folder
// that the run report later mails out.
type ScreenShotDebugger struct {
	outputDir string
	logger    *log.Logger
}

func NewScreenShotDebugger(dir string, logger *log.Logger) *ScreenShotDebugger {
	return &ScreenShotDebugger{
		outputDir: dir,
		logger:    logger,
	}
}

// Reset empties the debugging folder, creating it if needed.
func (s *ScreenShotDebugger) Reset() error {
	if err := os.RemoveAll(s.outputDir); err != nil {
		return fmt.Errorf("remove %s: %w", s.outputDir, err)
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", s.outputDir, err)
	}
	return nil
}

// CaptureAndLog takes a screenshot named after name and the current time.
// Failures are logged and returned; callers treat them as best-effort.
func (s *ScreenShotDebugger) CaptureAndLog(page Page, name, message string) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
	s.logger.Info("📸 "+message, "file", path)

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		s.logger.Warn("⚠️ Failed to create screenshot directory", "err", err)
		return "", err
	}
	if err := page.Screenshot(path); err != nil {
		s.logger.Warn("⚠️ Failed to capture screenshot", "err", err)
		return "", err
	}
	return path, nil
}
