// Package report mails the debugging screenshots and the run log at the end
// of a run.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/wneessen/go-mail"

	"go-job-acquirer/internal/config"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

type Emailer struct {
	cfg    config.Report
	logger *log.Logger
	send   func(ctx context.Context, m *mail.Msg) error
}

func NewEmailer(cfg config.Report, logger *log.Logger) *Emailer {
	e := &Emailer{cfg: cfg, logger: logger.WithPrefix("report")}
	e.send = e.dialAndSend
	return e
}

func (e *Emailer) configured() bool {
	return e.cfg.Sender != "" && e.cfg.Password != "" && e.cfg.Recipient != "" && e.cfg.Server != ""
}

// Attachments lists the screenshots in dir, sorted, followed by logFile.
// Missing sources are logged and skipped.
func (e *Emailer) Attachments(dir, logFile string) []string {
	var files []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		e.logger.Warn("⚠️ Screenshot folder not found", "dir", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() || !imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	if info, err := os.Stat(logFile); err == nil && !info.IsDir() {
		files = append(files, logFile)
	} else {
		e.logger.Warn("⚠️ Log file not found", "file", logFile)
	}
	return files
}

// Send mails every attachment in one message. It does nothing when the SMTP
// settings are incomplete or there is nothing to attach, and reports whether
// a message went out.
func (e *Emailer) Send(ctx context.Context, dir, logFile, runID string) (bool, error) {
	if !e.configured() {
		e.logger.Error("❌ Missing one or more email settings, skipping report")
		return false, nil
	}

	files := e.Attachments(dir, logFile)
	if len(files) == 0 {
		e.logger.Warn("⚠️ No files found to attach")
		return false, nil
	}

	m := mail.NewMsg()
	if err := m.From(e.cfg.Sender); err != nil {
		return false, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(e.cfg.Recipient); err != nil {
		return false, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject("🪲 Debugging Files")
	m.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("Attached are the latest debugging screenshots and logs.\n\nRun: %s\n", runID))
	for _, f := range files {
		m.AttachFile(f)
	}

	if err := e.send(ctx, m); err != nil {
		return false, fmt.Errorf("send report: %w", err)
	}
	e.logger.Info("📧 Email sent", "recipient", e.cfg.Recipient, "attachments", len(files))
	return true, nil
}

// dialAndSend requires STARTTLS before authenticating.
func (e *Emailer) dialAndSend(ctx context.Context, m *mail.Msg) error {
	c, err := mail.NewClient(e.cfg.Server,
		mail.WithPort(e.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.cfg.Sender),
		mail.WithPassword(e.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}
