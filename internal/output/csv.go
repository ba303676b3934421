// Package output manages the per-listing CSV files that collect qualified
// jobs.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DateLayout is the format of the date column.
const DateLayout = "2006-01-02"

// several sessions can share one output file
var appendMu sync.Mutex

// CreateFresh creates dir and an empty file for each name, truncating any
// file left by a previous run.
func CreateFresh(dir string, names []string, logger *log.Logger) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		f.Close()
		logger.Info("📄 Created fresh file", "path", path)
	}
	return nil
}

// Row lays out one qualified job. The score lands at index leaveBlank+2,
// after the blank columns, the date and the link.
func Row(leaveBlank int, date time.Time, link string, score int, title, company string) []string {
	row := make([]string, leaveBlank, leaveBlank+5)
	return append(row, date.Format(DateLayout), link, strconv.Itoa(score), title, company)
}

// AppendRows appends rows to the CSV file at path, creating it if needed.
func AppendRows(path string, rows [][]string) error {
	appendMu.Lock()
	defer appendMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Sync()
}
