package dedup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofrs/flock"
)

// JobIDParam is the listing URL query parameter carrying the job identifier.
const JobIDParam = "jk"

const DefaultKeep = 8000

// JobID returns the identifier carried by a listing URL, or "" when the
// URL has none or does not parse.
func JobID(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return u.Query().Get(JobIDParam)
}

// Ledger is the advisory record of processed jobs: an in-memory set of
// identifiers loaded once, and an append-only URL log backing it.
// Identifiers are never removed from the set during a run.
type Ledger struct {
	path   string
	seen   mapset.Set[string]
	fileMu sync.Mutex
	logger *log.Logger
}

// NewLedger loads the ledger at path. A missing or unreadable file gives an
// empty ledger.
func NewLedger(path string, logger *log.Logger) *Ledger {
	l := &Ledger{
		path:   path,
		logger: logger.WithPrefix("ledger"),
	}
	l.seen = Load(path, l.logger)
	return l
}

// Load parses one URL per line and collects the job identifiers. Lines
// without an identifier are skipped.
func Load(path string, logger *log.Logger) mapset.Set[string] {
	ids := mapset.NewSet[string]()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("📋 No processed jobs file yet, starting empty", "path", path)
		} else {
			logger.Error("⚠️ Failed to read processed jobs file", "path", path, "err", err)
		}
		return ids
	}
	defer f.Close()

	// no line length limit
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if id := JobID(line); id != "" {
			ids.Add(id)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error("⚠️ Failed while reading processed jobs file", "path", path, "err", err)
			break
		}
	}

	logger.Info("📋 Loaded job IDs", "count", ids.Cardinality(), "path", path)
	return ids
}

// Seen reports whether id was loaded at startup or claimed during this run.
func (l *Ledger) Seen(id string) bool {
	return l.seen.Contains(id)
}

// Claim marks id as seen in memory and reports whether it was new. The
// check and the insert are one step, so two sessions can never both claim
// the same id.
func (l *Ledger) Claim(id string) bool {
	return l.seen.Add(id)
}

func (l *Ledger) Len() int {
	return l.seen.Cardinality()
}

// Append writes links to the backing file. Failures are logged only.
func (l *Ledger) Append(links []string) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if err := Append(l.path, links); err != nil {
		l.logger.Error("⚠️ Failed to update processed jobs", "err", err)
		return
	}
	l.logger.Debug("💾 Updated processed jobs", "links", len(links))
}

// Truncate keeps only the last keep lines of the backing file. Failures are
// logged only.
func (l *Ledger) Truncate(keep int) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	kept, err := Truncate(l.path, keep)
	if err != nil {
		l.logger.Error("⚠️ Failed to clean processed jobs file", "err", err)
		return
	}
	l.logger.Info("🧹 Trimmed processed jobs file", "entries", kept)
}

// ErrLocked is returned by Lock when another process holds the ledger.
var ErrLocked = errors.New("processed jobs file is in use by another run")

// Lock takes an exclusive, non-blocking lock on the ledger at path so two
// runs never append to or truncate the same file. Call Unlock on the result
// when the run ends.
func Lock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock ledger: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl, nil
}

// Append opens path in append mode and writes one link per line.
func Append(path string, links []string) error {
	if len(links) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, link := range links {
		if _, err := w.WriteString(link + "\n"); err != nil {
			return fmt.Errorf("write ledger: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return f.Sync()
}

// Truncate rewrites path with only its last keep lines, preserving order.
// It returns how many lines remain.
func Truncate(path string, keep int) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.Join(lines, "")), 0644); err != nil {
		return 0, fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("replace ledger: %w", err)
	}
	return len(lines), nil
}
