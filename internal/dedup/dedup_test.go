package dedup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go-job-acquirer/internal/logging"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"viewjob", "https://www.indeed.com/viewjob?jk=12345", "12345"},
		{"among other params", "https://www.indeed.com/jobs?q=python+developer&l=remote&jk=1234567890abcdef", "1234567890abcdef"},
		{"relative link", "/rc/clk?jk=abc&from=vj", "abc"},
		{"no param", "https://www.indeed.com/jobs?q=go", ""},
		{"empty", "", ""},
		{"unparseable", "http://[::1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JobID(tt.url))
		})
	}
}

func TestLoad_DeduplicatesIdentifiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.txt")
	urls := []string{
		"https://www.indeed.com/viewjob?jk=12345",
		"https://www.indeed.com/viewjob?jk=67890",
		"https://www.indeed.com/viewjob?jk=12345",
		"not a job url",
		"https://www.indeed.com/viewjob?jk=11111",
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(urls, "\n")), 0644))

	got := Load(path, logging.Discard())
	assert.True(t, got.Equal(mapset.NewSet("12345", "67890", "11111")))
}

func TestLoad_OverlongLineDoesNotHideLaterLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.txt")
	content := "https://www.indeed.com/viewjob?jk=1\n" +
		strings.Repeat("x", 70_000) + "\n" +
		"https://www.indeed.com/viewjob?jk=2" // no trailing newline
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got := Load(path, logging.Discard())
	assert.ElementsMatch(t, []string{"1", "2"}, got.ToSlice())
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "missing.txt"), logging.Discard())
	assert.Equal(t, 0, got.Cardinality())
}

func TestAppend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "processed_jobs.txt")
	first := []string{"https://job1.com", "https://job2.com"}
	second := []string{"https://job3.com"}

	require.NoError(t, Append(path, first))
	require.NoError(t, Append(path, second))
	require.NoError(t, Append(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"))
}

func TestTruncate_KeepsLastLinesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.txt")
	var links []string
	for i := 0; i < DefaultKeep+250; i++ {
		links = append(links, fmt.Sprintf("https://www.indeed.com/viewjob?jk=%d", i))
	}
	require.NoError(t, Append(path, links))

	kept, err := Truncate(path, DefaultKeep)
	require.NoError(t, err)
	assert.Equal(t, DefaultKeep, kept)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, DefaultKeep)
	assert.Equal(t, links[250:], lines)
}

func TestTruncate_ShortFileUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.txt")
	require.NoError(t, Append(path, []string{"a", "b"}))

	kept, err := Truncate(path, DefaultKeep)
	require.NoError(t, err)
	assert.Equal(t, 2, kept)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestLedger_ClaimIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.txt")
	require.NoError(t, Append(path, []string{"https://www.indeed.com/viewjob?jk=old"}))

	l := NewLedger(path, logging.Discard())
	assert.True(t, l.Seen("old"))
	assert.False(t, l.Claim("old"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Claim("new") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 2, l.Len())
}

func TestLedger_AppendAndTruncateLogFailures(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger(filepath.Join(dir, "missing", "x.txt"), logging.Discard())

	// Truncating a file that does not exist is logged, not raised.
	l.Truncate(10)

	l.Append([]string{"https://www.indeed.com/viewjob?jk=1"})
	assert.FileExists(t, filepath.Join(dir, "missing", "x.txt"))
}

func TestLock_ExclusiveUntilUnlocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "processed_jobs.txt")

	first, err := Lock(path)
	require.NoError(t, err)

	_, err = Lock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Unlock())
	second, err := Lock(path)
	require.NoError(t, err)
	require.NoError(t, second.Unlock())
}
