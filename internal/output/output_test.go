package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"go-job-acquirer/internal/logging"
)

func TestCreateFresh(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.csv"), []byte("old,row\n"), 0644))

	require.NoError(t, CreateFresh(dir, []string{"test.csv", "data.csv"}, logging.Discard()))

	for _, name := range []string{"test.csv", "data.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Zero(t, info.Size(), name)
	}
}

func TestRow(t *testing.T) {
	date := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	row := Row(2, date, "https://x/viewjob?jk=1", 87, "Go Developer", "Acme")
	assert.Equal(t, []string{"", "", "2026-10-19", "https://x/viewjob?jk=1", "87", "Go Developer", "Acme"}, row)
	assert.Equal(t, "87", row[2+2])
}

func TestSortByColumn(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no header",
			input: "a,70\nb,95\nc,80\n",
			want:  "b,95\nc,80\na,70\n",
		},
		{
			name:  "header kept on top",
			input: "link,score\na,70\nb,95\n",
			want:  "link,score\nb,95\na,70\n",
		},
		{
			name:  "ties keep their order",
			input: "a,80\nb,90\nc,80\n",
			want:  "b,90\na,80\nc,80\n",
		},
		{
			name:  "unparseable row leaves file unsorted",
			input: "link,score\na,70\nb,n/a\nc,90\n",
			want:  "link,score\na,70\nb,n/a\nc,90\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "jobs.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.input), 0644))

			require.NoError(t, SortByColumn(path, 1, logging.Discard()))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSortByColumn_Latin1RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	text := "Société Générale,60\nCafé Crème,90\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(text)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(latin1), 0644))

	require.NoError(t, SortByColumn(path, 1, logging.Discard()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	require.NoError(t, err)
	assert.Equal(t, "Café Crème,90\nSociété Générale,60\n", string(decoded), "file is rewritten in the encoding it was read with")
}

func TestSortByColumn_EmptyAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.NoError(t, SortByColumn(path, 4, logging.Discard()))

	assert.Error(t, SortByColumn(filepath.Join(t.TempDir(), "missing.csv"), 4, logging.Discard()))
}

func TestAppendRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "jobs.csv")
	require.NoError(t, AppendRows(path, [][]string{{"a", "1"}}))
	require.NoError(t, AppendRows(path, [][]string{{"b, with comma", "2"}}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,1\n\"b, with comma\",2\n", string(got))
}
