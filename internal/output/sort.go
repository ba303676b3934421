package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type textEncoding struct {
	name string
	enc  encoding.Encoding
}

// readEncodings are tried in order; the first that decodes wins and is also
// used to write the sorted file back.
var readEncodings = []textEncoding{
	{"utf-8", nil},
	{"latin1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
	{"utf-8-sig", unicode.UTF8BOM},
}

func decode(te textEncoding, data []byte) (string, error) {
	if te.enc == nil {
		if !utf8.Valid(data) {
			return "", errors.New("invalid utf-8")
		}
		return string(data), nil
	}
	out, err := te.enc.NewDecoder().Bytes(data)
	return string(out), err
}

func encode(te textEncoding, s string) ([]byte, error) {
	if te.enc == nil {
		return []byte(s), nil
	}
	return te.enc.NewEncoder().Bytes([]byte(s))
}

// SortByColumn rewrites the CSV at path with its rows sorted by column col,
// highest first. A first row whose column col is not an integer is kept on
// top as a header. Rows that do not parse leave the file unsorted. An
// empty file is left alone.
func SortByColumn(path string, col int, logger *log.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var (
		rows   [][]string
		chosen textEncoding
		found  bool
	)
	for _, te := range readEncodings {
		text, err := decode(te, data)
		if err != nil {
			continue
		}
		r := csv.NewReader(strings.NewReader(text))
		r.FieldsPerRecord = -1
		rows, err = r.ReadAll()
		if err != nil {
			logger.Warn("⚠️ Error reading CSV", "file", path, "encoding", te.name, "err", err)
			continue
		}
		chosen, found = te, true
		logger.Info("📖 Read CSV", "file", path, "encoding", te.name)
		break
	}
	if !found || len(rows) == 0 {
		logger.Warn("⚠️ Could not read file or file is empty, skipping", "file", path)
		return nil
	}

	var header []string
	body := rows
	if _, ok := intAt(rows[0], col); !ok {
		header, body = rows[0], rows[1:]
	}

	keys := make([]int, len(body))
	sortable := true
	for i, row := range body {
		n, ok := intAt(row, col)
		if !ok {
			sortable = false
			break
		}
		keys[i] = n
	}
	if sortable {
		idx := make([]int, len(body))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] > keys[idx[b]] })
		sorted := make([][]string, len(body))
		for i, j := range idx {
			sorted[i] = body[j]
		}
		body = sorted
	} else {
		logger.Warn("⚠️ Sorting failed, saving unsorted", "file", path, "column", col)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header != nil {
		w.Write(header)
	}
	w.WriteAll(body)
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	out, err := encode(chosen, buf.String())
	if err != nil {
		return fmt.Errorf("encode %s as %s: %w", path, chosen.name, err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("✅ Sorted and saved", "file", path)
	return nil
}

func intAt(row []string, col int) (int, bool) {
	if col < 0 || col >= len(row) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(row[col]))
	return n, err == nil
}
