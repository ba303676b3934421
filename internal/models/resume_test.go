package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadResumeText_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	body := `{
  "personal_information": {"full_name": "Jane Doe", "job_title": "Backend Developer", "location": "Remote"},
  "summary": "Go developer",
  "skills": {"languages": ["Go", "Python"], "databases": ["PostgreSQL"]},
  "experience": [{"role": "Engineer", "company": "Acme", "duration": "2022-2024"}]
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	text, err := LoadResumeText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe - Backend Developer (Remote)")
	assert.Contains(t, text, "Skills: Go, Python, PostgreSQL")
	assert.Contains(t, text, "Experience: Engineer at Acme (2022-2024)")
}

func TestLoadResumeText_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Go developer, 3 years  \n"), 0644))

	text, err := LoadResumeText(path)
	require.NoError(t, err)
	assert.Equal(t, "Go developer, 3 years", text)
}

func TestLoadResumeText_Errors(t *testing.T) {
	_, err := LoadResumeText(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadResumeText(bad)
	assert.Error(t, err)
}
