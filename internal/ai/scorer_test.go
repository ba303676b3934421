package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-job-acquirer/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Complete(context.Context, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestFirstResponse_FallsBackOnEmptyPrimary(t *testing.T) {
	primary := &fakeBackend{name: "gemini", reply: "   "}
	secondary := &fakeBackend{name: "groq", reply: "[88, 12]"}

	text, backend, err := FirstResponse(context.Background(), []Backend{primary, secondary}, "p", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "[88, 12]", text)
	assert.Equal(t, "groq", backend)
	assert.Equal(t, 1, primary.calls)
}

func TestFirstResponse_FallsBackOnError(t *testing.T) {
	primary := &fakeBackend{name: "gemini", err: errors.New("quota exhausted")}
	secondary := &fakeBackend{name: "groq", reply: "88% match"}

	text, _, err := FirstResponse(context.Background(), []Backend{primary, secondary}, "p", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "88% match", text)
}

func TestFirstResponse_PrimaryWins(t *testing.T) {
	primary := &fakeBackend{name: "gemini", reply: "[1]"}
	secondary := &fakeBackend{name: "groq", reply: "[2]"}

	text, backend, err := FirstResponse(context.Background(), []Backend{primary, secondary}, "p", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "[1]", text)
	assert.Equal(t, "gemini", backend)
	assert.Zero(t, secondary.calls)
}

func TestFirstResponse_AllFail(t *testing.T) {
	_, _, err := FirstResponse(context.Background(), []Backend{
		&fakeBackend{name: "gemini", err: errors.New("down")},
		&fakeBackend{name: "groq"},
	}, "p", logging.Discard())
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Contains(t, err.Error(), "down")
}

func TestParsePercentages(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		expect  []int
		wantErr bool
	}{
		{"json array", "[90, 45, 70]", 3, []int{90, 45, 70}, false},
		{"json in fences", "```json\n[90, 45]\n```", 2, []int{90, 45}, false},
		{"json floats clamp", "[99.5, 120, -3]", 3, []int{99, 100, 0}, false},
		{"digit scan", "Title one: 85%\nTitle two: 40%", 2, []int{85, 40}, false},
		{"digit scan drops out of range", "2024 review: 85, 40", 2, []int{85, 40}, false},
		{"too few", "[90]", 2, nil, true},
		{"too many from scan", "1. 80\n2. 60", 2, nil, true},
		{"nothing", "no idea", 1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePercentages(tt.text, tt.want)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMisaligned)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("Rate these.", "Go developer", []string{"Go Engineer", "Chef"})
	assert.True(t, strings.HasPrefix(p, "Rate these.\n\nGo developer\n\nJobs Titles:\n1. Go Engineer\n2. Chef\n"))
	assert.Contains(t, p, "exactly 2 integers")
}

func TestScorer_Score(t *testing.T) {
	primary := &fakeBackend{name: "gemini", err: errors.New("quota")}
	secondary := &fakeBackend{name: "groq", reply: "[80, 20]"}
	s := NewScorer([]Backend{primary, secondary}, "policy", "resume", 0, logging.Discard())

	scores, err := s.Score(context.Background(), []string{"Go Engineer", "Chef"})
	require.NoError(t, err)
	assert.Equal(t, []int{80, 20}, scores)

	scores, err = s.Score(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, scores)
}

func TestScorer_MisalignedResponse(t *testing.T) {
	s := NewScorer([]Backend{&fakeBackend{name: "groq", reply: "[80]"}}, "", "", 0, logging.Discard())
	_, err := s.Score(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestGroqBackend_Complete(t *testing.T) {
	var got groqRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  [75, 30]  "}}]}`))
	}))
	defer srv.Close()

	b := NewGroqBackend("secret", "llama-3.3-70b-versatile")
	b.url = srv.URL

	text, err := b.Complete(context.Background(), "score these")
	require.NoError(t, err)
	assert.Equal(t, "[75, 30]", text)
	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "score these", got.Messages[0].Content)
}

func TestGroqBackend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"garbage", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			b := NewGroqBackend("k", "m")
			b.url = srv.URL
			_, err := b.Complete(context.Background(), "p")
			assert.Error(t, err)
		})
	}
}
