package filter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case and spaces", "  Acme   Corp ", "acme corp"},
		{"diacritics", "Café Société", "cafe societe"},
		{"vietnamese", "Công Ty Cổ Phần", "cong ty co phan"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestKeywords(t *testing.T) {
	ignore := NewKeywords([]string{"Acme Corp", "", "Staffing Café"})
	assert.True(t, ignore.Is("acme  corp"))
	assert.True(t, ignore.Is("STAFFING CAFE"))
	assert.False(t, ignore.Is("Acme Corporation"))

	exclude := NewKeywords([]string{"Senior", "lead"})
	word, ok := exclude.Contains("Senior Go Engineer")
	assert.True(t, ok)
	assert.Equal(t, "senior", word)

	_, ok = exclude.Contains("Junior Backend Developer")
	assert.False(t, ok)
}

func TestCompanyCounter_CapIsExact(t *testing.T) {
	tests := []struct {
		name     string
		cap      int
		postings int
		want     int
	}{
		{"cap plus one", 2, 3, 2},
		{"under cap", 3, 2, 2},
		{"cap of one", 1, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompanyCounter(tt.cap)
			accepted := 0
			for i := 0; i < tt.postings; i++ {
				if c.TryAcquire("Acme") {
					accepted++
				}
			}
			assert.Equal(t, tt.want, accepted)
			assert.Equal(t, tt.want, c.Count("ACME"))
		})
	}
}

func TestCompanyCounter_Release(t *testing.T) {
	c := NewCompanyCounter(1)
	assert.True(t, c.TryAcquire("Acme"))
	assert.False(t, c.TryAcquire("Acme"))

	c.Release("Acme")
	assert.True(t, c.TryAcquire("Acme"))

	c.Release("Unknown")
	assert.Equal(t, 0, c.Count("Unknown"))
}

func TestCompanyCounter_SharedAcrossGoroutines(t *testing.T) {
	c := NewCompanyCounter(3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryAcquire("Acme") {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
}
