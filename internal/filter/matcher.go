package filter

import "sync"

// CompanyCounter caps accepted postings per company for the life of the
// process. One counter is shared by every session.
type CompanyCounter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

func NewCompanyCounter(limit int) *CompanyCounter {
	return &CompanyCounter{
		limit:  limit,
		counts: make(map[string]int),
	}
}

// TryAcquire counts one posting for company unless the company already
// reached the cap. The count taken before incrementing decides, so with a
// cap of C exactly C postings are accepted.
func (c *CompanyCounter) TryAcquire(company string) bool {
	key := Normalize(company)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counts[key] >= c.limit {
		return false
	}
	c.counts[key]++
	return true
}

// Release gives back a slot taken by TryAcquire for a posting that was not
// accepted after all.
func (c *CompanyCounter) Release(company string) {
	key := Normalize(company)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counts[key] > 0 {
		c.counts[key]--
	}
}

func (c *CompanyCounter) Count(company string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[Normalize(company)]
}
