package pipeline

import (
	"go-job-acquirer/internal/dedup"
	"go-job-acquirer/internal/filter"
	"go-job-acquirer/internal/models"
)

// SkipReason says why a posting row was dropped.
type SkipReason string

const (
	SkipNoID           SkipReason = "no_id"
	SkipDuplicate      SkipReason = "duplicate"
	SkipIgnoredCompany SkipReason = "ignored_company"
	SkipExcludedTitle  SkipReason = "excluded_title"
	SkipCompanyCap     SkipReason = "company_cap"
)

// SharedState is the run-wide state every walker works against: the dedup
// ledger, the per-company cap and the local filters. One handle is built
// per run and passed to every session.
type SharedState struct {
	Ledger  *dedup.Ledger
	Counter *filter.CompanyCounter
	Ignore  *filter.Keywords
	Exclude *filter.Keywords
}

// Accept runs the row filters for p in order and, when it passes, claims
// its identifier in the ledger and one slot of its company's cap. A
// posting rejected here leaves no trace in the shared state.
func (s *SharedState) Accept(p models.Posting) (SkipReason, bool) {
	if p.ID == "" {
		return SkipNoID, false
	}
	if s.Ledger.Seen(p.ID) {
		return SkipDuplicate, false
	}
	if s.Ignore != nil && s.Ignore.Is(p.Company) {
		return SkipIgnoredCompany, false
	}
	if s.Exclude != nil {
		if _, found := s.Exclude.Contains(p.Title); found {
			return SkipExcludedTitle, false
		}
	}
	if !s.Counter.TryAcquire(p.Company) {
		return SkipCompanyCap, false
	}
	// another session may have claimed the id since Seen
	if !s.Ledger.Claim(p.ID) {
		s.Counter.Release(p.Company)
		return SkipDuplicate, false
	}
	return "", true
}
