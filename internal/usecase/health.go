package usecase

import "NewsHarvester/internal/domain"

// Escalation reports a site that has produced nothing for Streak cycles in a row.
type Escalation struct {
	Site   string
	Streak int
	Err    error
}

// SiteHealth counts consecutive empty cycles per site.
type SiteHealth struct {
	threshold int
	streaks   map[string]int
}

// NewSiteHealth escalates every threshold consecutive empty cycles; threshold <= 0 disables it.
func NewSiteHealth(threshold int) *SiteHealth {
	return &SiteHealth{threshold: threshold, streaks: map[string]int{}}
}

// Observe updates streaks from one cycle and returns the sites that crossed the threshold.
func (h *SiteHealth) Observe(results []domain.SiteResult) []Escalation {
	var out []Escalation
	for _, res := range results {
		if !res.Empty() {
			delete(h.streaks, res.Site)
			continue
		}

		h.streaks[res.Site]++
		streak := h.streaks[res.Site]
		if h.threshold > 0 && streak%h.threshold == 0 {
			out = append(out, Escalation{Site: res.Site, Streak: streak, Err: res.Err})
		}
	}
	return out
}

// Streak returns the current consecutive empty count for site.
func (h *SiteHealth) Streak(site string) int {
	return h.streaks[site]
}
