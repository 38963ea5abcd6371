package survey

import (
	"sync"
	"time"
)

// Pool is the Survey Manager's in-memory, mutex-guarded survey store.
// Grounded on spec.md §4.6: insert_surveys merges, best_survey_for picks
// the highest expected yield unexpired survey for a target good, and
// remove_survey purges after exhausted/invalid extraction.
type Pool struct {
	mu      sync.Mutex
	surveys map[string]*Survey
}

func NewPool() *Pool {
	return &Pool{surveys: make(map[string]*Survey)}
}

// InsertSurveys merges new surveys into the pool, keyed by signature.
func (p *Pool) InsertSurveys(surveys []*Survey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range surveys {
		p.surveys[s.Signature()] = s
	}
}

// RemoveSurvey purges a survey from the pool, e.g. after it is exhausted
// (API error 4224) or found invalid (4221).
func (p *Pool) RemoveSurvey(signature string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.surveys, signature)
}

// BestSurveyFor picks the highest expected-yield, unexpired survey for the
// target good, breaking ties in favor of the survey with more remaining
// time before expiration.
func (p *Pool) BestSurveyFor(good string, now time.Time) *Survey {
	p.mu.Lock()
	defer p.mu.Unlock()

	var best *Survey
	bestRank := -1
	for _, s := range p.surveys {
		if s.IsExpired(now) || !s.HasGood(good) {
			continue
		}
		rank := s.ExpectedYieldRank(good)
		if rank > bestRank || (rank == bestRank && best != nil && s.Expiration().After(best.Expiration())) {
			best = s
			bestRank = rank
		}
	}
	return best
}

// Len reports the current pool size, including expired entries not yet
// swept.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.surveys)
}

// SweepExpired removes every survey that has expired as of now, returning
// the count removed.
func (p *Pool) SweepExpired(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for sig, s := range p.surveys {
		if s.IsExpired(now) {
			delete(p.surveys, sig)
			removed++
		}
	}
	return removed
}
