// Package surveymanager wraps the mining survey pool with the API calls
// that fill and drain it: CreateSurvey merges fresh surveys in,
// ExtractSurvey spends one and evicts it once the game reports it
// exhausted or invalid. Grounded on spec.md §4.6 and
// _examples/original_source/src/ship_scripts/mining.rs's survey-then-extract
// loop.
package surveymanager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/survey"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

// ErrSurveyExhausted is returned by ExtractSurvey for API error code 4224
// (the survey's deposits have been fully extracted).
var ErrSurveyExhausted = errors.New("surveymanager: survey exhausted")

// ErrSurveyInvalid is returned for API error code 4221 (survey expired or
// signature unknown to the server).
var ErrSurveyInvalid = errors.New("surveymanager: survey invalid")

// Manager is the Survey Manager: one pool per mining system, shared across
// every surveyor/drone ship in that system.
type Manager struct {
	api   ports.APIClient
	clock shared.Clock

	mu    sync.Mutex
	pools map[string]*survey.Pool
}

// New constructs a Manager with an empty pool set; pools are created
// lazily per system on first use.
func New(api ports.APIClient, clock shared.Clock) *Manager {
	return &Manager{api: api, clock: clock, pools: make(map[string]*survey.Pool)}
}

// poolFor returns systemSymbol's pool, creating it on first use. Guarded
// by mu: one Manager is shared across every mining ship's goroutine in a
// system, so the pool map itself (not just each Pool's own internal
// locking) needs protection against concurrent first-touch creation.
func (m *Manager) poolFor(systemSymbol string) *survey.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[systemSymbol]
	if !ok {
		p = survey.NewPool()
		m.pools[systemSymbol] = p
	}
	return p
}

// Survey calls the API's CreateSurvey and merges the results into
// systemSymbol's pool, returning the cooldown the caller must wait out
// before the ship can act again.
func (m *Manager) Survey(ctx context.Context, systemSymbol, shipSymbol, token string) (time.Duration, error) {
	result, err := m.api.CreateSurvey(ctx, shipSymbol, token)
	if err != nil {
		return 0, err
	}

	pool := m.poolFor(systemSymbol)
	surveys := make([]*survey.Survey, 0, len(result.Surveys))
	for _, sd := range result.Surveys {
		s, err := fromWire(sd)
		if err != nil {
			continue
		}
		surveys = append(surveys, s)
	}
	pool.InsertSurveys(surveys)

	return time.Duration(result.CooldownSecs) * time.Second, nil
}

// BestSurveyFor returns the pool's best unexpired survey for good in
// systemSymbol, or nil if none is available.
func (m *Manager) BestSurveyFor(systemSymbol, good string) *survey.Survey {
	return m.poolFor(systemSymbol).BestSurveyFor(good, m.clock.Now())
}

// ExtractSurvey extracts against a specific survey, evicting it from the
// pool on either exhaustion (4224) or invalidity (4221) per spec.md §4.6.
func (m *Manager) ExtractSurvey(ctx context.Context, systemSymbol, shipSymbol string, s *survey.Survey, token string) (*ports.ExtractionResult, time.Duration, error) {
	deposits := make([]string, 0, len(s.Deposits()))
	for _, d := range s.Deposits() {
		deposits = append(deposits, d.Symbol)
	}
	wire := ports.SurveyData{
		Signature: s.Signature(),
		Waypoint:  s.Waypoint(),
		Deposits:  deposits,
		Size:      string(s.Size()),
	}

	result, err := m.api.ExtractResourcesWithSurvey(ctx, shipSymbol, wire, token)
	if err != nil {
		return nil, 0, err
	}
	switch result.ErrorCode {
	case 4224:
		m.poolFor(systemSymbol).RemoveSurvey(s.Signature())
		return nil, 0, ErrSurveyExhausted
	case 4221:
		m.poolFor(systemSymbol).RemoveSurvey(s.Signature())
		return nil, 0, ErrSurveyInvalid
	}
	return result, time.Duration(result.CooldownSecs) * time.Second, nil
}

// SweepExpired removes every expired survey from systemSymbol's pool,
// returning the count removed. Intended to be called periodically from
// the system's probe or surveyor ship loop.
func (m *Manager) SweepExpired(systemSymbol string) int {
	return m.poolFor(systemSymbol).SweepExpired(m.clock.Now())
}

func fromWire(sd ports.SurveyData) (*survey.Survey, error) {
	expiration, err := time.Parse(time.RFC3339, sd.Expiration)
	if err != nil {
		return nil, err
	}
	deposits := make([]survey.Deposit, 0, len(sd.Deposits))
	for _, d := range sd.Deposits {
		deposits = append(deposits, survey.Deposit{Symbol: d})
	}
	return survey.NewSurvey(sd.Signature, sd.Waypoint, deposits, survey.Size(sd.Size), expiration)
}
