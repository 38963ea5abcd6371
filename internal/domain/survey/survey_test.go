package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_BestSurveyFor_PrefersHigherYield(t *testing.T) {
	p := NewPool()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	small, err := NewSurvey("sig-1", "X1-AB-A1", []Deposit{{Symbol: "IRON_ORE"}}, SizeSmall, now.Add(time.Hour))
	require.NoError(t, err)
	large, err := NewSurvey("sig-2", "X1-AB-A1", []Deposit{{Symbol: "IRON_ORE"}, {Symbol: "IRON_ORE"}}, SizeLarge, now.Add(time.Hour))
	require.NoError(t, err)
	unrelated, err := NewSurvey("sig-3", "X1-AB-A1", []Deposit{{Symbol: "COPPER_ORE"}}, SizeLarge, now.Add(time.Hour))
	require.NoError(t, err)

	p.InsertSurveys([]*Survey{small, large, unrelated})

	best := p.BestSurveyFor("IRON_ORE", now)
	require.NotNil(t, best)
	assert.Equal(t, "sig-2", best.Signature())
}

func TestPool_BestSurveyFor_SkipsExpired(t *testing.T) {
	p := NewPool()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expired, err := NewSurvey("sig-1", "X1-AB-A1", []Deposit{{Symbol: "IRON_ORE"}}, SizeLarge, now.Add(-time.Minute))
	require.NoError(t, err)
	p.InsertSurveys([]*Survey{expired})

	assert.Nil(t, p.BestSurveyFor("IRON_ORE", now))
}

func TestPool_RemoveSurveyAndSweepExpired(t *testing.T) {
	p := NewPool()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSurvey("sig-1", "X1-AB-A1", []Deposit{{Symbol: "IRON_ORE"}}, SizeSmall, now.Add(-time.Second))
	require.NoError(t, err)
	p.InsertSurveys([]*Survey{s})

	assert.Equal(t, 1, p.SweepExpired(now))
	assert.Equal(t, 0, p.Len())

	live, err := NewSurvey("sig-2", "X1-AB-A1", []Deposit{{Symbol: "IRON_ORE"}}, SizeSmall, now.Add(time.Hour))
	require.NoError(t, err)
	p.InsertSurveys([]*Survey{live})
	p.RemoveSurvey("sig-2")
	assert.Equal(t, 0, p.Len())
}
