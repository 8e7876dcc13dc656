package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solairus/aviation-brief/internal/sources/trade"
)

func TestTradeRelevanceHarmfulAviationRecent(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	iv := trade.Intervention{
		InterventionID:  "123",
		Title:           "Export control on aircraft parts",
		Description:     "New export control measure targeting aviation components.",
		Evaluation:      "Harmful",
		AffectedSectors: []string{"Aviation"},
		DateImplemented: now.AddDate(0, 0, -10),
	}

	r := Trade(iv, now)
	require.Equal(t, "trade", string(r.SourceType))
	require.InDelta(t, 1.0, r.RelevanceScore, 0.001) // 0.5+0.3+0.2+0.3 clamped to 1.0
	require.Equal(t, 0.8, r.Confidence)
}

func TestTradeConfidenceWithProvenance(t *testing.T) {
	now := time.Now()
	iv := trade.Intervention{
		Title:   "Tariff increase",
		Sources: []map[string]any{{"url": "https://example.com"}},
	}
	r := Trade(iv, now)
	require.Equal(t, 0.9, r.Confidence)
}

func TestTradeFreshnessOldNonAviation(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	iv := trade.Intervention{
		Title:           "Subsidy for domestic manufacturing",
		Evaluation:      "Unclear",
		DateImplemented: now.AddDate(-2, 0, 0),
	}
	r := Trade(iv, now)
	require.InDelta(t, 0.3, r.RelevanceScore, 0.001) // 0.5 - 0.2 = 0.3
}
