package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solairus/aviation-brief/internal/record"
)

func rec(source record.SourceType, relevance, confidence float64, content string) record.Record {
	r := record.Record{
		SourceType:       source,
		RelevanceScore:   relevance,
		Confidence:       confidence,
		ProcessedContent: content,
	}
	r.EnsureSector()
	return r
}

func TestFreshnessFilterDropsStaleTrade(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	stale := rec(record.SourceTrade, 0.8, 0.8, "Old tariff measure on steel imports announced long ago.")
	stale.Trade = &record.TradeFields{ImplementationDate: now.AddDate(0, 0, -200)}

	fresh := rec(record.SourceTrade, 0.8, 0.8, "Recent tariff measure on aircraft parts announced this month.")
	fresh.Trade = &record.TradeFields{ImplementationDate: now.AddDate(0, 0, -10)}

	out := Merge(now, []record.Record{stale, fresh})
	require.Len(t, out, 1)
	require.Contains(t, out[0].ProcessedContent, "Recent tariff")
}

func TestRankStableOrdersByCompositeScoreDescending(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	low := rec(record.SourceMacro, 0.3, 0.9, "Low scoring macro observation about general employment trends nationwide.")
	high := rec(record.SourceNarrative, 0.9, 0.9, "High scoring narrative fragment about aviation fuel cost spikes globally.")

	out := Merge(now, []record.Record{low, high})
	require.Len(t, out, 2)
	require.Contains(t, out[0].ProcessedContent, "High scoring")
}

func TestDeduplicateDropsNearIdenticalFragments(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	base := "Jet fuel prices surged this week due to refinery outages across the Gulf Coast region impacting carriers."
	a := rec(record.SourceNarrative, 0.8, 0.8, base)
	b := rec(record.SourceNarrative, 0.7, 0.8, base+" Analysts agree.")

	out := Merge(now, []record.Record{a, b})
	require.Len(t, out, 1)
}

func TestDeduplicateKeepsDistinctFragments(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := rec(record.SourceNarrative, 0.8, 0.8, "Jet fuel prices surged this week due to refinery outages across the Gulf Coast.")
	b := rec(record.SourceNarrative, 0.8, 0.8, "Labor union negotiations stalled at three major carriers over pay disputes.")

	out := Merge(now, []record.Record{a, b})
	require.Len(t, out, 2)
}

func TestPrioritizeTopicsPromotesCanonicalMacroRecord(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	narrativeMention := rec(record.SourceNarrative, 0.95, 0.95, "Commentary suggests inflation pressures are broadly easing across sectors this year.")
	macroCanonical := rec(record.SourceMacro, 0.3, 0.95, "Inflation data for the period shows continued moderation in core prices.")

	out := Merge(now, []record.Record{narrativeMention, macroCanonical})
	require.Len(t, out, 2)
	require.Equal(t, record.SourceMacro, out[0].SourceType)
}

func TestMergeEmptyInputReturnsNil(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := Merge(now)
	require.Nil(t, out)
}
