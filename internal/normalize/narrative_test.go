package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solairus/aviation-brief/internal/sources/narrative"
)

func TestNarrativeSplitsNumberedList(t *testing.T) {
	item := strings.Repeat("Jet fuel prices rose sharply this quarter due to refinery constraints. ", 4)
	require.Greater(t, len(item), 250)

	response := "\n1. " + item + "\n2. " + item + "\n3. " + item

	records := Narrative(narrative.RawPayload{Response: response})
	require.Len(t, records, 3)
}

func TestNarrativeStripsHedgeSentences(t *testing.T) {
	response := "Fuel costs have risen significantly. The analysis has not identified a clear cause. Airlines will face pressure."

	records := Narrative(narrative.RawPayload{Response: response})
	require.Len(t, records, 1)
	require.NotContains(t, strings.ToLower(records[0].ProcessedContent), "has not identified")
}

func TestNarrativeFragmentsBelowLengthGateAreDiscarded(t *testing.T) {
	response := "\n1. short\n2. also short"

	records := Narrative(narrative.RawPayload{Response: response})
	require.Len(t, records, 1) // falls back to the whole response as one record
}

func TestNarrativeScoresClamped(t *testing.T) {
	response := strings.Repeat("aircraft aviation airline airport jet fuel risk opportunity revenue cost ", 30)
	records := Narrative(narrative.RawPayload{Response: response, Sources: []map[string]any{{"title": "x"}}})
	require.NotEmpty(t, records)
	for _, r := range records {
		require.GreaterOrEqual(t, r.RelevanceScore, 0.0)
		require.LessOrEqual(t, r.RelevanceScore, 1.0)
		require.GreaterOrEqual(t, r.Confidence, 0.0)
		require.LessOrEqual(t, r.Confidence, 1.0)
		require.NotEmpty(t, r.AffectedSectors)
	}
}
