package ai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solairus/aviation-brief/internal/record"
)

func TestSanitizeRedactsClientNameWordBounded(t *testing.T) {
	r := record.Record{
		RawContent:       "Meridian Capital announced new financing for regional carriers.",
		ProcessedContent: "Meridian Capital announced new financing for regional carriers.",
		SoWhatStatement:  "Meridian Capital may see higher costs.",
		Category:         "trade_intervention",
	}
	clientSectors := map[string]string{"Meridian Capital": "finance"}

	out := sanitize(r, clientSectors)
	require.Contains(t, out.RawContent, "[FINANCE_CLIENT]")
	require.NotContains(t, out.RawContent, "Meridian")
	require.Contains(t, out.SoWhatStatement, "[FINANCE_CLIENT]")
	require.Equal(t, "trade_intervention", out.Category) // structured fields untouched
}

func TestSanitizeUsesSectorTokenPerClient(t *testing.T) {
	r := record.Record{RawContent: "Cisco is expanding its supplier base amid tariff pressure."}
	clientSectors := map[string]string{"Cisco": "technology"}

	out := sanitize(r, clientSectors)
	require.Contains(t, out.RawContent, "[TECHNOLOGY_CLIENT]")
	require.NotContains(t, out.RawContent, "Cisco")
}

func TestSanitizeNoOpWithoutClientMap(t *testing.T) {
	r := record.Record{RawContent: "Meridian Capital announced new financing."}
	out := sanitize(r, nil)
	require.Equal(t, r.RawContent, out.RawContent)
}

func TestParseExecSummaryRecoversAllThreeSections(t *testing.T) {
	raw := `BOTTOM LINE:
- Fuel costs are rising across the sector.
- Demand remains resilient despite cost pressure.

KEY FINDINGS:
## Fuel cost pressure
Jet fuel prices rose 5% this quarter.
- Refinery outages are a contributing factor.

WATCH FACTORS:
* Jet fuel price | Weekly EIA price releases | Drives near-term margin pressure
`
	summary, ok := parseExecSummary(raw)
	require.True(t, ok)
	require.Len(t, summary.BottomLine, 2)
	require.Len(t, summary.KeyFindings, 1)
	require.Equal(t, "Fuel cost pressure", summary.KeyFindings[0].Subheader)
	require.Len(t, summary.KeyFindings[0].Bullets, 1)
	require.Len(t, summary.WatchFactors, 1)
	require.Equal(t, "Jet fuel price", summary.WatchFactors[0].Indicator)
}

func TestParseExecSummaryNoMarkersFails(t *testing.T) {
	_, ok := parseExecSummary("just some unstructured text with no markers")
	require.False(t, ok)
}

func TestParseSoWhatExtractsSentence(t *testing.T) {
	got := parseSoWhat("Some preamble.\nSO WHAT: Airlines should reassess hedging strategy.\n")
	require.Equal(t, "Airlines should reassess hedging strategy.", got)
}

func TestValidateClaimAcceptsInformationNotAvailable(t *testing.T) {
	ok := validateClaim("Information not available for this sector.", []string{"unrelated corpus text"}, strictMode)
	require.True(t, ok)
}

func TestValidateClaimRejectsUnsupportedPercentage(t *testing.T) {
	ok := validateClaim("Fuel prices rose 42% this quarter.", []string{"Fuel prices increased modestly this quarter."}, strictMode)
	require.False(t, ok)
}

func TestValidateClaimAcceptsSupportedPercentage(t *testing.T) {
	ok := validateClaim("Fuel prices rose 5% this quarter.", []string{"Jet fuel prices rose 5% amid refinery outages."}, strictMode)
	require.True(t, ok)
}

func TestDeterministicExecSummaryProducesNonEmptyResult(t *testing.T) {
	records := []record.Record{
		{SourceType: record.SourceNarrative, RelevanceScore: 0.9, Confidence: 0.9, ProcessedContent: "x", SoWhatStatement: "Airlines face rising costs."},
		{SourceType: record.SourceTrade, RelevanceScore: 0.6, Confidence: 0.8, ProcessedContent: "y", SoWhatStatement: "Tariffs may raise costs."},
	}
	summary := deterministicExecSummary(records)
	require.NotEmpty(t, summary.BottomLine)
	require.NotEmpty(t, summary.KeyFindings)
	require.Equal(t, "Airlines face rising costs.", summary.BottomLine[0])
}
