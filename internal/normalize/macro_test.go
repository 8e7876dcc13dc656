package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solairus/aviation-brief/internal/record"
	"github.com/solairus/aviation-brief/internal/sources/macro"
)

func TestMacroJetFuelSectorsRestricted(t *testing.T) {
	obs := macro.Observation{
		SeriesID:        "WJFUELUSGULF",
		SeriesName:      "US Gulf Coast Kerosene-Type Jet Fuel Price",
		Category:        macro.CategoryFuelCosts,
		Value:           2.75,
		ObservationDate: time.Now(),
	}

	r := Macro(obs)
	require.Equal(t, "macro", string(r.SourceType))
	require.Equal(t, 0.95, r.Confidence)
	require.InDelta(t, 0.4, r.RelevanceScore, 0.001)
	require.ElementsMatch(t, []record.Sector{record.SectorGeneral, record.SectorEnergy}, r.AffectedSectors)
	require.NotNil(t, r.Macro)
	require.Equal(t, "WJFUELUSGULF", r.Macro.SeriesID)
}

func TestMacroFormatsPercentForRates(t *testing.T) {
	obs := macro.Observation{
		SeriesID:   "DFF",
		SeriesName: "Federal Funds Effective Rate",
		Category:   macro.CategoryInterestRates,
		Value:      5.33,
	}
	r := Macro(obs)
	require.Contains(t, r.ProcessedContent, "5.33%")
}
