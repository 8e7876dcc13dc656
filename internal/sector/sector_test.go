package sector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solairus/aviation-brief/internal/record"
)

func TestOrganizeSelectsSectorAndGeneralRecords(t *testing.T) {
	techOnly := record.Record{
		RawContent:       "A new cloud computing investment signals growth in enterprise software spending.",
		ProcessedContent: "A new cloud computing investment signals growth in enterprise software spending.",
		RelevanceScore:   0.6,
		SoWhatStatement:  "Tech sector demand is rising.",
		AffectedSectors:  []record.Sector{record.SectorTechnology},
	}
	generalOnly := record.Record{
		RawContent:       "Jet fuel prices rose, creating broad cost pressure and risk across carriers.",
		ProcessedContent: "Jet fuel prices rose, creating broad cost pressure and risk across carriers.",
		RelevanceScore:   0.9,
		SoWhatStatement:  "Fuel costs are a broad risk.",
		AffectedSectors:  []record.Sector{record.SectorGeneral},
	}
	financeOnly := record.Record{
		RawContent:       "A new lending facility opened for regional banks this quarter.",
		ProcessedContent: "A new lending facility opened for regional banks this quarter.",
		RelevanceScore:   0.4,
		SoWhatStatement:  "Finance liquidity may improve.",
		AffectedSectors:  []record.Sector{record.SectorFinance},
	}

	bundles := Organize([]record.Record{techOnly, generalOnly, financeOnly})

	var tech, finance record.SectorBundle
	for _, b := range bundles {
		switch b.Sector {
		case record.SectorTechnology:
			tech = b
		case record.SectorFinance:
			finance = b
		}
	}

	require.Len(t, tech.Records, 2)
	require.Equal(t, record.SectorGeneral, tech.Records[0].AffectedSectors[0]) // higher relevance first
	require.Len(t, finance.Records, 2)
}

func TestSummarizeConcatenatesTopThreeSoWhats(t *testing.T) {
	records := []record.Record{
		{RelevanceScore: 0.9, SoWhatStatement: "first", AffectedSectors: []record.Sector{record.SectorGeneral}},
		{RelevanceScore: 0.8, SoWhatStatement: "second", AffectedSectors: []record.Sector{record.SectorGeneral}},
		{RelevanceScore: 0.7, SoWhatStatement: "third", AffectedSectors: []record.Sector{record.SectorGeneral}},
		{RelevanceScore: 0.6, SoWhatStatement: "fourth", AffectedSectors: []record.Sector{record.SectorGeneral}},
	}

	bundles := Organize(records)
	var general record.SectorBundle
	for _, b := range bundles {
		if b.Sector == record.SectorGeneral {
			general = b
		}
	}
	require.Equal(t, "first second third", general.Summary)
}

func TestExtractByKeywordsDeduplicatesAndCaps(t *testing.T) {
	risky := record.Record{
		RawContent:       "This creates a serious risk. This also creates a serious risk. A separate shortage threatens supply.",
		RelevanceScore:   0.5,
		AffectedSectors:  []record.Sector{record.SectorGeneral},
	}
	bundles := Organize([]record.Record{risky})
	var general record.SectorBundle
	for _, b := range bundles {
		if b.Sector == record.SectorGeneral {
			general = b
		}
	}
	require.LessOrEqual(t, len(general.Risks), maxRisks)
	require.NotEmpty(t, general.Risks)
}
