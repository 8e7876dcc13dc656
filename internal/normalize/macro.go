package normalize

import (
	"fmt"

	"github.com/solairus/aviation-brief/internal/record"
	"github.com/solairus/aviation-brief/internal/sources/macro"
)

// categoryWeight is the per-category relevance weight table; Macro
// overrides it for the crude oil and gasoline series.
var categoryWeight = map[macro.Category]float64{
	macro.CategoryFuelCosts:     0.4,
	macro.CategoryInterestRates: 0.3,
	macro.CategoryInflation:     0.25,
	macro.CategoryGDPGrowth:     0.2,
	macro.CategoryEmployment:    0.15,
}

// macroSectorBySeries restricts high-signal series to their natural
// sectors, to reduce cross-section duplication: jet fuel maps to
// {general, energy}, not to every sector.
var macroSectorBySeries = map[string][]record.Sector{
	"WJFUELUSGULF":    {record.SectorGeneral, record.SectorEnergy},
	"DCOILWTICO":      {record.SectorGeneral, record.SectorEnergy},
	"GASREGW":         {record.SectorGeneral, record.SectorEnergy},
	"DFF":             {record.SectorGeneral, record.SectorFinance},
	"DGS10":           {record.SectorGeneral, record.SectorFinance},
	"MORTGAGE30US":    {record.SectorGeneral, record.SectorRealEstate, record.SectorFinance},
	"CPIAUCSL":        {record.SectorGeneral},
	"CPILFESL":        {record.SectorGeneral},
	"PCEPI":           {record.SectorGeneral, record.SectorFinance},
	"GDPC1":           {record.SectorGeneral},
	"A191RL1Q225SBEA": {record.SectorGeneral},
	"UNRATE":          {record.SectorGeneral},
	"PAYEMS":          {record.SectorGeneral},
	"UMCSENT":         {record.SectorGeneral, record.SectorEntertain},
}

// Macro normalizes one macro.Observation into a record.Record. A record's
// SourceType is macro iff its SeriesID is non-empty; this constructor
// always sets SeriesID, so every record it produces satisfies that
// invariant.
func Macro(obs macro.Observation) record.Record {
	valueText := formatValue(obs)
	content := fmt.Sprintf("%s: %s as of %s.", obs.SeriesName, valueText, obs.ObservationDate.Format("2006-01-02"))

	weight := categoryWeight[obs.Category]
	switch obs.SeriesID {
	case "DCOILWTICO", "GASREGW":
		weight = 0.25
	}
	relevance := record.Clamp01(weight)

	sectors := macroSectorBySeries[obs.SeriesID]
	if sectors == nil {
		sectors = AssignSectors(content)
	}

	r := record.Record{
		RawContent:       content,
		ProcessedContent: content,
		Category:         string(obs.Category),
		RelevanceScore:   relevance,
		Confidence:       0.95,
		SoWhatStatement:  macroSoWhat(obs, valueText),
		AffectedSectors:  append([]record.Sector(nil), sectors...),
		ActionItems:      ActionItems(content),
		SourceType:       record.SourceMacro,
		Macro: &record.MacroFields{
			SeriesID:        obs.SeriesID,
			ObservationDate: obs.ObservationDate,
			Units:           obs.Units,
			Value:           obs.Value,
		},
	}
	r.ClampScores()
	r.EnsureSector()
	return r
}

// formatValue is series-aware: percent for rates/unemployment,
// dollars-per-unit for fuels, index-labelled for CPI/PCE, billions/trillions
// for GDP.
func formatValue(obs macro.Observation) string {
	switch obs.SeriesID {
	case "DFF", "DGS10", "MORTGAGE30US", "UNRATE", "A191RL1Q225SBEA":
		return fmt.Sprintf("%.2f%%", obs.Value)
	case "WJFUELUSGULF", "DCOILWTICO", "GASREGW":
		return fmt.Sprintf("$%.2f/unit", obs.Value)
	case "CPIAUCSL", "CPILFESL", "PCEPI":
		return fmt.Sprintf("index %.1f", obs.Value)
	case "GDPC1":
		if obs.Value >= 1000 {
			return fmt.Sprintf("$%.2fT", obs.Value/1000)
		}
		return fmt.Sprintf("$%.1fB", obs.Value)
	case "UMCSENT":
		return fmt.Sprintf("index %.1f", obs.Value)
	case "PAYEMS":
		return fmt.Sprintf("%.1fM jobs", obs.Value/1000)
	default:
		unit := obs.Units
		if unit == "" {
			unit = "units"
		}
		return fmt.Sprintf("%.2f %s", obs.Value, unit)
	}
}

func macroSoWhat(obs macro.Observation, valueText string) string {
	switch obs.Category {
	case macro.CategoryFuelCosts:
		return fmt.Sprintf("%s moved to %s; reassess flight-hour fuel cost assumptions.", obs.SeriesName, valueText)
	case macro.CategoryInterestRates:
		return fmt.Sprintf("%s is now %s; reassess financing and lease costs.", obs.SeriesName, valueText)
	case macro.CategoryInflation:
		return fmt.Sprintf("%s is now %s; revisit pricing and cost-escalation assumptions.", obs.SeriesName, valueText)
	case macro.CategoryGDPGrowth:
		return fmt.Sprintf("%s is now %s; revisit demand growth assumptions.", obs.SeriesName, valueText)
	case macro.CategoryEmployment:
		return fmt.Sprintf("%s is now %s; monitor labor-market effects on demand.", obs.SeriesName, valueText)
	default:
		return fmt.Sprintf("%s is now %s.", obs.SeriesName, valueText)
	}
}
