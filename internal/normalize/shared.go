// Package normalize lifts each source's raw payloads into uniform
// record.Record values. This file holds the helpers shared across the
// normalizers: aviation-domain relevance scoring (used by the narrative
// normalizer), sector assignment, and action-item generation.
package normalize

import (
	"strings"

	"github.com/solairus/aviation-brief/internal/record"
)

// keyword weight tables for the shared relevance policy.
var (
	directAviationTerms = []string{
		"aircraft", "aviation", "airline", "airport", "jet fuel", "flight",
		"fbo", "charter flight", "air carrier",
	}
	indirectAviationTerms = []string{
		"business travel", "corporate travel", "private jet", "fuel price",
		"travel demand", "logistics",
	}
	businessImpactTerms = []string{
		"revenue", "cost", "margin", "demand", "supply chain", "pricing",
		"investment", "earnings",
	}
	riskOpportunityTerms = []string{
		"risk", "opportunity", "threat", "disruption", "growth", "expansion",
	}
)

const (
	directAviationWeight   = 0.15
	directAviationCap      = 0.4
	indirectAviationWeight = 0.10
	indirectAviationCap    = 0.2
	businessImpactWeight   = 0.08
	businessImpactCap      = 0.2
	riskOppWeight          = 0.05
	riskOppCap             = 0.2
)

// AviationRelevance computes the keyword-weighted aviation-domain relevance
// used by the narrative normalizer, which clamps it to 1.0. The trade and
// macro normalizers score relevance with their own policies instead.
func AviationRelevance(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	score += weightedCount(lower, directAviationTerms, directAviationWeight, directAviationCap)
	score += weightedCount(lower, indirectAviationTerms, indirectAviationWeight, indirectAviationCap)
	score += weightedCount(lower, businessImpactTerms, businessImpactWeight, businessImpactCap)
	score += weightedCount(lower, riskOpportunityTerms, riskOppWeight, riskOppCap)

	return score
}

func weightedCount(lower string, terms []string, weight, capAt float64) float64 {
	total := 0.0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			total += weight
		}
	}
	if total > capAt {
		total = capAt
	}
	return total
}

// sectorTable keys every sector (other than general) to a keyword set
// (+1 match) and a stronger trigger set (+2 match); a sector is included
// when its accumulated score is >= 2.
type sectorSignals struct {
	Keywords []string
	Triggers []string
}

var sectorTable = map[record.Sector]sectorSignals{
	record.SectorTechnology: {
		Keywords: []string{"software", "semiconductor", "cloud", "data center", "chip"},
		Triggers: []string{"technology sanctions", "export control on technology", "tech transfer restriction"},
	},
	record.SectorFinance: {
		Keywords: []string{"bank", "capital", "investment", "interest rate", "credit"},
		Triggers: []string{"capital control", "sanctions on financial institutions"},
	},
	record.SectorRealEstate: {
		Keywords: []string{"property", "mortgage", "construction", "housing"},
		Triggers: []string{"real estate investment restriction"},
	},
	record.SectorEntertain: {
		Keywords: []string{"media", "streaming", "entertainment", "content"},
		Triggers: []string{"media export restriction"},
	},
	record.SectorEnergy: {
		Keywords: []string{"oil", "gas", "energy", "fuel", "crude", "pipeline"},
		Triggers: []string{"energy sanctions", "fuel export ban"},
	},
	record.SectorHealthcare: {
		Keywords: []string{"pharmaceutical", "hospital", "medical", "health"},
		Triggers: []string{"medical supply restriction"},
	},
}

// AssignSectors computes affected_sectors via per-sector keyword/trigger
// tables (keyword match = +1; trigger match = +2; inclusion threshold >= 2).
// It returns an empty slice when no sector reaches the threshold; the
// general-sector fallback is applied afterwards by record.Record.EnsureSector.
func AssignSectors(text string) []record.Sector {
	lower := strings.ToLower(text)

	var sectors []record.Sector
	for _, sector := range record.AllSectors {
		if sector == record.SectorGeneral {
			continue
		}
		signals, ok := sectorTable[sector]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range signals.Keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		for _, trig := range signals.Triggers {
			if strings.Contains(lower, trig) {
				score += 2
			}
		}
		if score >= 2 {
			sectors = append(sectors, sector)
		}
	}
	return sectors
}

// actionPattern maps a text trigger to an imperative action-item template.
type actionPattern struct {
	Trigger string
	Action  string
}

var actionPatterns = []actionPattern{
	{"sanction", "Review exposure to sanctioned counterparties"},
	{"tariff", "Assess cost impact of tariff changes on supply chain"},
	{"interest rate", "Reassess financing costs under new rate environment"},
	{"fuel", "Model fuel-cost sensitivity into flight operation budgets"},
	{"export control", "Audit export-control compliance for affected goods"},
	{"capital control", "Evaluate cross-border capital movement constraints"},
	{"inflation", "Update pricing assumptions for inflationary pressure"},
	{"gdp", "Revisit growth assumptions in the affected market"},
	{"technology", "Review technology supply-chain dependencies"},
	{"mortgage", "Reassess real-estate financing exposure"},
}

// ActionItems generates up to 3 action items from the text-to-action
// pattern table.
func ActionItems(text string) []string {
	lower := strings.ToLower(text)

	var items []string
	for _, p := range actionPatterns {
		if strings.Contains(lower, p.Trigger) {
			items = append(items, p.Action)
			if len(items) == 3 {
				break
			}
		}
	}
	return items
}
