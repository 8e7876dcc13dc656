// Package sector organizes merged records into one bundle per client
// sector: select matching records, rank them, and derive a summary plus
// bounded risk/opportunity lists.
package sector

import (
	"sort"
	"strings"

	"github.com/solairus/aviation-brief/internal/record"
)

const (
	maxSummarySoWhats = 3
	maxRisks          = 3
	maxOpportunities  = 3
)

var riskKeywords = []string{
	"risk", "threat", "disruption", "delay", "shortage", "decline", "pressure",
	"volatility", "uncertainty", "restriction", "sanction", "tariff",
}

var opportunityKeywords = []string{
	"opportunity", "growth", "expansion", "demand", "recovery", "investment",
	"upside", "improvement", "easing", "liberalising",
}

// Organize builds one SectorBundle per sector, in record.AllSectors order.
func Organize(records []record.Record) []record.SectorBundle {
	bundles := make([]record.SectorBundle, 0, len(record.AllSectors))
	for _, s := range record.AllSectors {
		bundles = append(bundles, organizeSector(s, records))
	}
	return bundles
}

// organizeSector selects every record matching s, plus every
// general-interest record, sorted by relevance descending.
func organizeSector(s record.Sector, records []record.Record) record.SectorBundle {
	var matches []record.Record
	for _, r := range records {
		if s == record.SectorGeneral {
			if r.HasSector(record.SectorGeneral) {
				matches = append(matches, r)
			}
			continue
		}
		if r.HasSector(s) || r.HasSector(record.SectorGeneral) {
			matches = append(matches, r)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})

	return record.SectorBundle{
		Sector:        s,
		Records:       matches,
		Summary:       summarize(matches),
		Risks:         extractByKeywords(matches, riskKeywords, maxRisks),
		Opportunities: extractByKeywords(matches, opportunityKeywords, maxOpportunities),
	}
}

// summarize concatenates the top-3 so-what statements by relevance.
func summarize(ranked []record.Record) string {
	var parts []string
	for i, r := range ranked {
		if i == maxSummarySoWhats {
			break
		}
		if r.SoWhatStatement == "" {
			continue
		}
		parts = append(parts, r.SoWhatStatement)
	}
	return strings.Join(parts, " ")
}

// extractByKeywords scans raw content for keyword matches, in ranked
// order, de-duplicating identical extracts, up to limit.
func extractByKeywords(ranked []record.Record, keywords []string, limit int) []string {
	var out []string
	seen := map[string]bool{}

	for _, r := range ranked {
		if len(out) == limit {
			break
		}
		lower := strings.ToLower(r.RawContent)
		for _, kw := range keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			extract := firstSentenceContaining(r.RawContent, kw)
			if extract == "" || seen[extract] {
				continue
			}
			seen[extract] = true
			out = append(out, extract)
			break
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// firstSentenceContaining returns the first sentence (period-delimited) of
// content containing kw, case-insensitively, or "" if none matches.
func firstSentenceContaining(content, kw string) string {
	for _, sentence := range strings.Split(content, ".") {
		if strings.Contains(strings.ToLower(sentence), kw) {
			trimmed := strings.TrimSpace(sentence)
			if trimmed != "" {
				return trimmed + "."
			}
		}
	}
	return ""
}
