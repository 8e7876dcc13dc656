// Package merge implements the cross-source merger: freshness filter ->
// composite scoring -> semantic de-duplication -> topic priority
// resolution.
package merge

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/solairus/aviation-brief/internal/record"
)

const globalFreshnessCutoffDays = 180

// sourceWeight scales each source type's contribution to the composite
// score: narrative leads; macro is kept informative but prevented from
// dominating purely through its high base confidence.
func sourceWeight(t record.SourceType) float64 {
	switch t {
	case record.SourceNarrative:
		return 1.15
	case record.SourceTrade:
		return 1.0
	case record.SourceMacro:
		return 0.95
	default:
		return 1.0
	}
}

// freshnessFactor computes a per-source-type freshness factor used in the
// composite score, distinct from the hard 180-day trade cutoff applied in
// phase 1.
func freshnessFactor(r record.Record, now time.Time) float64 {
	switch r.SourceType {
	case record.SourceTrade:
		if r.Trade == nil || r.Trade.ImplementationDate.IsZero() {
			return 0.9
		}
		if now.Sub(r.Trade.ImplementationDate).Hours()/24 < 90 {
			return 1.0
		}
		return 0.9
	case record.SourceMacro:
		if r.Macro == nil || r.Macro.ObservationDate.IsZero() {
			return 0.95
		}
		if now.Sub(r.Macro.ObservationDate).Hours()/24 < 60 {
			return 1.0
		}
		return 0.95
	default:
		return 1.0
	}
}

// score computes the composite ranking key: relevance * confidence *
// source weight * freshness factor.
func score(r record.Record, now time.Time) float64 {
	return r.RelevanceScore * r.Confidence * sourceWeight(r.SourceType) * freshnessFactor(r, now)
}

type scored struct {
	rec   record.Record
	score float64
	order int // original arrival order, for stable tie-breaking
}

// Merge runs the full merger pipeline over records gathered from any number
// of sources, in the order the orchestrator supplies them. Merge is
// deterministic given identical inputs and a fixed clock, and idempotent:
// merging already-merged output reproduces it unchanged.
func Merge(now time.Time, sourceLists ...[]record.Record) []record.Record {
	all := freshnessFilter(now, sourceLists...)
	if len(all) == 0 {
		return nil
	}

	ranked := rankStable(all, now)
	deduped := deduplicate(ranked)
	out := prioritizeTopics(deduped)
	log.Printf("[merge] %d in, %d after freshness filter, %d after dedup, %d out", countAll(sourceLists), len(all), len(deduped), len(out))
	return out
}

func countAll(sourceLists [][]record.Record) int {
	n := 0
	for _, list := range sourceLists {
		n += len(list)
	}
	return n
}

// freshnessFilter is phase 1: drop trade records whose implementation date
// is older than the global 180-day cutoff. Narrative and macro records are
// never filtered here.
func freshnessFilter(now time.Time, sourceLists ...[]record.Record) []record.Record {
	var out []record.Record
	for _, list := range sourceLists {
		for _, r := range list {
			if r.SourceType == record.SourceTrade && r.Trade != nil && !r.Trade.ImplementationDate.IsZero() {
				age := now.Sub(r.Trade.ImplementationDate).Hours() / 24
				if age > globalFreshnessCutoffDays {
					continue
				}
			}
			out = append(out, r)
		}
	}
	return out
}

// rankStable is phase 2: sort by composite score descending, stable on
// arrival order for ties.
func rankStable(records []record.Record, now time.Time) []record.Record {
	items := make([]scored, len(records))
	for i, r := range records {
		items[i] = scored{rec: r, score: score(r, now), order: i}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]record.Record, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

var dedupStopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"will": true, "their": true, "they": true, "were": true, "been": true,
	"said": true, "about": true, "which": true, "also": true, "more": true,
}

// fingerprint returns the first-200-chars lowercase-trimmed fingerprint and
// the keyword set (tokens of length > 3, minus stopwords) for a record.
func fingerprint(r record.Record) (string, map[string]bool) {
	text := r.ProcessedContent
	if len(text) > 200 {
		text = text[:200]
	}
	text = strings.ToLower(strings.TrimSpace(text))

	keywords := map[string]bool{}
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, ".,!?;:\"'()")
		if len(tok) > 3 && !dedupStopwords[tok] {
			keywords[tok] = true
		}
	}
	return text, keywords
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

const dedupSimilarityThreshold = 0.75

// deduplicate is phase 3: semantic de-duplication by Jaccard similarity of
// keyword sets over the first-200-char fingerprint.
func deduplicate(ranked []record.Record) []record.Record {
	type kept struct {
		keywords map[string]bool
	}
	var keptList []kept
	var out []record.Record

	for _, r := range ranked {
		_, keywords := fingerprint(r)

		isDup := false
		for _, k := range keptList {
			if jaccard(keywords, k.keywords) > dedupSimilarityThreshold {
				isDup = true
				break
			}
		}
		if isDup {
			continue
		}

		keptList = append(keptList, kept{keywords: keywords})
		out = append(out, r)
	}
	return out
}

type topic int

const (
	topicGeneral topic = iota
	topicEconomic
	topicTrade
)

var economicTopicTerms = []string{
	"inflation", "interest rate", "gdp", "cpi", "federal reserve", "treasury", "mortgage",
}
var tradeTopicTerms = []string{
	"tariff", "sanction", "export control", "trade barrier", "intervention",
}

func detectTopic(r record.Record) topic {
	lower := strings.ToLower(r.ProcessedContent)
	for _, term := range economicTopicTerms {
		if strings.Contains(lower, term) {
			return topicEconomic
		}
	}
	for _, term := range tradeTopicTerms {
		if strings.Contains(lower, term) {
			return topicTrade
		}
	}
	return topicGeneral
}

func topicKey(prefix, content string) string {
	text := strings.ToLower(content)
	if len(text) > 50 {
		text = text[:50]
	}
	return prefix + "_" + text
}

// prioritizeTopics is phase 4: for economic topic, promote the first
// macro-source record per topic key to the front; for trade topic, promote
// the first trade-source record per topic key; general topic records are
// emitted unconditionally. This is additive: every kept record still
// appears, once, in the final output.
func prioritizeTopics(deduped []record.Record) []record.Record {
	emitted := make([]bool, len(deduped))
	seenEconomicKeys := map[string]bool{}
	seenTradeKeys := map[string]bool{}

	var out []record.Record

	// First pass: promote canonical-source records for their natural topic.
	for i, r := range deduped {
		switch detectTopic(r) {
		case topicEconomic:
			key := topicKey("economic", r.ProcessedContent)
			if r.SourceType == record.SourceMacro && !seenEconomicKeys[key] {
				seenEconomicKeys[key] = true
				out = append(out, r)
				emitted[i] = true
			}
		case topicTrade:
			key := topicKey("trade", r.ProcessedContent)
			if r.SourceType == record.SourceTrade && !seenTradeKeys[key] {
				seenTradeKeys[key] = true
				out = append(out, r)
				emitted[i] = true
			}
		default:
			out = append(out, r)
			emitted[i] = true
		}
	}

	// Second pass: append every kept record not already emitted, preserving
	// order.
	for i, r := range deduped {
		if !emitted[i] {
			out = append(out, r)
		}
	}

	return out
}
