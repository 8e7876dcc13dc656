package ai

import (
	"sort"

	"github.com/solairus/aviation-brief/internal/record"
)

const deterministicTopN = 5

// deterministicExecSummary builds an executive summary directly from
// records' existing normalizer-produced so-what statements, with no
// generation call. AI augmentation is always optional: every operation has
// a deterministic, non-generative fallback that produces a complete, valid
// result on its own.
func deterministicExecSummary(records []record.Record) record.ExecSummary {
	ranked := append([]record.Record(nil), records...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return compositeRank(ranked[i]) > compositeRank(ranked[j])
	})
	if len(ranked) > deterministicTopN {
		ranked = ranked[:deterministicTopN]
	}

	var summary record.ExecSummary
	for _, r := range ranked {
		if r.SoWhatStatement == "" {
			continue
		}
		summary.BottomLine = append(summary.BottomLine, r.SoWhatStatement)
		summary.KeyFindings = append(summary.KeyFindings, record.Finding{
			Subheader: string(r.SourceType),
			Content:   r.SoWhatStatement,
		})
	}

	for _, r := range ranked {
		if len(summary.WatchFactors) == 3 {
			break
		}
		if r.SoWhatStatement == "" {
			continue
		}
		summary.WatchFactors = append(summary.WatchFactors, record.WatchFactor{
			Indicator: string(r.SourceType),
			What:      r.ProcessedContent,
			Why:       r.SoWhatStatement,
		})
	}

	if len(summary.BottomLine) > 3 {
		summary.BottomLine = summary.BottomLine[:3]
	}
	return summary
}
