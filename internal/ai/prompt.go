package ai

import (
	"fmt"
	"strings"

	"github.com/solairus/aviation-brief/internal/record"
)

// buildExecSummaryPrompt formats the top-ranked, sanitized records into a
// bracketed-marker instruction: the model is asked to reply with a BOTTOM
// LINE section, a KEY FINDINGS section, and a WATCH FACTORS section, each
// delimited by a literal marker line so parseExecSummary can recover
// structure from free text.
func buildExecSummaryPrompt(records []record.Record) string {
	var b strings.Builder
	b.WriteString("You are drafting an aviation sector intelligence brief for an internal audience.\n")
	b.WriteString("Use ONLY the numbered source items below. Do not invent facts, names, or figures not present in them.\n")
	b.WriteString("If the sources do not support a section, write \"Information not available\" for that section.\n\n")
	b.WriteString("SOURCE ITEMS:\n")
	for i, r := range records {
		b.WriteString(fmt.Sprintf("[%d] (%s, relevance=%.2f, confidence=%.2f) %s\n",
			i+1, r.SourceType, r.RelevanceScore, r.Confidence, r.ProcessedContent))
	}
	b.WriteString("\nReply in exactly this structure:\n")
	b.WriteString("BOTTOM LINE:\n- <one-sentence takeaway>\n- <one-sentence takeaway>\n\n")
	b.WriteString("KEY FINDINGS:\n## <finding subheader>\n<finding content>\n- <supporting bullet>\n\n")
	b.WriteString("WATCH FACTORS:\n* <indicator> | <what to watch> | <why it matters>\n")
	return b.String()
}

// buildSoWhatPrompt formats a single sanitized record for a one-sentence
// so-what regeneration.
func buildSoWhatPrompt(r record.Record) string {
	var b strings.Builder
	b.WriteString("Given ONLY this source item, write one sentence stating its business implication.\n")
	b.WriteString("Do not invent facts not present in the item. If none exists, reply \"Information not available\".\n\n")
	b.WriteString(fmt.Sprintf("SOURCE ITEM (%s): %s\n", r.SourceType, r.ProcessedContent))
	b.WriteString("\nReply in exactly this structure:\nSO WHAT: <one sentence>\n")
	return b.String()
}
