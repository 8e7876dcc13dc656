package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/solairus/aviation-brief/internal/record"
	"github.com/solairus/aviation-brief/internal/sources/narrative"
)

var hedgePhrases = []string{
	"has not identified",
	"no evidence of",
	"insufficient data",
	"remains unclear",
	"cannot confirm",
	"no indication of",
	"not yet determined",
}

var priorityIndicators = []string{
	"significant", "forecast", "expects", "will", "rise", "fall",
	"increase", "decrease", "surge", "decline",
}

var (
	whitespaceRegex     = regexp.MustCompile(`\s+`)
	repeatedPunctRegex  = regexp.MustCompile(`([!?.,]){2,}`)
	numberedItemRegex   = regexp.MustCompile(`\n\s*\d+\.`)
	bulletItemRegex     = regexp.MustCompile(`\n\s*-\s`)
	sentenceSplitRegex  = regexp.MustCompile(`(?:[.!?]+\s+|\n+)`)
)

// Narrative normalizes one narrative.RawPayload into one or more
// record.Record values.
func Narrative(p narrative.RawPayload) []record.Record {
	// Split before cleaning: clean collapses the newlines the list and
	// paragraph delimiters depend on.
	fragments := splitResponse(p.Response)

	out := make([]record.Record, 0, len(fragments))
	for _, fragment := range fragments {
		out = append(out, buildNarrativeRecord(clean(fragment), p))
	}
	return out
}

// clean strips HTML markup via goquery (dropping script/style and keeping
// only body text), collapses whitespace and repeated punctuation, strips
// hedging sentences, and title-cases sentence initials.
func clean(s string) string {
	s = stripHTML(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = repeatedPunctRegex.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	s = stripHedgeSentences(s)
	s = titleCaseSentences(s)
	return s
}

func stripHTML(s string) string {
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		return s
	}
	return text
}

func stripHedgeSentences(s string) string {
	sentences := splitOnBoundaryKeepPunct(s)
	var kept []string
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		hedged := false
		for _, phrase := range hedgePhrases {
			if strings.Contains(lower, phrase) {
				hedged = true
				break
			}
		}
		if !hedged {
			kept = append(kept, sentence)
		}
	}
	return strings.TrimSpace(strings.Join(kept, ""))
}

func splitSentences(s string) []string {
	parts := sentenceSplitRegex.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func titleCaseSentences(s string) string {
	sentences := splitOnBoundaryKeepPunct(s)
	for i, sentence := range sentences {
		trimmed := strings.TrimLeft(sentence, " ")
		if trimmed == "" {
			continue
		}
		leadSpace := sentence[:len(sentence)-len(trimmed)]
		runes := []rune(trimmed)
		runes[0] = unicode.ToUpper(runes[0])
		sentences[i] = leadSpace + string(runes)
	}
	return strings.Join(sentences, "")
}

// splitOnBoundaryKeepPunct splits on ". "/"! "/"? " while keeping the
// delimiter attached to the preceding sentence, so re-joining reproduces the
// original spacing exactly.
func splitOnBoundaryKeepPunct(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if (s[i] == '.' || s[i] == '!' || s[i] == '?') && i+1 < len(s) && s[i+1] == ' ' {
			out = append(out, s[start:i+2])
			start = i + 2
			i++
		}
	}
	out = append(out, s[start:])
	return out
}

// splitResponse splits a single response into multiple fragments when it
// contains a numbered list, a bulleted list, or paragraph breaks, discarding
// fragments below the delimiter-specific length gate.
func splitResponse(s string) []string {
	if n := len(numberedItemRegex.FindAllStringIndex(s, -1)); n >= 2 {
		return splitByRegex(s, numberedItemRegex, 150)
	}
	if n := len(bulletItemRegex.FindAllStringIndex(s, -1)); n >= 2 {
		return splitByRegex(s, bulletItemRegex, 100)
	}
	if strings.Count(s, "\n\n") >= 2 {
		return splitByDelimiter(s, "\n\n", 100)
	}
	return []string{s}
}

func splitByRegex(s string, re *regexp.Regexp, minLen int) []string {
	locs := re.FindAllStringIndex(s, -1)
	var out []string
	start := 0
	for _, loc := range locs {
		if loc[0] > start {
			out = append(out, s[start:loc[0]])
		}
		start = loc[0]
	}
	out = append(out, s[start:])

	return filterByLength(out, minLen)
}

func splitByDelimiter(s, delim string, minLen int) []string {
	parts := strings.Split(s, delim)
	return filterByLength(parts, minLen)
}

func filterByLength(parts []string, minLen int) []string {
	var out []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if len(trimmed) >= minLen {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{strings.TrimSpace(strings.Join(parts, " "))}
	}
	return out
}

// extractPriorityIndicatorSentences keeps at most 5 sentences containing a
// priority indicator, for long (>500 chars, no bullet glyphs) multi-sentence
// responses.
func extractPriorityIndicatorSentences(s string) string {
	if len(s) <= 500 || strings.Contains(s, "\n- ") || strings.Contains(s, "•") {
		return s
	}
	sentences := splitSentences(s)
	if len(sentences) <= 3 {
		return s
	}

	var kept []string
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, ind := range priorityIndicators {
			if strings.Contains(lower, ind) {
				kept = append(kept, sentence)
				break
			}
		}
		if len(kept) == 5 {
			break
		}
	}
	if len(kept) == 0 {
		return s
	}
	return strings.Join(kept, " ")
}

func buildNarrativeRecord(fragment string, p narrative.RawPayload) record.Record {
	processed := extractPriorityIndicatorSentences(fragment)

	relevance := AviationRelevance(processed)
	relevance = record.Clamp01(relevance)

	confidence := narrativeConfidence(processed, p)

	sectors := AssignSectors(processed)

	sources := make([]record.Provenance, 0, len(p.Sources))
	for _, s := range p.Sources {
		sources = append(sources, record.Provenance(s))
	}

	r := record.Record{
		RawContent:       fragment,
		ProcessedContent: processed,
		Category:         "narrative_insight",
		RelevanceScore:   relevance,
		Confidence:       confidence,
		SoWhatStatement:  summarize(processed),
		AffectedSectors:  sectors,
		ActionItems:      ActionItems(processed),
		SourceType:       record.SourceNarrative,
		Sources:          sources,
	}
	r.ClampScores()
	r.EnsureSector()
	return r
}

// narrativeConfidence is the normalizer-side confidence policy: base 0.7,
// +0.1 structural markers, +0.1 any digit, +0.1 length in (100,1000), +0.05
// length >= 1000, clamped.
func narrativeConfidence(processed string, p narrative.RawPayload) float64 {
	confidence := 0.7

	if strings.Contains(processed, "\n- ") || strings.Contains(processed, "•") ||
		numberedItemRegex.MatchString(processed) {
		confidence += 0.1
	}
	if containsDigit(processed) {
		confidence += 0.1
	}

	n := len(processed)
	switch {
	case n >= 1000:
		confidence += 0.05
	case n > 100:
		confidence += 0.1
	}

	return record.Clamp01(confidence)
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// summarize produces a one- to two-sentence so-what statement as a
// deterministic fallback ahead of any AI augmentation substitution.
func summarize(processed string) string {
	sentences := splitSentences(processed)
	if len(sentences) == 0 {
		return processed
	}
	if len(sentences) == 1 {
		return sentences[0]
	}
	return sentences[0] + " " + sentences[1]
}
