package ai

import (
	"regexp"
	"strings"

	"github.com/solairus/aviation-brief/internal/record"
)

// validationMode controls how strictly an extracted claim must be
// substantiated by the source corpus: strict mode guards the executive
// summary, lenient mode guards a single regenerated so-what statement.
type validationMode int

const (
	lenientMode validationMode = iota
	strictMode
)

const noInformationCarveOut = "information not available"

var claimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+(\.\d+)?%`),                           // percentages
	regexp.MustCompile(`\$\s?\d+(\.\d+)?\s?(billion|million|trillion|[bBmMkK])?`), // dollar amounts
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),                  // ISO dates
	regexp.MustCompile(`\b\d+(\.\d+)?\b`),                        // bare numbers
	regexp.MustCompile(`\b[A-Z][a-zA-Z]+(,?\s(Inc|Corp|LLC|Ltd|Co|Group|Holdings))\b`), // company suffixes
}

var countryNames = []string{
	"united states", "china", "india", "japan", "germany", "france",
	"united kingdom", "brazil", "canada", "mexico", "russia", "australia",
}

// extractClaims pulls every substring of text that looks like a checkable
// factual claim: percentages, dollar amounts, dates, bare numbers, country
// names, and company-suffixed names.
func extractClaims(text string) []string {
	var claims []string
	for _, re := range claimPatterns {
		claims = append(claims, re.FindAllString(text, -1)...)
	}
	lower := strings.ToLower(text)
	for _, c := range countryNames {
		if strings.Contains(lower, c) {
			claims = append(claims, c)
		}
	}
	return claims
}

// validateClaim reports whether the claims found in text are present,
// case-folded, as substrings somewhere in corpus: strict mode requires every
// claim to be present, lenient mode accepts up to 20% missing. The
// "Information not available" carve-out is always accepted verbatim,
// regardless of mode: a section honestly reporting absence is never
// treated as a fabrication.
func validateClaim(text string, corpus []string, mode validationMode) bool {
	if strings.Contains(strings.ToLower(text), noInformationCarveOut) {
		return true
	}

	joined := strings.ToLower(strings.Join(corpus, "\n"))
	claims := extractClaims(text)

	if len(claims) == 0 {
		// No checkable claims: strict mode requires the statement to still
		// share vocabulary with the corpus; lenient mode accepts it as-is.
		if mode == lenientMode {
			return true
		}
		return corpusSharesVocabulary(text, joined)
	}

	misses := 0
	for _, c := range claims {
		if !strings.Contains(joined, strings.ToLower(c)) {
			if mode == strictMode {
				return false
			}
			misses++
		}
	}
	// Lenient mode tolerates up to 20% unconfirmed claims.
	return misses*5 <= len(claims)
}

// corpusSharesVocabulary is a coarse fallback check for claim-free
// sentences: at least one content word (len > 4) from text must appear in
// the corpus, so a wholly unrelated sentence is still rejected.
func corpusSharesVocabulary(text, lowerCorpus string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) > 4 && strings.Contains(lowerCorpus, word) {
			return true
		}
	}
	return false
}

// validateExecSummary validates every bottom-line statement, finding, and
// watch factor against corpus; a single violation in strict mode fails the
// whole summary: the validator protects the summary as a unit rather than
// accepting it section by section.
func validateExecSummary(summary record.ExecSummary, corpus []string, mode validationMode) bool {
	for _, line := range summary.BottomLine {
		if !validateClaim(line, corpus, mode) {
			return false
		}
	}
	for _, f := range summary.KeyFindings {
		if !validateClaim(f.Content, corpus, mode) {
			return false
		}
		for _, b := range f.Bullets {
			if !validateClaim(b, corpus, mode) {
				return false
			}
		}
	}
	for _, wf := range summary.WatchFactors {
		if !validateClaim(wf.Indicator+" "+wf.What+" "+wf.Why, corpus, mode) {
			return false
		}
	}
	return len(summary.BottomLine) > 0 || len(summary.KeyFindings) > 0
}
