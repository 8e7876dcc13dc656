package ai

import (
	"regexp"
	"strings"

	"github.com/solairus/aviation-brief/internal/record"
)

// sanitize replaces every configured client company name with a
// "[<SECTOR>_CLIENT]" token, word-bounded, case-insensitive, across
// RawContent, ProcessedContent, and SoWhatStatement only; it never touches
// structured fields like scores, dates, or sector tags. A nil or empty
// clientSectors map is a no-op.
func sanitize(r record.Record, clientSectors map[string]string) record.Record {
	if len(clientSectors) == 0 {
		return r
	}

	out := r.Clone()
	out.RawContent = redact(out.RawContent, clientSectors)
	out.ProcessedContent = redact(out.ProcessedContent, clientSectors)
	out.SoWhatStatement = redact(out.SoWhatStatement, clientSectors)
	return out
}

// redact replaces every word-bounded, case-insensitive occurrence of a
// client name with its sector-scoped placeholder.
func redact(text string, clientSectors map[string]string) string {
	for name, sector := range clientSectors {
		pattern := `(?i)\b` + regexp.QuoteMeta(name) + `\b`
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		text = re.ReplaceAllString(text, "["+strings.ToUpper(sector)+"_CLIENT]")
	}
	return text
}
