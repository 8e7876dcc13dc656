package ai

import (
	"strings"

	"github.com/solairus/aviation-brief/internal/record"
)

// parserState is the line-oriented response parser's explicit state
// machine, keyed on the BOTTOM LINE / KEY FINDINGS / WATCH FACTORS marker
// lines.
type parserState int

const (
	parserOutside parserState = iota
	parserBottomLine
	parserKeyFindings
	parserWatchFactors
)

// parseExecSummary parses a model reply into a record.ExecSummary. ok is
// false if none of the three section markers were found at all, signaling
// the caller should fall back to the deterministic summary.
func parseExecSummary(raw string) (record.ExecSummary, bool) {
	var summary record.ExecSummary
	state := parserOutside
	found := false

	var currentFinding *record.Finding

	flushFinding := func() {
		if currentFinding != nil && (currentFinding.Content != "" || len(currentFinding.Bullets) > 0) {
			summary.KeyFindings = append(summary.KeyFindings, *currentFinding)
		}
		currentFinding = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case strings.HasPrefix(upper, "BOTTOM LINE"):
			flushFinding()
			state = parserBottomLine
			found = true
			continue
		case strings.HasPrefix(upper, "KEY FINDINGS"):
			flushFinding()
			state = parserKeyFindings
			found = true
			continue
		case strings.HasPrefix(upper, "WATCH FACTORS"):
			flushFinding()
			state = parserWatchFactors
			found = true
			continue
		}

		if trimmed == "" {
			continue
		}

		switch state {
		case parserBottomLine:
			if item := stripBullet(trimmed); item != "" {
				summary.BottomLine = append(summary.BottomLine, item)
			}

		case parserKeyFindings:
			switch {
			case strings.HasPrefix(trimmed, "##"):
				flushFinding()
				currentFinding = &record.Finding{Subheader: strings.TrimSpace(strings.TrimPrefix(trimmed, "##"))}
			case strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*"):
				if currentFinding == nil {
					currentFinding = &record.Finding{}
				}
				currentFinding.Bullets = append(currentFinding.Bullets, stripBullet(trimmed))
			default:
				if currentFinding == nil {
					currentFinding = &record.Finding{}
				}
				if currentFinding.Content == "" {
					currentFinding.Content = trimmed
				} else {
					currentFinding.Content += " " + trimmed
				}
			}

		case parserWatchFactors:
			if wf, ok := parseWatchFactorLine(trimmed); ok {
				summary.WatchFactors = append(summary.WatchFactors, wf)
			}
		}
	}
	flushFinding()

	return summary, found
}

func stripBullet(s string) string {
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "*")
	return strings.TrimSpace(s)
}

// parseWatchFactorLine parses "* indicator | what | why" lines.
func parseWatchFactorLine(line string) (record.WatchFactor, bool) {
	line = stripBullet(line)
	parts := strings.Split(line, "|")
	if len(parts) < 3 {
		return record.WatchFactor{}, false
	}
	return record.WatchFactor{
		Indicator: strings.TrimSpace(parts[0]),
		What:      strings.TrimSpace(parts[1]),
		Why:       strings.TrimSpace(parts[2]),
	}, true
}

// parseSoWhat extracts the sentence following a "SO WHAT:" marker.
func parseSoWhat(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if idx := strings.Index(strings.ToUpper(trimmed), "SO WHAT:"); idx >= 0 {
			return strings.TrimSpace(trimmed[idx+len("SO WHAT:"):])
		}
	}
	return ""
}
