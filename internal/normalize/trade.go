package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/solairus/aviation-brief/internal/record"
	"github.com/solairus/aviation-brief/internal/sources/trade"
)

var aviationAdjacentSectorKeywords = []string{
	"air transport", "aviation", "aircraft", "aerospace", "airport",
}

// soWhatByInterventionType chooses "So What" phrasing by intervention-type
// keyword, falling back to evaluation.
var soWhatByInterventionType = []struct {
	Trigger string
	Text    string
}{
	{"sanction", "New sanctions may restrict counterparty access and payment flows."},
	{"export", "Export controls may delay or block affected equipment and parts shipments."},
	{"tariff", "Tariff changes may raise landed costs for affected imports."},
	{"import", "Import measures may raise landed costs for affected goods."},
	{"capital", "Capital controls may constrain cross-border financing and repatriation."},
	{"technology", "Technology restrictions may limit access to affected systems or components."},
	{"local content", "Local-content requirements may force supply-chain localization."},
	{"subsidy", "New subsidies may shift competitive dynamics in the affected sector."},
	{"grant", "New grant programs may shift competitive dynamics in the affected sector."},
}

// Trade normalizes one trade.Intervention into a record.Record.
func Trade(iv trade.Intervention, now time.Time) record.Record {
	content := fmt.Sprintf("%s. %s", iv.Title, iv.Description)

	relevance := tradeRelevance(iv, now)
	confidence := 0.8
	if len(iv.Sources) > 0 {
		confidence = 0.9
	}

	sectors := AssignSectors(content)

	r := record.Record{
		RawContent:       iv.Description,
		ProcessedContent: content,
		Category:         "trade_intervention",
		RelevanceScore:   relevance,
		Confidence:        confidence,
		SoWhatStatement:  tradeSoWhat(iv),
		AffectedSectors:  sectors,
		ActionItems:      ActionItems(content),
		SourceType:       record.SourceTrade,
		Sources:          iv.Sources,
		Trade: &record.TradeFields{
			InterventionID:            iv.InterventionID,
			ImplementingJurisdictions: iv.ImplementingJurisdictions,
			AffectedJurisdictions:     iv.AffectedJurisdictions,
			AnnouncementDate:          iv.DateAnnounced,
			ImplementationDate:        iv.DateImplemented,
		},
	}
	r.ClampScores()
	r.EnsureSector()
	return r
}

func tradeRelevance(iv trade.Intervention, now time.Time) float64 {
	score := 0.5

	evalLower := strings.ToLower(iv.Evaluation)
	switch {
	case strings.Contains(evalLower, "harmful") || strings.Contains(evalLower, "red"):
		score += 0.3
	case strings.Contains(evalLower, "liberalising"):
		score += 0.2
	}

	if isAviationAdjacent(iv) {
		score += 0.2
	}

	score += freshnessAdjustment(iv, now)

	return record.Clamp01(score)
}

func isAviationAdjacent(iv trade.Intervention) bool {
	for _, sector := range iv.AffectedSectors {
		lower := strings.ToLower(sector)
		for _, kw := range aviationAdjacentSectorKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// freshnessAdjustment applies an implementation-date threshold table.
func freshnessAdjustment(iv trade.Intervention, now time.Time) float64 {
	if iv.DateImplemented.IsZero() {
		return 0
	}
	age := now.Sub(iv.DateImplemented)
	days := age.Hours() / 24

	aviationRelevant := isAviationAdjacent(iv)

	switch {
	case days < 30:
		return 0.3
	case days < 60:
		return 0.2
	case days < 90:
		return 0.1
	case days < 180:
		return 0
	case days < 365:
		if aviationRelevant {
			return 0
		}
		return -0.1
	default:
		if aviationRelevant {
			return 0
		}
		return -0.2
	}
}

func tradeSoWhat(iv trade.Intervention) string {
	lower := strings.ToLower(iv.InterventionType + " " + iv.Title + " " + iv.Description)
	for _, entry := range soWhatByInterventionType {
		if strings.Contains(lower, entry.Trigger) {
			return entry.Text
		}
	}

	switch strings.ToLower(iv.Evaluation) {
	case "harmful", "red":
		return "This intervention is assessed as harmful and warrants monitoring for second-order effects."
	case "liberalising":
		return "This liberalising measure may ease cross-border activity in the affected market."
	default:
		return "This intervention's net effect is unclear and warrants continued monitoring."
	}
}
