// Package record defines the uniform Intelligence Record carried across the
// collection, merge, organization, and augmentation stages of a brief run.
package record

import "time"

// SourceType is the closed enumeration of upstream intelligence channels.
type SourceType string

const (
	SourceNarrative SourceType = "narrative"
	SourceTrade     SourceType = "trade"
	SourceMacro     SourceType = "macro"
)

// Sector is the closed enumeration of client sectors a record may affect.
type Sector string

const (
	SectorTechnology  Sector = "technology"
	SectorFinance     Sector = "finance"
	SectorRealEstate  Sector = "real-estate"
	SectorEntertain   Sector = "entertainment"
	SectorEnergy      Sector = "energy"
	SectorHealthcare  Sector = "healthcare"
	SectorGeneral     Sector = "general"
)

// AllSectors is the fixed iteration order used by the sector organizer.
var AllSectors = [...]Sector{
	SectorTechnology,
	SectorFinance,
	SectorRealEstate,
	SectorEntertain,
	SectorEnergy,
	SectorHealthcare,
	SectorGeneral,
}

// Provenance is an opaque source-reported descriptor of where a fragment of
// content came from (a citation, a document handle, a series link...).
type Provenance map[string]any

// TradeFields holds the fields specific to a trade-intervention record.
type TradeFields struct {
	InterventionID          string
	ImplementingJurisdictions []string
	AffectedJurisdictions     []string
	AnnouncementDate          time.Time
	ImplementationDate        time.Time
}

// MacroFields holds the fields specific to a macroeconomic time-series
// record.
type MacroFields struct {
	SeriesID        string
	ObservationDate time.Time
	Units           string
	Value           float64
}

// Record is the uniform carrier across the pipeline. It is a tagged variant:
// SourceType determines which of Trade/Macro is populated; Narrative records
// carry neither.
type Record struct {
	RawContent        string
	ProcessedContent  string
	Category          string
	RelevanceScore    float64
	Confidence        float64
	SoWhatStatement   string
	AffectedSectors   []Sector
	ActionItems       []string
	SourceType        SourceType
	Sources           []Provenance

	Trade *TradeFields
	Macro *MacroFields
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampScores enforces the relevance/confidence invariant in place.
func (r *Record) ClampScores() {
	r.RelevanceScore = Clamp01(r.RelevanceScore)
	r.Confidence = Clamp01(r.Confidence)
}

// EnsureSector enforces the "at least one sector" invariant: a record with
// no specific sector match is tagged general, regardless of relevance.
func (r *Record) EnsureSector() {
	if len(r.AffectedSectors) > 0 {
		return
	}
	r.AffectedSectors = []Sector{SectorGeneral}
}

// HasSector reports whether sector s is present in the record's sector set.
func (r *Record) HasSector(s Sector) bool {
	for _, have := range r.AffectedSectors {
		if have == s {
			return true
		}
	}
	return false
}

// Clone returns a shallow value copy suitable for the single permitted
// mutation in a record's lifecycle: substituting SoWhatStatement after AI
// augmentation validates a replacement.
func (r Record) Clone() Record {
	out := r
	out.AffectedSectors = append([]Sector(nil), r.AffectedSectors...)
	out.ActionItems = append([]string(nil), r.ActionItems...)
	out.Sources = append([]Provenance(nil), r.Sources...)
	return out
}

// WithSoWhat returns a copy of r with SoWhatStatement replaced. Used by the
// AI augmentation step, which never mutates the original record in place.
func (r Record) WithSoWhat(s string) Record {
	out := r.Clone()
	out.SoWhatStatement = s
	return out
}

// SectorBundle is the per-sector view produced after merge.
type SectorBundle struct {
	Sector       Sector
	Records      []Record
	Summary      string
	Risks        []string
	Opportunities []string
}

// Finding is one structured key-finding entry of an executive summary.
type Finding struct {
	Subheader string
	Content   string
	Bullets   []string
}

// WatchFactor is one structured watch-factor entry of an executive summary.
type WatchFactor struct {
	Indicator string
	What      string
	Why       string
}

// ExecSummary is the synthesized executive summary structure.
type ExecSummary struct {
	BottomLine   []string
	KeyFindings  []Finding
	WatchFactors []WatchFactor
}
