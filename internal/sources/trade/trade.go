// Package trade implements the adapter for the trade-intervention catalog
// service: a request/response transport, authenticated with an
// "APIKey <token>" header, returning either a bare array or {data: [...]}
// that the adapter must normalize to an array.
package trade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/errs"
)

const maxLimit = 1000

// QueryFamily names one of the fixed query families an orchestrator task
// fans out across.
type QueryFamily string

const (
	FamilySanctionsExportControls QueryFamily = "sanctions_export_controls"
	FamilyCapitalControls         QueryFamily = "capital_controls"
	FamilyTechnologyRestrictions  QueryFamily = "technology_restrictions"
	FamilyAviationSector          QueryFamily = "aviation_sector"
	FamilyRecentHarmful           QueryFamily = "recent_harmful"
)

// familyFilters maps each family to the intervention-type and evaluation
// codes it queries for; sector keyword phrasing is representative, not
// exhaustive.
var familyFilters = map[QueryFamily]filter{
	FamilySanctionsExportControls: {InterventionTypes: []string{"Sanction", "Export control"}},
	FamilyCapitalControls:         {InterventionTypes: []string{"Capital control measure"}},
	FamilyTechnologyRestrictions:  {InterventionTypes: []string{"Local content measure", "Technology transfer"}},
	FamilyAviationSector:          {AffectedSectorKeywords: []string{"air transport", "aviation", "aircraft"}},
	FamilyRecentHarmful:           {Evaluations: []string{"Harmful", "Red"}},
}

// filter is the POST body shape: an object keyed by intervention-type
// codes, evaluation codes, date windows, sector keywords, and a limit.
type filter struct {
	InterventionTypes      []string `json:"gta_evaluation_types,omitempty"`
	Evaluations            []string `json:"gta_evaluation,omitempty"`
	AffectedSectorKeywords []string `json:"affected_sectors,omitempty"`
	DateImplementedSince   string   `json:"date_implemented_since,omitempty"`
	Limit                  int      `json:"limit"`
	Offset                 int      `json:"offset"`
}

// Intervention is the adapter-neutral raw payload for one trade
// intervention.
type Intervention struct {
	InterventionID            string
	Title                     string
	Description               string
	Evaluation                string // "Harmful", "Liberalising", "Unclear", ...
	InterventionType          string
	ImplementingJurisdictions []string
	AffectedJurisdictions     []string
	AffectedSectors           []string
	DateAnnounced             time.Time
	DateImplemented           time.Time
	Sources                   []map[string]any
}

// QueryParams parameterizes a query family fetch.
type QueryParams struct {
	Family   QueryFamily
	DaysBack int
	Limit    int
}

// Adapter is the trade service client.
type Adapter struct {
	cfg    config.TradeConfig
	client *http.Client
}

// New constructs a trade Adapter.
func New(cfg config.TradeConfig) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Query fetches interventions for one query family.
func (a *Adapter) Query(ctx context.Context, p QueryParams) ([]Intervention, error) {
	if !a.cfg.Configured() {
		return nil, errs.Unconfigured("trade: missing credentials")
	}

	f, ok := familyFilters[p.Family]
	if !ok {
		return nil, errs.Permanent("trade: unknown query family", fmt.Errorf("%s", p.Family))
	}

	limit := p.Limit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	f.Limit = limit

	if p.DaysBack > 0 {
		f.DateImplementedSince = time.Now().AddDate(0, 0, -p.DaysBack).Format("2006-01-02")
	}

	body, err := json.Marshal(f)
	if err != nil {
		return nil, errs.Permanent("trade: marshal filter", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Permanent("trade: build request", err)
	}
	req.Header.Set("Authorization", "APIKey "+a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errs.Transient("trade: request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transient("trade: read body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, errs.Transient("trade: server status", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Permanent("trade: client status", fmt.Errorf("status %d: %s", resp.StatusCode, raw))
	}

	items, err := decodeEitherShape(raw)
	if err != nil {
		return nil, errs.Parse("trade: decode response", err)
	}

	out := make([]Intervention, 0, len(items))
	for _, item := range items {
		out = append(out, parseIntervention(item))
	}
	return out, nil
}

// decodeEitherShape accepts both a bare JSON array and {data: [...]}.
func decodeEitherShape(raw []byte) ([]map[string]any, error) {
	var asArray []map[string]any
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray, nil
	}

	var wrapped struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("neither array nor {data:[...]} shape: %w", err)
	}
	return wrapped.Data, nil
}

func parseIntervention(m map[string]any) Intervention {
	iv := Intervention{
		InterventionID: stringField(m, "intervention_id"),
		Title:          stringFieldOr(m, "title", "Untitled Intervention"),
		Description:    stringField(m, "description"),
		Evaluation:     stringFieldOr(m, "gta_evaluation", "Unclear"),
		InterventionType: stringField(m, "intervention_type"),
	}
	iv.ImplementingJurisdictions = jurisdictionNames(m["implementing_jurisdictions"])
	iv.AffectedJurisdictions = jurisdictionNames(m["affected_jurisdictions"])
	iv.AffectedSectors = stringSlice(m["affected_sectors"])
	iv.DateAnnounced = parseDate(m["date_announced"])
	iv.DateImplemented = parseDate(m["date_implemented"])
	if srcs, ok := m["sources"].([]any); ok {
		for _, s := range srcs {
			if sm, ok := s.(map[string]any); ok {
				iv.Sources = append(iv.Sources, sm)
			}
		}
	}
	return iv
}

func stringField(m map[string]any, key string) string {
	return stringFieldOr(m, key, "")
}

func stringFieldOr(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

func jurisdictionNames(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				out = append(out, name)
				continue
			}
		}
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseDate(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
