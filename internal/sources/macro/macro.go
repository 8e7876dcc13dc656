// Package macro implements the adapter for the macroeconomic time-series
// service: a request/response transport modeled on the Federal Reserve
// Economic Data API, GET observations with {series_id, api_key, file_type,
// observation_start, sort_order}, missing sentinel "." filtered.
package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/errs"
)

// Category is the closed enumeration of macro fetch categories: inflation,
// interest rates, fuel costs, GDP growth, employment, business confidence.
type Category string

const (
	CategoryInflation         Category = "inflation"
	CategoryInterestRates     Category = "interest_rates"
	CategoryFuelCosts         Category = "fuel_costs"
	CategoryGDPGrowth         Category = "gdp_growth"
	CategoryEmployment        Category = "employment"
	CategoryBusinessConfidence Category = "business_confidence"
)

type seriesInfo struct {
	ID   string
	Name string
}

// seriesByCategory is the fixed series-id -> human-name table per category.
var seriesByCategory = map[Category][]seriesInfo{
	CategoryInflation: {
		{"CPIAUCSL", "US Consumer Price Index (CPI)"},
		{"CPILFESL", "US Core CPI (Less Food & Energy)"},
		{"PCEPI", "Personal Consumption Expenditures Price Index"},
	},
	CategoryInterestRates: {
		{"DFF", "Federal Funds Effective Rate"},
		{"DGS10", "10-Year Treasury Constant Maturity Rate"},
		{"MORTGAGE30US", "30-Year Fixed Rate Mortgage Average"},
	},
	CategoryFuelCosts: {
		{"WJFUELUSGULF", "US Gulf Coast Kerosene-Type Jet Fuel Price"},
		{"DCOILWTICO", "Crude Oil Prices: West Texas Intermediate (WTI)"},
		{"GASREGW", "US Regular All Formulations Gas Price"},
	},
	CategoryGDPGrowth: {
		{"GDPC1", "Real Gross Domestic Product"},
		{"A191RL1Q225SBEA", "Real GDP Percent Change from Preceding Period"},
	},
	CategoryEmployment: {
		{"UNRATE", "Unemployment Rate"},
		{"PAYEMS", "All Employees, Total Nonfarm"},
	},
	CategoryBusinessConfidence: {
		{"UMCSENT", "University of Michigan: Consumer Sentiment"},
	},
}

const missingValueSentinel = "."

// Observation is the adapter-neutral raw payload for one series' latest
// observation.
type Observation struct {
	SeriesID        string
	SeriesName      string
	Category        Category
	Value           float64
	ObservationDate time.Time
	Units           string
}

// QueryParams parameterizes a category fetch.
type QueryParams struct {
	Category Category
	DaysBack int
}

// Adapter is the macro time-series client.
type Adapter struct {
	cfg    config.MacroConfig
	client *http.Client
}

// New constructs a macro Adapter.
func New(cfg config.MacroConfig) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Query fetches the latest observation for every series in a category.
func (a *Adapter) Query(ctx context.Context, p QueryParams) ([]Observation, error) {
	if !a.cfg.Configured() {
		return nil, errs.Unconfigured("macro: missing credentials")
	}

	series, ok := seriesByCategory[p.Category]
	if !ok {
		return nil, errs.Permanent("macro: unknown category", fmt.Errorf("%s", p.Category))
	}

	daysBack := p.DaysBack
	if daysBack <= 0 {
		daysBack = 90
	}

	out := make([]Observation, 0, len(series))
	for _, s := range series {
		obs, err := a.fetchSeries(ctx, s, p.Category, daysBack)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A single series failing to resolve does not sink the whole
			// category fetch. Only context cancellation escalates here;
			// everything else degrades to "no observation for this series".
			continue
		}
		if obs != nil {
			out = append(out, *obs)
		}
	}
	return out, nil
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredResponse struct {
	Observations []fredObservation `json:"observations"`
	Units        string             `json:"units,omitempty"`
}

func (a *Adapter) fetchSeries(ctx context.Context, s seriesInfo, category Category, daysBack int) (*Observation, error) {
	q := url.Values{}
	q.Set("series_id", s.ID)
	q.Set("api_key", a.cfg.APIKey)
	q.Set("file_type", "json")
	q.Set("observation_start", time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02"))
	q.Set("sort_order", "asc")

	reqURL := a.cfg.BaseURL + "/series/observations?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.Permanent("macro: build request", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errs.Transient("macro: request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transient("macro: read body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, errs.Transient("macro: server status", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Permanent("macro: client status", fmt.Errorf("status %d: %s", resp.StatusCode, raw))
	}

	var parsed fredResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errs.Parse("macro: decode response", err)
	}

	// Filter sentinel missing values, then take the last (most recent,
	// since the service returns chronologically sorted ascending)
	// observation.
	var last *fredObservation
	for i := range parsed.Observations {
		o := &parsed.Observations[i]
		if o.Value == missingValueSentinel {
			continue
		}
		last = o
	}
	if last == nil {
		return nil, nil
	}

	value, err := strconv.ParseFloat(last.Value, 64)
	if err != nil {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", last.Date)
	if err != nil {
		date = time.Time{}
	}

	return &Observation{
		SeriesID:        s.ID,
		SeriesName:      s.Name,
		Category:        category,
		Value:           value,
		ObservationDate: date,
		Units:           parsed.Units,
	}, nil
}
