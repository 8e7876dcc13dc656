// Package runner wires a complete brief run end to end: collection, merge,
// sector organization, AI augmentation, and a RunSummary of session
// metadata.
package runner

import (
	"context"
	"log"
	"time"

	"github.com/solairus/aviation-brief/internal/ai"
	"github.com/solairus/aviation-brief/internal/cache"
	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/merge"
	"github.com/solairus/aviation-brief/internal/orchestrator"
	"github.com/solairus/aviation-brief/internal/progress"
	"github.com/solairus/aviation-brief/internal/record"
	"github.com/solairus/aviation-brief/internal/sector"
)

// SourceTiming records one top-level source's collection outcome. Duration
// is the wall-clock time of the whole concurrent collection step and is the
// same for all three sources; sources are not timed individually.
type SourceTiming struct {
	Source   string
	Duration time.Duration
	Status   progress.SourceState
	Records  int
}

// RunSummary is the concrete session-metadata artifact for one run.
type RunSummary struct {
	StartedAt       time.Time
	Duration        time.Duration
	SourceTimings   []SourceTiming
	RecordsByStage  map[string]int
	CacheHits       int
	CacheMisses     int
	UsageInputTok   int
	UsageOutputTok  int
	EstimatedCostUSD float64
}

// Run holds the final pipeline output for one brief run.
type Run struct {
	Sectors []record.SectorBundle
	Summary record.ExecSummary
	Meta    RunSummary
}

// Options parameterizes one run invocation.
type Options struct {
	UserID         string
	ConversationID string
	TradeDaysBack  int
	MacroDaysBack  int
	UseCache       bool
	GeminiAPIKey   string
}

// Execute runs the full pipeline: collect -> merge -> organize -> augment,
// and returns the assembled Run with its RunSummary.
func Execute(ctx context.Context, cfg *config.Config, opts Options) (*Run, error) {
	started := time.Now()
	log.Printf("[run] starting: user=%s conversation=%s", opts.UserID, opts.ConversationID)

	c, err := cache.New(cfg.Cache.Dir, cfg.Cache.Enabled, cache.WithTTL(cfg.Cache.TTL))
	if err != nil {
		return nil, err
	}

	broadcaster := progress.New()
	defer broadcaster.Close()

	orch := orchestrator.New(cfg, c, broadcaster)

	params := orchestrator.Params{
		UserID:         opts.UserID,
		ConversationID: opts.ConversationID,
		TradeDaysBack:  opts.TradeDaysBack,
		MacroDaysBack:  opts.MacroDaysBack,
		UseCache:       opts.UseCache,
	}

	collectStart := time.Now()
	result := orch.CollectAll(ctx, params)
	collectDuration := time.Since(collectStart)

	timings := []SourceTiming{
		{Source: "narrative", Duration: collectDuration, Status: result.SourceStatus["narrative"], Records: len(result.Narrative)},
		{Source: "trade", Duration: collectDuration, Status: result.SourceStatus["trade"], Records: len(result.Trade)},
		{Source: "macro", Duration: collectDuration, Status: result.SourceStatus["macro"], Records: len(result.Macro)},
	}

	merged := merge.Merge(time.Now(), result.Narrative, result.Trade, result.Macro)

	bundles := sector.Organize(merged)

	engine := ai.New(ctx, cfg.AI, opts.GeminiAPIKey)
	summary := engine.GenerateExecSummary(ctx, merged)

	meta := RunSummary{
		StartedAt:     started,
		Duration:      time.Since(started),
		SourceTimings: timings,
		RecordsByStage: map[string]int{
			"collected": len(result.Narrative) + len(result.Trade) + len(result.Macro),
			"merged":    len(merged),
		},
		CacheHits:        result.CacheHits,
		CacheMisses:      result.CacheMisses,
		UsageInputTok:    engine.Usage().InputTokens,
		UsageOutputTok:   engine.Usage().OutputTokens,
		EstimatedCostUSD: engine.Usage().TotalCostUSD(),
	}

	log.Printf("[run] done in %s: collected=%d merged=%d cache_hits=%d cache_misses=%d",
		meta.Duration, meta.RecordsByStage["collected"], meta.RecordsByStage["merged"], meta.CacheHits, meta.CacheMisses)

	return &Run{Sectors: bundles, Summary: summary, Meta: meta}, nil
}
