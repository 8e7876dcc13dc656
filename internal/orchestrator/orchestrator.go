// Package orchestrator fans the three source adapters out concurrently,
// tolerates partial failure, and reports a per-source status alongside
// whatever records each source produced, using golang.org/x/sync/errgroup
// and golang.org/x/sync/semaphore to bound concurrency.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/solairus/aviation-brief/internal/cache"
	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/errs"
	"github.com/solairus/aviation-brief/internal/normalize"
	"github.com/solairus/aviation-brief/internal/progress"
	"github.com/solairus/aviation-brief/internal/record"
	"github.com/solairus/aviation-brief/internal/retry"
	"github.com/solairus/aviation-brief/internal/sources/macro"
	"github.com/solairus/aviation-brief/internal/sources/narrative"
	"github.com/solairus/aviation-brief/internal/sources/trade"
)

// narrativeConcurrency bounds how many narrative templates run their
// primary+follow-up query chain at once, separately from the top-level
// source fan-out.
const narrativeConcurrency = 3

// followUpConfidenceThreshold and followUpMinSpacing gate narrative
// follow-up queries. The threshold is a fixed constant, not runtime-tunable.
const (
	followUpConfidenceThreshold = 0.6
	followUpMinSpacing          = time.Second
	maxFollowUps                = 2
)

// Templates is the fixed set of narrative query templates the orchestrator
// issues against the narrative service. Order is significant only for
// reporting; templates run concurrently.
var Templates = []narrative.Template{
	{
		Name:    "aviation_demand_outlook",
		Primary: "What is the near-term outlook for commercial aviation demand and passenger traffic?",
		FollowUps: []string{
			"What regional or route-level variation exists in that outlook?",
			"What would materially change that outlook in the next quarter?",
		},
	},
	{
		Name:    "fuel_and_cost_pressure",
		Primary: "How are jet fuel prices and other operating costs affecting airline profitability?",
		FollowUps: []string{
			"Which carriers or regions are most exposed to that cost pressure?",
		},
	},
	{
		Name:    "supply_chain_and_fleet",
		Primary: "What aircraft delivery delays or supply-chain constraints are affecting airlines and lessors?",
		FollowUps: []string{
			"How are airlines adapting fleet plans in response to those constraints?",
		},
	},
	{
		Name:    "regulatory_and_policy",
		Primary: "What regulatory or policy developments are materially affecting the aviation sector?",
	},
	{
		Name:    "labor_and_operations",
		Primary: "What labor, staffing, or operational disruptions are affecting airlines currently?",
	},
}

// TradeFamilies is the fixed set of trade query families fetched per run.
var TradeFamilies = []trade.QueryFamily{
	trade.FamilySanctionsExportControls,
	trade.FamilyCapitalControls,
	trade.FamilyTechnologyRestrictions,
	trade.FamilyAviationSector,
	trade.FamilyRecentHarmful,
}

// MacroCategories is the fixed set of macro categories fetched per run.
var MacroCategories = []macro.Category{
	macro.CategoryInflation,
	macro.CategoryInterestRates,
	macro.CategoryFuelCosts,
	macro.CategoryGDPGrowth,
	macro.CategoryEmployment,
	macro.CategoryBusinessConfidence,
}

// Params parameterizes one collect_all run.
type Params struct {
	UserID         string
	ConversationID string
	TradeDaysBack  int
	MacroDaysBack  int
	UseCache       bool
}

// Result is one collect-all run's return value.
type Result struct {
	Narrative    []record.Record
	Trade        []record.Record
	Macro        []record.Record
	SourceStatus map[string]progress.SourceState
	CacheHits    int
	CacheMisses  int
}

// Orchestrator wires the three source adapters, the response cache, and a
// progress broadcaster together to run collect_all.
type Orchestrator struct {
	narrative  *narrative.Adapter
	trade      *trade.Adapter
	macro      *macro.Adapter
	cache      *cache.Cache
	progress   *progress.Broadcaster
	cacheStats struct {
		mu          sync.Mutex
		hits, misses int
	}
}

// New constructs an Orchestrator from a loaded Config, a shared cache, and a
// progress broadcaster (nil is accepted for either; a nil broadcaster
// silently drops events).
func New(cfg *config.Config, c *cache.Cache, p *progress.Broadcaster) *Orchestrator {
	return &Orchestrator{
		narrative: narrative.New(cfg.Narrative),
		trade:     trade.New(cfg.Trade),
		macro:     macro.New(cfg.Macro),
		cache:     c,
		progress:  p,
	}
}

func (o *Orchestrator) recordCacheHit() {
	o.cacheStats.mu.Lock()
	o.cacheStats.hits++
	o.cacheStats.mu.Unlock()
}

func (o *Orchestrator) recordCacheMiss() {
	o.cacheStats.mu.Lock()
	o.cacheStats.misses++
	o.cacheStats.mu.Unlock()
}

func (o *Orchestrator) publish(stage progress.Stage, source string, state progress.SourceState, msg string) {
	if state == progress.SourceFailed || state == progress.SourceUnconfigured {
		log.Printf("[%s] %s: %s", source, state, msg)
	}
	if o.progress == nil {
		return
	}
	o.progress.Publish(progress.Event{Stage: stage, Source: source, State: state, Message: msg, Timestamp: time.Now()})
}

// CollectAll runs the three source collections concurrently and returns
// whatever each produced, regardless of whether the others failed: partial
// failure in one source never aborts the others.
func (o *Orchestrator) CollectAll(ctx context.Context, p Params) Result {
	status := map[string]progress.SourceState{
		"narrative": progress.SourcePending,
		"trade":     progress.SourcePending,
		"macro":     progress.SourcePending,
	}
	var mu sync.Mutex
	setStatus := func(source string, s progress.SourceState) {
		mu.Lock()
		status[source] = s
		mu.Unlock()
	}

	var narrativeRecords, tradeRecords, macroRecords []record.Record

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o.publish(progress.StageCollecting, "narrative", progress.SourcePending, "starting")
		recs, err := o.collectNarrative(gctx, p)
		if errs.Is(err, retry.KindUnconfigured) {
			setStatus("narrative", progress.SourceUnconfigured)
			o.publish(progress.StageCollecting, "narrative", progress.SourceUnconfigured, err.Error())
			return nil
		}
		if err != nil {
			setStatus("narrative", progress.SourceFailed)
			o.publish(progress.StageCollecting, "narrative", progress.SourceFailed, err.Error())
			return nil
		}
		narrativeRecords = recs
		setStatus("narrative", progress.SourceSuccess)
		o.publish(progress.StageCollecting, "narrative", progress.SourceSuccess, "")
		return nil
	})

	g.Go(func() error {
		o.publish(progress.StageCollecting, "trade", progress.SourcePending, "starting")
		recs, err := o.collectTrade(gctx, p)
		if errs.Is(err, retry.KindUnconfigured) {
			setStatus("trade", progress.SourceUnconfigured)
			o.publish(progress.StageCollecting, "trade", progress.SourceUnconfigured, err.Error())
			return nil
		}
		if err != nil {
			setStatus("trade", progress.SourceFailed)
			o.publish(progress.StageCollecting, "trade", progress.SourceFailed, err.Error())
			return nil
		}
		tradeRecords = recs
		setStatus("trade", progress.SourceSuccess)
		o.publish(progress.StageCollecting, "trade", progress.SourceSuccess, "")
		return nil
	})

	g.Go(func() error {
		o.publish(progress.StageCollecting, "macro", progress.SourcePending, "starting")
		recs, err := o.collectMacro(gctx, p)
		if errs.Is(err, retry.KindUnconfigured) {
			setStatus("macro", progress.SourceUnconfigured)
			o.publish(progress.StageCollecting, "macro", progress.SourceUnconfigured, err.Error())
			return nil
		}
		if err != nil {
			setStatus("macro", progress.SourceFailed)
			o.publish(progress.StageCollecting, "macro", progress.SourceFailed, err.Error())
			return nil
		}
		macroRecords = recs
		setStatus("macro", progress.SourceSuccess)
		o.publish(progress.StageCollecting, "macro", progress.SourceSuccess, "")
		return nil
	})

	// None of the three goroutines above ever return a non-nil error; each
	// source's failure is captured in status instead, so CollectAll never
	// aborts one source collection because a sibling failed.
	_ = g.Wait()

	o.cacheStats.mu.Lock()
	hits, misses := o.cacheStats.hits, o.cacheStats.misses
	o.cacheStats.mu.Unlock()

	return Result{
		Narrative:    narrativeRecords,
		Trade:        tradeRecords,
		Macro:        macroRecords,
		SourceStatus: status,
		CacheHits:    hits,
		CacheMisses:  misses,
	}
}

// collectNarrative runs every Template with bounded concurrency, gating
// follow-ups on the primary response's confidence.
func (o *Orchestrator) collectNarrative(ctx context.Context, p Params) ([]record.Record, error) {
	sem := semaphore.NewWeighted(narrativeConcurrency)
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var out []record.Record
	var firstErr error

	for _, tmpl := range Templates {
		tmpl := tmpl
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			recs, err := o.runNarrativeTemplate(gctx, tmpl, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			out = append(out, recs...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out == nil && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// runNarrativeTemplate issues the primary query, then up to maxFollowUps
// follow-up queries gated by the primary's confidence, spaced at least
// followUpMinSpacing apart.
func (o *Orchestrator) runNarrativeTemplate(ctx context.Context, tmpl narrative.Template, p Params) ([]record.Record, error) {
	primary, err := o.queryNarrative(ctx, tmpl.Primary, p)
	if err != nil {
		return nil, err
	}

	var out []record.Record
	out = append(out, normalize.Narrative(primary)...)

	if primary.Confidence <= followUpConfidenceThreshold {
		return out, nil
	}

	followUps := tmpl.FollowUps
	if len(followUps) > maxFollowUps {
		followUps = followUps[:maxFollowUps]
	}

	last := time.Now()
	for _, q := range followUps {
		if gap := followUpMinSpacing - time.Since(last); gap > 0 {
			timer := time.NewTimer(gap)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out, ctx.Err()
			case <-timer.C:
			}
		}
		last = time.Now()

		payload, err := o.queryNarrative(ctx, q, p)
		if err != nil {
			// A follow-up failure does not discard the primary's records.
			break
		}
		out = append(out, normalize.Narrative(payload)...)
	}
	return out, nil
}

func (o *Orchestrator) queryNarrative(ctx context.Context, message string, p Params) (narrative.RawPayload, error) {
	params := narrative.QueryParams{
		Message:        message,
		UserID:         p.UserID,
		ConversationID: p.ConversationID,
		MaxResults:     10,
		MinScore:       0.5,
	}

	if o.cache != nil && p.UseCache {
		var cached narrative.RawPayload
		if ok, _ := o.cache.Get("narrative", params, &cached); ok {
			o.recordCacheHit()
			return cached, nil
		}
		o.recordCacheMiss()
	}

	payload, err := retry.Do(ctx, retry.NarrativePolicy, func(ctx context.Context) (narrative.RawPayload, error) {
		return o.narrative.Query(ctx, params)
	})
	if err != nil {
		return narrative.RawPayload{}, err
	}

	if o.cache != nil && p.UseCache {
		_, _ = o.cache.Set("narrative", params, payload)
	}
	return payload, nil
}

// collectTrade fetches every TradeFamily concurrently and normalizes the
// results.
func (o *Orchestrator) collectTrade(ctx context.Context, p Params) ([]record.Record, error) {
	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var out []record.Record
	var firstErr error

	for _, family := range TradeFamilies {
		family := family
		g.Go(func() error {
			params := trade.QueryParams{Family: family, DaysBack: p.TradeDaysBack}

			var interventions []trade.Intervention
			if o.cache != nil && p.UseCache {
				var cached []trade.Intervention
				if ok, _ := o.cache.Get("trade:"+string(family), params, &cached); ok {
					interventions = cached
					o.recordCacheHit()
				} else {
					o.recordCacheMiss()
				}
			}

			if interventions == nil {
				ivs, err := retry.Do(gctx, retry.TradePolicy, func(ctx context.Context) ([]trade.Intervention, error) {
					return o.trade.Query(ctx, params)
				})
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return nil
				}
				interventions = ivs
				if o.cache != nil && p.UseCache {
					_, _ = o.cache.Set("trade:"+string(family), params, interventions)
				}
			}

			recs := make([]record.Record, 0, len(interventions))
			for _, iv := range interventions {
				recs = append(recs, normalize.Trade(iv, now))
			}

			mu.Lock()
			out = append(out, recs...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out == nil && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// collectMacro fetches every MacroCategory concurrently and normalizes the
// results.
func (o *Orchestrator) collectMacro(ctx context.Context, p Params) ([]record.Record, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var out []record.Record
	var firstErr error

	for _, category := range MacroCategories {
		category := category
		g.Go(func() error {
			params := macro.QueryParams{Category: category, DaysBack: p.MacroDaysBack}

			var observations []macro.Observation
			if o.cache != nil && p.UseCache {
				var cached []macro.Observation
				if ok, _ := o.cache.Get("macro:"+string(category), params, &cached); ok {
					observations = cached
					o.recordCacheHit()
				} else {
					o.recordCacheMiss()
				}
			}

			if observations == nil {
				obs, err := retry.Do(gctx, retry.MacroPolicy, func(ctx context.Context) ([]macro.Observation, error) {
					return o.macro.Query(ctx, params)
				})
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return nil
				}
				observations = obs
				if o.cache != nil && p.UseCache {
					_, _ = o.cache.Set("macro:"+string(category), params, observations)
				}
			}

			recs := make([]record.Record, 0, len(observations))
			for _, obs := range observations {
				recs = append(recs, normalize.Macro(obs))
			}

			mu.Lock()
			out = append(out, recs...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out == nil && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
