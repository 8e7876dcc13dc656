// Package ai layers optional generative augmentation on top of the
// deterministic pipeline: it sanitizes client identifiers ahead of
// generation, builds a bounded prompt over the top-ranked records, issues a
// genkit-backed generation call with retry and usage tracking, parses the
// line-oriented response, validates it against the source corpus, and
// falls back to a non-generative summary on any failure.
package ai

import (
	"context"
	"log"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/errs"
	"github.com/solairus/aviation-brief/internal/record"
	"github.com/solairus/aviation-brief/internal/retry"
)

// UsageTracker accumulates generation token counts across one run, so
// session metadata can report cumulative usage and an estimated cost.
type UsageTracker struct {
	InputTokens  int
	OutputTokens int
}

// costPerMillionInput/Output are the approximate list prices for the
// default flash-tier model; session metadata reports an estimate, not a
// billed figure.
const (
	costPerMillionInput  = 0.075
	costPerMillionOutput = 0.30
)

func (u *UsageTracker) add(input, output int) {
	u.InputTokens += input
	u.OutputTokens += output
}

// TotalCostUSD estimates cumulative spend from tracked token counts.
func (u *UsageTracker) TotalCostUSD() float64 {
	return float64(u.InputTokens)/1_000_000*costPerMillionInput +
		float64(u.OutputTokens)/1_000_000*costPerMillionOutput
}

// Engine runs AI augmentation operations against a configured genkit app.
// A nil Engine (constructed when AI.Enabled is false, or when no API key is
// present) causes every operation to fall through to its deterministic
// fallback without attempting generation.
type Engine struct {
	app           *genkit.Genkit
	model         string
	clientSectors map[string]string
	usage         *UsageTracker
}

// New constructs an Engine from AI configuration. It returns nil when AI is
// disabled or no API key is present, so callers degrade to the
// deterministic fallback whenever generation is unavailable, not only when
// it errors.
func New(ctx context.Context, cfg config.AIConfig, apiKey string) *Engine {
	if !cfg.Enabled || apiKey == "" {
		return nil
	}

	app := genkit.Init(
		ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: apiKey}),
		genkit.WithDefaultModel(cfg.Model),
	)

	return &Engine{
		app:           app,
		model:         cfg.Model,
		clientSectors: cfg.ClientSectors,
		usage:         &UsageTracker{},
	}
}

// Usage returns the engine's cumulative usage tracker, or a zero-value
// tracker for a nil Engine.
func (e *Engine) Usage() *UsageTracker {
	if e == nil {
		return &UsageTracker{}
	}
	return e.usage
}

// GenerateExecSummary produces the run's executive summary. It sanitizes
// the top-ranked records, prompts the model, validates the response
// against the original (not sanitized) source corpus, and falls back to a
// deterministic summary if generation or validation fails.
func (e *Engine) GenerateExecSummary(ctx context.Context, records []record.Record) record.ExecSummary {
	if e == nil {
		return deterministicExecSummary(records)
	}

	sanitized := make([]record.Record, len(records))
	for i, r := range records {
		sanitized[i] = sanitize(r, e.clientSectors)
	}
	top := topByCompositeRank(sanitized, 20)

	prompt := buildExecSummaryPrompt(top)

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		log.Printf("[ai] exec summary generation failed, falling back: %v", err)
		return deterministicExecSummary(records)
	}

	summary, ok := parseExecSummary(raw)
	if !ok {
		log.Printf("[ai] exec summary response did not parse, falling back")
		return deterministicExecSummary(records)
	}

	corpus := make([]string, 0, len(records)*3)
	for _, r := range records {
		corpus = append(corpus, r.RawContent, r.ProcessedContent, r.SoWhatStatement)
	}
	if !validateExecSummary(summary, corpus, strictMode) {
		log.Printf("[ai] exec summary failed validation, falling back")
		return deterministicExecSummary(records)
	}
	return summary
}

// GenerateSoWhat regenerates a single record's so-what statement, falling
// back to the record's existing normalizer-produced statement on any
// failure.
func (e *Engine) GenerateSoWhat(ctx context.Context, r record.Record) record.Record {
	if e == nil {
		return r
	}

	sanitized := sanitize(r, e.clientSectors)
	prompt := buildSoWhatPrompt(sanitized)

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		log.Printf("[ai] so-what generation failed, keeping existing statement: %v", err)
		return r
	}

	candidate := parseSoWhat(raw)
	if candidate == "" {
		return r
	}
	if !validateClaim(candidate, []string{r.RawContent, r.ProcessedContent, r.SoWhatStatement}, lenientMode) {
		log.Printf("[ai] so-what candidate failed validation, keeping existing statement")
		return r
	}
	return r.WithSoWhat(candidate)
}

// generationPayload is the structured JSON shape the model is instructed to
// return. The bracketed-marker contract in the prompt governs the content
// of Text; the JSON envelope around it lets genkit.GenerateData decode the
// reply without a separate free-text parsing pass at the transport layer.
type generationPayload struct {
	Text string `json:"text"`
}

// generate issues one genkit generation call through retry.AIPolicy,
// tracking token usage on success.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	data, err := retry.Do(ctx, retry.AIPolicy, func(ctx context.Context) (generationPayload, error) {
		result, resp, err := genkit.GenerateData[generationPayload](
			ctx, e.app,
			ai.WithModelName(e.model),
			ai.WithPrompt(prompt),
		)
		if err != nil {
			// Tag as transient so retry.Do's default predicate retries it.
			return generationPayload{}, errs.Transient("ai: generate", err)
		}
		if resp != nil && resp.Usage != nil {
			e.usage.add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
		return *result, nil
	})
	if err != nil {
		return "", err
	}
	return data.Text, nil
}

func compositeRank(r record.Record) float64 {
	return r.RelevanceScore * r.Confidence
}

// topByCompositeRank returns at most n records ranked by
// relevance*confidence descending.
func topByCompositeRank(records []record.Record, n int) []record.Record {
	sorted := append([]record.Record(nil), records...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && compositeRank(sorted[j]) > compositeRank(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
