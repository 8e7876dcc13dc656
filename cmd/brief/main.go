// Command brief runs one aviation intelligence brief collection pipeline
// and prints a plain-text rendering of its result to stdout.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/runner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	opts := runner.Options{
		UserID:         "cli",
		ConversationID: fmt.Sprintf("brief-%d", time.Now().UnixNano()),
		TradeDaysBack:  90,
		MacroDaysBack:  90,
		UseCache:       cfg.Cache.Enabled,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
	}

	run, err := runner.Execute(runCtx, cfg, opts)
	if err != nil {
		log.Fatalf("brief run failed: %v", err)
	}

	render(run)
}

func render(run *runner.Run) {
	fmt.Println("=== EXECUTIVE SUMMARY ===")
	for _, line := range run.Summary.BottomLine {
		fmt.Println("- " + line)
	}
	fmt.Println()

	fmt.Println("=== KEY FINDINGS ===")
	for _, f := range run.Summary.KeyFindings {
		if f.Subheader != "" {
			fmt.Println("## " + f.Subheader)
		}
		if f.Content != "" {
			fmt.Println(f.Content)
		}
		for _, b := range f.Bullets {
			fmt.Println("  - " + b)
		}
	}
	fmt.Println()

	fmt.Println("=== WATCH FACTORS ===")
	for _, wf := range run.Summary.WatchFactors {
		fmt.Printf("* %s | %s | %s\n", wf.Indicator, wf.What, wf.Why)
	}
	fmt.Println()

	fmt.Println("=== SECTOR BRIEFS ===")
	for _, bundle := range run.Sectors {
		if len(bundle.Records) == 0 {
			continue
		}
		fmt.Printf("\n-- %s (%d records) --\n", bundle.Sector, len(bundle.Records))
		fmt.Println(bundle.Summary)
		for _, risk := range bundle.Risks {
			fmt.Println("  risk: " + risk)
		}
		for _, opp := range bundle.Opportunities {
			fmt.Println("  opportunity: " + opp)
		}
	}

	fmt.Println()
	fmt.Println("=== RUN SUMMARY ===")
	fmt.Printf("duration=%s collected=%d merged=%d cache_hits=%d cache_misses=%d est_cost_usd=%.4f\n",
		run.Meta.Duration, run.Meta.RecordsByStage["collected"], run.Meta.RecordsByStage["merged"],
		run.Meta.CacheHits, run.Meta.CacheMisses, run.Meta.EstimatedCostUSD)
	for _, t := range run.Meta.SourceTimings {
		fmt.Printf("  %s: status=%s records=%d duration=%s\n", t.Source, t.Status, t.Records, t.Duration)
	}
}
