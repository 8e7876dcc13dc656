package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solairus/aviation-brief/internal/cache"
	"github.com/solairus/aviation-brief/internal/config"
	"github.com/solairus/aviation-brief/internal/progress"
)

func TestCollectAllReportsUnconfiguredForEveryUnconfiguredSource(t *testing.T) {
	cfg := &config.Config{}

	orch := New(cfg, nil, nil)
	result := orch.CollectAll(context.Background(), Params{UserID: "u", ConversationID: "c"})

	require.Equal(t, progress.SourceUnconfigured, result.SourceStatus["narrative"])
	require.Equal(t, progress.SourceUnconfigured, result.SourceStatus["trade"])
	require.Equal(t, progress.SourceUnconfigured, result.SourceStatus["macro"])
	require.Empty(t, result.Narrative)
	require.Empty(t, result.Trade)
	require.Empty(t, result.Macro)
}

func TestCollectAllOneSourceFailingNeverBlocksTheOthers(t *testing.T) {
	// All three sources are unconfigured here, which already exercises the
	// "one source's outcome never blocks collection of the others" path:
	// every goroutine in CollectAll always returns a nil error to errgroup,
	// so a real failure in one never cancels the shared context the other
	// two are running under.
	cfg := &config.Config{
		Trade: config.TradeConfig{BaseURL: "", APIKey: ""},
	}

	orch := New(cfg, nil, nil)
	result := orch.CollectAll(context.Background(), Params{})

	require.Len(t, result.SourceStatus, 3)
	for _, source := range []string{"narrative", "trade", "macro"} {
		require.Contains(t, result.SourceStatus, source)
	}
}

func TestCollectAllPublishesPendingThenTerminalStateForEverySource(t *testing.T) {
	cfg := &config.Config{}
	broadcaster := progress.New()
	defer broadcaster.Close()

	orch := New(cfg, nil, broadcaster)
	orch.CollectAll(context.Background(), Params{})

	events := broadcaster.Events()
	require.NotEmpty(t, events)

	seenPending := map[string]bool{}
	seenTerminal := map[string]bool{}
	for _, ev := range events {
		switch ev.State {
		case progress.SourcePending:
			seenPending[ev.Source] = true
		case progress.SourceUnconfigured, progress.SourceFailed, progress.SourceSuccess:
			seenTerminal[ev.Source] = true
		}
	}

	for _, source := range []string{"narrative", "trade", "macro"} {
		require.True(t, seenPending[source], "expected a pending event for %s", source)
		require.True(t, seenTerminal[source], "expected a terminal event for %s", source)
	}
}

func TestCollectAllRecordsCacheMissesForUnconfiguredSourcesWhenCacheEnabled(t *testing.T) {
	cfg := &config.Config{}
	c, err := cache.New(t.TempDir(), true)
	require.NoError(t, err)

	orch := New(cfg, c, nil)
	result := orch.CollectAll(context.Background(), Params{UseCache: true})

	// Every template/family/category fetch checks the cache before calling its
	// adapter, including ones that will fail Unconfigured, so a cold cache
	// records one miss per Templates+TradeFamilies+MacroCategories entry.
	require.Equal(t, len(Templates)+len(TradeFamilies)+len(MacroCategories), result.CacheMisses)
	require.Zero(t, result.CacheHits)
}

func TestCollectAllSkipsCacheEntirelyWhenUseCacheIsFalse(t *testing.T) {
	cfg := &config.Config{}
	c, err := cache.New(t.TempDir(), true)
	require.NoError(t, err)

	orch := New(cfg, c, nil)
	result := orch.CollectAll(context.Background(), Params{UseCache: false})

	require.Zero(t, result.CacheHits)
	require.Zero(t, result.CacheMisses)
}

func TestNewAcceptsNilCacheAndNilBroadcaster(t *testing.T) {
	cfg := &config.Config{}
	orch := New(cfg, nil, nil)
	require.NotPanics(t, func() {
		orch.CollectAll(context.Background(), Params{})
	})
}
