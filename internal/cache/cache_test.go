package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Value string `json:"value"`
}

func TestGetAfterSetWithinTTL(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, true, WithTTL(time.Hour))
	require.NoError(t, err)

	ok, err := c.Set("narrative", map[string]string{"q": "fuel"}, payload{Value: "hello"})
	require.NoError(t, err)
	require.True(t, ok)

	var got payload
	ok, err = c.Get("narrative", map[string]string{"q": "fuel"}, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", got.Value)
}

func TestGetAfterTTLExpiryMissesAndDeletes(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c, err := New(dir, true, WithTTL(time.Millisecond), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	_, err = c.Set("trade", map[string]string{"q": "sanctions"}, payload{Value: "x"})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)

	var got payload
	ok, err := c.Get("trade", map[string]string{"q": "sanctions"}, &got)
	require.NoError(t, err)
	require.False(t, ok)

	stats, err := c.StatsOf()
	require.NoError(t, err)
	require.Equal(t, 0, stats.Entries)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, false)
	require.NoError(t, err)

	ok, err := c.Set("macro", map[string]string{"series": "CPI"}, payload{Value: "x"})
	require.NoError(t, err)
	require.False(t, ok)

	var got payload
	ok, err = c.Get("macro", map[string]string{"series": "CPI"}, &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClearScopedBySource(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, true)
	require.NoError(t, err)

	_, _ = c.Set("narrative", map[string]string{"q": "a"}, payload{Value: "1"})
	_, _ = c.Set("trade", map[string]string{"q": "b"}, payload{Value: "2"})

	n, err := c.Clear("narrative")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	stats, err := c.StatsOf()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Entries)
}
