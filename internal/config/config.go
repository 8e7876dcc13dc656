// Package config loads run configuration from the environment via
// godotenv.Load plus os.Getenv with default-value helpers. A missing
// credential never aborts Load; it is surfaced per-source as Unconfigured
// at adapter-construction time instead.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// NarrativeConfig holds the narrative (streaming Q&A) service's connection
// settings.
type NarrativeConfig struct {
	BaseURL      string
	BearerToken  string
	SecondaryKey string // tolerated secondary auth header
}

func (c NarrativeConfig) Configured() bool {
	return c.BaseURL != "" && (c.BearerToken != "" || c.SecondaryKey != "")
}

// TradeConfig holds the trade-intervention catalog's connection settings.
type TradeConfig struct {
	BaseURL string
	APIKey  string
}

func (c TradeConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// MacroConfig holds the macroeconomic time-series service's connection
// settings.
type MacroConfig struct {
	BaseURL string
	APIKey  string
}

func (c MacroConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// AIConfig holds the external generation service's settings.
type AIConfig struct {
	Enabled       bool
	Model         string
	ClientSectors map[string]string // company name -> sector, for the sanitizer
}

// CacheConfig holds the response cache's settings.
type CacheConfig struct {
	Enabled bool
	Dir     string
	TTL     time.Duration
}

// Config is the full run configuration.
type Config struct {
	Narrative NarrativeConfig
	Trade     TradeConfig
	Macro     MacroConfig
	AI        AIConfig
	Cache     CacheConfig
	OutputDir string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Load reads configuration from the process environment, loading a .env file
// first if present. It never fails solely because a source credential is
// missing.
func Load() (*Config, error) {
	// A missing .env file is not an error; godotenv.Load returns one in that
	// case, so we deliberately ignore it, matching local-dev convenience use
	// of .env across the pack.
	_ = godotenv.Load()

	ttlHours, err := strconv.Atoi(getEnvOrDefault("CACHE_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		ttlHours = 24
	}

	cfg := &Config{
		Narrative: NarrativeConfig{
			BaseURL:      os.Getenv("NARRATIVE_BASE_URL"),
			BearerToken:  os.Getenv("NARRATIVE_API_TOKEN"),
			SecondaryKey: os.Getenv("NARRATIVE_API_KEY"),
		},
		Trade: TradeConfig{
			BaseURL: os.Getenv("TRADE_BASE_URL"),
			APIKey:  os.Getenv("TRADE_API_KEY"),
		},
		Macro: MacroConfig{
			BaseURL: getEnvOrDefault("MACRO_BASE_URL", "https://api.stlouisfed.org/fred"),
			APIKey:  os.Getenv("MACRO_API_KEY"),
		},
		AI: AIConfig{
			Enabled: getBoolOrDefault("AI_ENABLED", true),
			Model:   getEnvOrDefault("AI_MODEL", "googleai/gemini-2.5-flash"),
		},
		Cache: CacheConfig{
			Enabled: getBoolOrDefault("CACHE_ENABLED", true),
			Dir:     getEnvOrDefault("CACHE_DIR", "outputs/.cache"),
			TTL:     time.Duration(ttlHours) * time.Hour,
		},
		OutputDir: getEnvOrDefault("OUTPUT_DIR", "outputs"),
	}

	cfg.AI.ClientSectors = loadClientSectorMap()

	return cfg, nil
}

// loadClientSectorMap parses CLIENT_SECTOR_MAP, a comma-separated list of
// name=sector pairs (e.g. "Cisco=technology,Meridian Capital=finance"), used
// by the AI engine's client-name sanitizer.
func loadClientSectorMap() map[string]string {
	raw := os.Getenv("CLIENT_SECTOR_MAP")
	out := map[string]string{}
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			continue
		}
		name, sector := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if name == "" || sector == "" {
			continue
		}
		out[name] = sector
	}
	return out
}
