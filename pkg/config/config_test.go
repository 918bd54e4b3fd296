package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
scan:
  universe: [AAPL, MSFT]
  index_symbol: GSPC.INDX
provider:
  base_url: https://example.com/api
redis:
  host: localhost
  port: 6379
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Scan.Workers != 4 {
		t.Fatalf("expected default workers 4, got %d", c.Scan.Workers)
	}
	if c.Scan.HistoryDays != 500 {
		t.Fatalf("expected default history 500, got %d", c.Scan.HistoryDays)
	}
	if c.Scan.Cooldown != 5*24*time.Hour {
		t.Fatalf("expected default cooldown 120h, got %v", c.Scan.Cooldown)
	}
	if c.Scan.Params.ZoneLookback != 250 {
		t.Fatalf("expected normalized zone lookback 250, got %d", c.Scan.Params.ZoneLookback)
	}
}

func TestLoadRejectsEmptyUniverse(t *testing.T) {
	body := `
environment: test
scan:
  universe: []
provider:
  base_url: https://example.com/api
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "NVDA,AMD")
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("PROVIDER_API_KEY", "sekrit")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if len(c.Scan.Universe) != 2 || c.Scan.Universe[0] != "NVDA" {
		t.Fatalf("unexpected universe %v", c.Scan.Universe)
	}
	if c.Redis.Host != "cache.internal" || c.Redis.Port != 6380 {
		t.Fatalf("unexpected redis %s:%d", c.Redis.Host, c.Redis.Port)
	}
	if c.Provider.APIKey != "sekrit" {
		t.Fatalf("api key override not applied")
	}
}
