package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
funds:
  - name: "0050"
    holdings_path: data/0050.csv
    prices_path: data/0050_prices.csv
  - name: "0056"
    holdings_path: data/0056.xlsx
    has_amount: false
    price_symbol: 0056.TW
period:
  start: "2018/01"
  end: "2024/12"
holdings:
  top_n: 5
  skip_rows: 0
output:
  dir: out
`
	cfg, err := Load(writeTempFile(t, yaml))
	require.NoError(t, err)

	require.Len(t, cfg.Funds, 2)
	assert.Equal(t, "0050", cfg.Funds[0].Name)
	assert.True(t, cfg.Funds[0].AmountColumn())
	assert.False(t, cfg.Funds[1].AmountColumn())
	assert.Equal(t, "0056.TW", cfg.Funds[1].PriceSymbol)
	assert.Equal(t, "2018/01", cfg.Period.Start)
	assert.Equal(t, "2024/12", cfg.Period.End)
	assert.Equal(t, 5, cfg.Holdings.TopN)
	require.NotNil(t, cfg.Holdings.SkipRows)
	assert.Equal(t, 0, *cfg.Holdings.SkipRows)
	assert.Equal(t, "out", cfg.Output.Dir)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "2016/02", cfg.Period.Start)
	assert.Equal(t, "2025/02", cfg.Period.End)
	assert.Equal(t, 10, cfg.Holdings.TopN)
	assert.Equal(t, "TT99", cfg.Holdings.SentinelCode)
	assert.Equal(t, 1, *cfg.Holdings.SkipRows)
	assert.Equal(t, []string{"utf-8-sig", "utf-8", "big5", "cp950"}, cfg.Holdings.Encodings)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.Schedule.Cron)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PERIOD_START", "2017/01")
	t.Setenv("TOP_N", "12")
	t.Setenv("SQLITE_PATH", "/tmp/panel.db")
	t.Setenv("WORKERS", "2")

	cfg, err := Load(writeTempFile(t, "period:\n  start: \"2010/01\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "2017/01", cfg.Period.Start)
	assert.Equal(t, 12, cfg.Holdings.TopN)
	assert.Equal(t, "/tmp/panel.db", cfg.Database.SQLitePath)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("TOP_N", "ten")

	_, err := Load(writeTempFile(t, ""))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTempFile(t, "funds: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		cfg.Funds = []FundConfig{{Name: "a", HoldingsPath: "h.csv", PricesPath: "p.csv"}}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no funds", func(c *Config) { c.Funds = nil }},
		{"missing name", func(c *Config) { c.Funds[0].Name = "" }},
		{"duplicate name", func(c *Config) { c.Funds = append(c.Funds, c.Funds[0]) }},
		{"name with slash", func(c *Config) { c.Funds[0].Name = "../escape" }},
		{"name with backslash", func(c *Config) { c.Funds[0].Name = `..\escape` }},
		{"missing holdings", func(c *Config) { c.Funds[0].HoldingsPath = "" }},
		{"missing prices", func(c *Config) { c.Funds[0].PricesPath = "" }},
		{"bad period", func(c *Config) { c.Period.Start = "2016-02" }},
		{"inverted period", func(c *Config) { c.Period.Start, c.Period.End = "2025/02", "2016/02" }},
		{"zero top_n", func(c *Config) { c.Holdings.TopN = 0 }},
		{"unknown encoding", func(c *Config) { c.Holdings.Encodings = []string{"latin9"} }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "0 18 1 * *" }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"negative skip_rows", func(c *Config) { n := -1; c.Holdings.SkipRows = &n }},
	}

	require.NoError(t, valid(t).Validate())

	symbolOnly := valid(t)
	symbolOnly.Funds[0].PricesPath, symbolOnly.Funds[0].PriceSymbol = "", "0050.TW"
	require.NoError(t, symbolOnly.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_FieldPathInMessage(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Funds = []FundConfig{{Name: "a", PricesPath: "p.csv"}}

	assert.ErrorContains(t, cfg.Validate(), "funds[0].holdings_path")

	cfg.Funds = []FundConfig{{Name: "x/y", HoldingsPath: "h.csv", PricesPath: "p.csv"}}
	assert.ErrorContains(t, cfg.Validate(), `funds[0].name: failed "excludesall" check`)
}
