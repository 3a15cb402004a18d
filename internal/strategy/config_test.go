package strategy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "krx_signals_v1", cfg.Meta.StrategyID)
	assert.Equal(t, float64(100), cfg.Gate.Weights.Sum())
	assert.Equal(t, 45*time.Second, cfg.AI.AttemptTimeout.Std())
}

func TestHash_Deterministic(t *testing.T) {
	cfg := Default()

	hash1, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash1, 64)

	hash2, err := Hash(cfg)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "동일 설정은 동일 해시")

	// 값 하나만 바뀌어도 해시가 달라져야 함
	cfg.Screening.MinVolumeRatio = 2.0
	hash3, err := Hash(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash3)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")

	// "screeening" 오타: KnownFields(true)로 즉시 실패해야 함
	yaml := `
meta:
  strategy_id: test
  version: 1.0.0
  timezone: Asia/Seoul
screeening:
  min_traded_value_krw: 100
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ParsesDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")

	yaml := `
meta:
  strategy_id: krx_signals_v1
  version: 1.0.0
  timezone: Asia/Seoul
screening:
  min_traded_value_krw: 10000000000
  change_pct_min: -2.0
  change_pct_max: 15.0
  min_volume_ratio: 1.5
scoring:
  flow_max: 40
  inst_max: 30
  pattern_max: 10
  dual_bonus: 10
  foreign_scale_krw: 30000000000
  inst_scale_krw: 20000000000
gate:
  weights:
    trend: 30
    rsi: 20
    macd: 20
    fx: 15
    futures: 15
  rsi_band_min: 45
  rsi_band_max: 70
  fx_danger_krw: 1400
  green_cutoff: 70
  yellow_cutoff: 40
ai:
  top_n: 5
  concurrency: 6
  max_attempts: 3
  attempt_timeout: 45s
  run_timeout: 10m
  backoff_initial: 2s
  backoff_max: 30s
  primary_provider: claude
  rate_per_minute: 20
  cache_ttl: 24h
signals:
  grade_cutoffs:
    s: 85
    a: 70
    b: 55
    c: 40
  target_pct: 0.10
  stop_pct: 0.05
  position_pct:
    s: 1.0
    a: 0.75
    b: 0.5
    c: 0.25
    d: 0
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.AI.AttemptTimeout.Std())
	assert.Equal(t, 10*time.Minute, cfg.AI.RunTimeout.Std())
	assert.Equal(t, 24*time.Hour, cfg.AI.CacheTTL.Std())
}

func TestLoad_MissingFileFails(t *testing.T) {
	// Load에는 기본값 폴백이 없다 (명시적 경로용)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Meta.StrategyID, cfg.Meta.StrategyID)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero traded value", func(c *Config) { c.Screening.MinTradedValueKRW = 0 }},
		{"inverted change band", func(c *Config) { c.Screening.ChangePctMin = 20; c.Screening.ChangePctMax = 15 }},
		{"caps exceed 100", func(c *Config) { c.Scoring.FlowMax = 60 }},
		{"zero pattern cap", func(c *Config) { c.Scoring.PatternMax = 0 }},
		{"gate weights not 100", func(c *Config) { c.Gate.Weights.Trend = 50 }},
		{"inverted rsi band", func(c *Config) { c.Gate.RSIBandMin = 80 }},
		{"green below yellow", func(c *Config) { c.Gate.GreenCutoff = 30 }},
		{"zero top_n", func(c *Config) { c.AI.TopN = 0 }},
		{"excess concurrency", func(c *Config) { c.AI.Concurrency = 100 }},
		{"backoff max below initial", func(c *Config) { c.AI.BackoffMax = Duration(time.Second) }},
		{"no primary provider", func(c *Config) { c.AI.PrimaryProvider = "" }},
		{"unordered grade cutoffs", func(c *Config) { c.Signals.GradeCutoffs.A = 90 }},
		{"target pct out of range", func(c *Config) { c.Signals.TargetPct = 1.5 }},
		{"position pct out of range", func(c *Config) { c.Signals.PositionPct.S = 1.2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
