package strategy

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config는 시그널 생성 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Gate      Gate      `yaml:"gate" json:"gate"`
	AI        AI        `yaml:"ai" json:"ai"`
	Signals   Signals   `yaml:"signals" json:"signals"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Screening: hard cut 필터 임계값
type Screening struct {
	MinTradedValueKRW int64   `yaml:"min_traded_value_krw" json:"min_traded_value_krw"`
	ChangePctMin      float64 `yaml:"change_pct_min" json:"change_pct_min"` // inclusive
	ChangePctMax      float64 `yaml:"change_pct_max" json:"change_pct_max"` // inclusive
	MinVolumeRatio    float64 `yaml:"min_volume_ratio" json:"min_volume_ratio"` // vs 20일 평균
}

// Scoring: 구성 점수 상한과 정규화 스케일
type Scoring struct {
	FlowMax    float64 `yaml:"flow_max" json:"flow_max"`       // 외국인 수급 상한 (기본 40)
	InstMax    float64 `yaml:"inst_max" json:"inst_max"`       // 기관 수급 상한 (기본 30)
	PatternMax float64 `yaml:"pattern_max" json:"pattern_max"` // VCP 상한 (기본 10)
	DualBonus  float64 `yaml:"dual_bonus" json:"dual_bonus"`   // 쌍끌이 보너스 (기본 10)

	ForeignScaleKRW int64 `yaml:"foreign_scale_krw" json:"foreign_scale_krw"`
	InstScaleKRW    int64 `yaml:"inst_scale_krw" json:"inst_scale_krw"`
}

// Gate: 시장 게이트 가중치와 컷오프
type Gate struct {
	Weights GateWeights `yaml:"weights" json:"weights"`

	RSIBandMin   float64 `yaml:"rsi_band_min" json:"rsi_band_min"`
	RSIBandMax   float64 `yaml:"rsi_band_max" json:"rsi_band_max"`
	FXDangerKRW  float64 `yaml:"fx_danger_krw" json:"fx_danger_krw"`
	GreenCutoff  float64 `yaml:"green_cutoff" json:"green_cutoff"`   // 기본 70
	YellowCutoff float64 `yaml:"yellow_cutoff" json:"yellow_cutoff"` // 기본 40
}

// GateWeights: 지표별 만점 (합 = 100)
type GateWeights struct {
	Trend   float64 `yaml:"trend" json:"trend"`
	RSI     float64 `yaml:"rsi" json:"rsi"`
	MACD    float64 `yaml:"macd" json:"macd"`
	FX      float64 `yaml:"fx" json:"fx"`
	Futures float64 `yaml:"futures" json:"futures"`
}

// Sum returns the sum of all gate weights
func (w GateWeights) Sum() float64 {
	return w.Trend + w.RSI + w.MACD + w.FX + w.Futures
}

// Duration wraps time.Duration so YAML can carry "45s" style values
type Duration time.Duration

// UnmarshalYAML parses a duration string like "45s" or "10m"
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON keeps the canonical string form for config hashing
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the standard library duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AI: 멀티 프로바이더 교차검증 파라미터
type AI struct {
	TopN            int      `yaml:"top_n" json:"top_n"`
	Concurrency     int      `yaml:"concurrency" json:"concurrency"` // 전역 동시 호출 상한
	MaxAttempts     int      `yaml:"max_attempts" json:"max_attempts"`
	AttemptTimeout  Duration `yaml:"attempt_timeout" json:"attempt_timeout"`
	RunTimeout      Duration `yaml:"run_timeout" json:"run_timeout"`
	BackoffInitial  Duration `yaml:"backoff_initial" json:"backoff_initial"`
	BackoffMax      Duration `yaml:"backoff_max" json:"backoff_max"`
	PrimaryProvider string   `yaml:"primary_provider" json:"primary_provider"` // 동률 시 우선 (심층 추론)
	RatePerMinute   int      `yaml:"rate_per_minute" json:"rate_per_minute"`   // 프로바이더별
	CacheTTL        Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// Signals: 등급 컷오프와 목표가/손절가 오프셋
type Signals struct {
	GradeCutoffs GradeCutoffs `yaml:"grade_cutoffs" json:"grade_cutoffs"`

	TargetPct float64 `yaml:"target_pct" json:"target_pct"` // 종가 대비 목표가 (+)
	StopPct   float64 `yaml:"stop_pct" json:"stop_pct"`     // 종가 대비 손절가 (-)

	PositionPct PositionPct `yaml:"position_pct" json:"position_pct"`
}

// GradeCutoffs: 복합 점수 → 등급 경계 (이상)
type GradeCutoffs struct {
	S float64 `yaml:"s" json:"s"`
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
}

// PositionPct: 등급별 비중 힌트 (0~1)
type PositionPct struct {
	S float64 `yaml:"s" json:"s"`
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
	D float64 `yaml:"d" json:"d"`
}

// Default returns the baseline configuration.
// 게이트 가중치와 70/40 컷오프는 백테스트로 재조정 전제의 기본값.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "krx_signals_v1",
			Version:    "1.0.0",
			Timezone:   "Asia/Seoul",
		},
		Screening: Screening{
			MinTradedValueKRW: 10_000_000_000, // 100억
			ChangePctMin:      -2.0,
			ChangePctMax:      15.0,
			MinVolumeRatio:    1.5,
		},
		Scoring: Scoring{
			FlowMax:         40,
			InstMax:         30,
			PatternMax:      10,
			DualBonus:       10,
			ForeignScaleKRW: 30_000_000_000, // 300억
			InstScaleKRW:    20_000_000_000, // 200억
		},
		Gate: Gate{
			Weights: GateWeights{
				Trend:   30,
				RSI:     20,
				MACD:    20,
				FX:      15,
				Futures: 15,
			},
			RSIBandMin:   45,
			RSIBandMax:   70,
			FXDangerKRW:  1400,
			GreenCutoff:  70,
			YellowCutoff: 40,
		},
		AI: AI{
			TopN:            5,
			Concurrency:     6,
			MaxAttempts:     3,
			AttemptTimeout:  Duration(45 * time.Second),
			RunTimeout:      Duration(10 * time.Minute),
			BackoffInitial:  Duration(2 * time.Second),
			BackoffMax:      Duration(30 * time.Second),
			PrimaryProvider: "claude",
			RatePerMinute:   20,
			CacheTTL:        Duration(24 * time.Hour),
		},
		Signals: Signals{
			GradeCutoffs: GradeCutoffs{S: 85, A: 70, B: 55, C: 40},
			TargetPct:    0.10,
			StopPct:      0.05,
			PositionPct:  PositionPct{S: 1.0, A: 0.75, B: 0.5, C: 0.25, D: 0},
		},
	}
}
