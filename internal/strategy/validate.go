package strategy

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints.
// 안전 관련 파라미터(게이트 컷오프, 필터 임계값)는 조용한 기본값 없이
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Screening ===
	if cfg.Screening.MinTradedValueKRW <= 0 {
		return ValidationError{"screening.min_traded_value_krw", "must be > 0"}
	}
	if cfg.Screening.ChangePctMin >= cfg.Screening.ChangePctMax {
		return ValidationError{"screening", "change_pct_min must be < change_pct_max"}
	}
	if cfg.Screening.MinVolumeRatio <= 0 {
		return ValidationError{"screening.min_volume_ratio", "must be > 0"}
	}

	// === Scoring ===
	if cfg.Scoring.FlowMax <= 0 || cfg.Scoring.InstMax <= 0 || cfg.Scoring.PatternMax <= 0 {
		return ValidationError{"scoring", "component caps must be > 0"}
	}
	if cfg.Scoring.DualBonus < 0 {
		return ValidationError{"scoring.dual_bonus", "must be >= 0"}
	}
	maxTotal := cfg.Scoring.FlowMax + cfg.Scoring.InstMax + cfg.Scoring.PatternMax + cfg.Scoring.DualBonus
	if maxTotal > 100+1e-9 {
		return ValidationError{"scoring", fmt.Sprintf("component caps sum to %.1f, must not exceed 100", maxTotal)}
	}
	if cfg.Scoring.ForeignScaleKRW <= 0 || cfg.Scoring.InstScaleKRW <= 0 {
		return ValidationError{"scoring", "normalization scales must be > 0"}
	}

	// === Gate ===
	if math.Abs(cfg.Gate.Weights.Sum()-100) > 1e-6 {
		return ValidationError{"gate.weights", fmt.Sprintf("must sum to 100, got %.2f", cfg.Gate.Weights.Sum())}
	}
	if cfg.Gate.RSIBandMin >= cfg.Gate.RSIBandMax {
		return ValidationError{"gate", "rsi_band_min must be < rsi_band_max"}
	}
	if cfg.Gate.RSIBandMin < 0 || cfg.Gate.RSIBandMax > 100 {
		return ValidationError{"gate", "rsi band must be within [0, 100]"}
	}
	if cfg.Gate.FXDangerKRW <= 0 {
		return ValidationError{"gate.fx_danger_krw", "must be > 0"}
	}
	if cfg.Gate.GreenCutoff <= cfg.Gate.YellowCutoff {
		return ValidationError{"gate", "green_cutoff must be > yellow_cutoff"}
	}
	if cfg.Gate.YellowCutoff <= 0 || cfg.Gate.GreenCutoff >= 100 {
		return ValidationError{"gate", "cutoffs must be within (0, 100)"}
	}

	// === AI ===
	if cfg.AI.TopN <= 0 {
		return ValidationError{"ai.top_n", "must be > 0"}
	}
	if cfg.AI.Concurrency < 1 || cfg.AI.Concurrency > 64 {
		return ValidationError{"ai.concurrency", "must be within [1, 64]"}
	}
	if cfg.AI.MaxAttempts < 1 {
		return ValidationError{"ai.max_attempts", "must be >= 1"}
	}
	if cfg.AI.AttemptTimeout <= 0 || cfg.AI.RunTimeout <= 0 {
		return ValidationError{"ai", "timeouts must be > 0"}
	}
	if cfg.AI.BackoffInitial <= 0 || cfg.AI.BackoffMax < cfg.AI.BackoffInitial {
		return ValidationError{"ai", "backoff_initial must be > 0 and <= backoff_max"}
	}
	if cfg.AI.PrimaryProvider == "" {
		return ValidationError{"ai.primary_provider", "required"}
	}
	if cfg.AI.RatePerMinute <= 0 {
		return ValidationError{"ai.rate_per_minute", "must be > 0"}
	}

	// === Signals ===
	c := cfg.Signals.GradeCutoffs
	if !(c.S > c.A && c.A > c.B && c.B > c.C && c.C > 0) {
		return ValidationError{"signals.grade_cutoffs", "must satisfy s > a > b > c > 0"}
	}
	if c.S >= 100 {
		return ValidationError{"signals.grade_cutoffs.s", "must be < 100"}
	}
	if cfg.Signals.TargetPct <= 0 || cfg.Signals.TargetPct >= 1 {
		return ValidationError{"signals.target_pct", "must be within (0, 1)"}
	}
	if cfg.Signals.StopPct <= 0 || cfg.Signals.StopPct >= 1 {
		return ValidationError{"signals.stop_pct", "must be within (0, 1)"}
	}
	for name, v := range map[string]float64{
		"s": cfg.Signals.PositionPct.S,
		"a": cfg.Signals.PositionPct.A,
		"b": cfg.Signals.PositionPct.B,
		"c": cfg.Signals.PositionPct.C,
		"d": cfg.Signals.PositionPct.D,
	} {
		if v < 0 || v > 1 {
			return ValidationError{"signals.position_pct." + name, "must be within [0, 1]"}
		}
	}

	return nil
}
