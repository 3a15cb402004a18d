package marketgate

import (
	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

// Gate evaluates market-wide indicators into a GREEN/YELLOW/RED
// admission state. 순수 함수: 동일 지표 → 동일 상태, 이력 없음.
// ⭐ SSOT: 시장 게이트 판정은 여기서만
type Gate struct {
	config strategy.Gate
	logger *logger.Logger
}

// NewGate creates a new market gate
func NewGate(config strategy.Gate, log *logger.Logger) *Gate {
	return &Gate{
		config: config,
		logger: log,
	}
}

// Evaluate computes the composite and discrete state for one session.
// No side effects. RED blocks all new entries regardless of
// per-instrument scores.
func (g *Gate) Evaluate(indicators contracts.MarketIndicators) contracts.MarketGateState {
	components := contracts.GateComponents{
		Trend:   g.trendPoints(indicators),
		RSI:     g.rsiPoints(indicators),
		MACD:    g.macdPoints(indicators),
		FX:      g.fxPoints(indicators),
		Futures: g.futuresPoints(indicators),
	}

	composite := components.Trend + components.RSI + components.MACD +
		components.FX + components.Futures

	state := contracts.MarketGateState{
		Date:       indicators.Date,
		Composite:  composite,
		Level:      g.level(composite),
		Components: components,
		Indicators: indicators,
	}

	g.logger.WithFields(map[string]interface{}{
		"date":      indicators.Date.Format("2006-01-02"),
		"composite": composite,
		"level":     state.Level,
		"trend":     components.Trend,
		"rsi":       components.RSI,
		"macd":      components.MACD,
		"fx":        components.FX,
		"futures":   components.Futures,
	}).Info("Market gate evaluated")

	return state
}

// trendPoints: 정배열(종가 > MA20 > MA60) 만점, 종가 > MA20만 성립 시 절반
func (g *Gate) trendPoints(ind contracts.MarketIndicators) float64 {
	if ind.IndexClose > ind.IndexMA20 && ind.IndexMA20 > ind.IndexMA60 {
		return g.config.Weights.Trend
	}
	if ind.IndexClose > ind.IndexMA20 {
		return g.config.Weights.Trend / 2
	}
	return 0
}

// rsiPoints: RSI가 강세 밴드 안이면 만점
func (g *Gate) rsiPoints(ind contracts.MarketIndicators) float64 {
	if ind.RSI14 >= g.config.RSIBandMin && ind.RSI14 <= g.config.RSIBandMax {
		return g.config.Weights.RSI
	}
	return 0
}

// macdPoints: MACD 히스토그램이 양수면 만점
func (g *Gate) macdPoints(ind contracts.MarketIndicators) float64 {
	if ind.MACDHistogram > 0 {
		return g.config.Weights.MACD
	}
	return 0
}

// fxPoints: 환율이 위험 임계값 미만이면 만점
func (g *Gate) fxPoints(ind contracts.MarketIndicators) float64 {
	if ind.USDKRW < g.config.FXDangerKRW {
		return g.config.Weights.FX
	}
	return 0
}

// futuresPoints: 외국인 지수선물 순매수면 만점
func (g *Gate) futuresPoints(ind contracts.MarketIndicators) float64 {
	if ind.ForeignFuturesNet > 0 {
		return g.config.Weights.Futures
	}
	return 0
}

// level maps the composite to the discrete admission state
func (g *Gate) level(composite float64) contracts.GateLevel {
	switch {
	case composite >= g.config.GreenCutoff:
		return contracts.GateGreen
	case composite >= g.config.YellowCutoff:
		return contracts.GateYellow
	default:
		return contracts.GateRed
	}
}
