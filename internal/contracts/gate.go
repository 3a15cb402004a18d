package contracts

import "time"

// GateLevel is the market-wide admission state
type GateLevel string

const (
	GateGreen  GateLevel = "GREEN"  // 신규 진입 허용
	GateYellow GateLevel = "YELLOW" // 주의 (진입 허용, 참고용 경고)
	GateRed    GateLevel = "RED"    // 신규 진입 전면 차단
)

// MarketIndicators are the session-level market inputs the gate evaluates.
// Supplied by the external collector alongside the snapshot.
type MarketIndicators struct {
	Date time.Time `json:"date"`

	// Index trend (KOSPI)
	IndexClose float64 `json:"index_close"`
	IndexMA20  float64 `json:"index_ma20"`
	IndexMA60  float64 `json:"index_ma60"`

	RSI14         float64 `json:"rsi_14"`
	MACDHistogram float64 `json:"macd_histogram"`

	USDKRW float64 `json:"usd_krw"` // 원/달러 환율

	ForeignFuturesNet int64 `json:"foreign_futures_net"` // 외국인 지수선물 순매수
}

// GateComponents are the per-indicator point contributions
type GateComponents struct {
	Trend   float64 `json:"trend"`
	RSI     float64 `json:"rsi"`
	MACD    float64 `json:"macd"`
	FX      float64 `json:"fx"`
	Futures float64 `json:"futures"`
}

// MarketGateState is the market-first admission decision for one session.
// Recomputed from scratch each run; no hysteresis across runs.
type MarketGateState struct {
	Date       time.Time        `json:"date"`
	Composite  float64          `json:"composite"` // 0~100
	Level      GateLevel        `json:"level"`
	Components GateComponents   `json:"components"`
	Indicators MarketIndicators `json:"indicators"`
}

// AllowsEntry reports whether new signal emission is permitted
func (g *MarketGateState) AllowsEntry() bool {
	return g.Level != GateRed
}
