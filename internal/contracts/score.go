package contracts

import "time"

// Candidate is one instrument that survived the hard-cut screen.
// Ordering: traded value descending, code ascending on ties.
type Candidate struct {
	Code        string          `json:"code"`
	TradedValue int64           `json:"traded_value"`
	Filters     map[string]bool `json:"filters"` // filter name -> passed
}

// CandidateScore holds the component scores for one screened candidate.
// Immutable once emitted; composite = clamp(flow+inst+pattern+bonus, 0, 100).
type CandidateScore struct {
	Code string    `json:"code"`
	Date time.Time `json:"date"`

	// 구성 점수 (각각 설정된 상한으로 클램프)
	FlowScore    float64 `json:"flow_score"`    // 외국인 수급 (0~40)
	InstScore    float64 `json:"inst_score"`    // 기관 수급 (0~30)
	PatternScore float64 `json:"pattern_score"` // VCP 변동성 수축 (0~10)
	BonusScore   float64 `json:"bonus_score"`   // 쌍끌이 보너스 (+10)

	Composite float64 `json:"composite"` // 0~100

	// Pass-through for downstream stages
	Filters     map[string]bool `json:"filters"`
	TradedValue int64           `json:"traded_value"`
	Close       float64         `json:"close"` // 기준 종가 (목표가/손절가 산출용)
}
