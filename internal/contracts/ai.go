package contracts

import "time"

// Verdict is a provider's qualitative call on a candidate
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictHold Verdict = "HOLD"
	VerdictSell Verdict = "SELL"
)

// AIVerdict is one provider's settled analysis attempt for one candidate.
// Failed attempts are recorded too (Confidence undefined when !Success).
type AIVerdict struct {
	Code     string `json:"code"`
	Provider string `json:"provider"`

	Verdict    Verdict `json:"verdict,omitempty"`
	Confidence float64 `json:"confidence"` // 0~1
	Rationale  string  `json:"rationale,omitempty"`

	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Attempts int           `json:"attempts"`
	Latency  time.Duration `json:"latency"`
}

// ConsensusResult is the reconciled verdict for one candidate, derived
// only from fully-settled AIVerdict sets
type ConsensusResult struct {
	Code string `json:"code"`

	Verdict    Verdict `json:"verdict,omitempty"`
	Confidence float64 `json:"confidence"`
	Agreement  bool    `json:"agreement"`

	// Unavailable means every provider failed; downstream must route
	// the candidate to manual review, never a silent pass-through.
	Unavailable bool `json:"unavailable"`

	Providers []string    `json:"providers"` // contributing (successful) provider ids
	Verdicts  []AIVerdict `json:"verdicts"`  // all attempts, including failures
}
