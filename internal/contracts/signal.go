package contracts

import "time"

// Grade is the final S/A/B/C/D classification
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Downgrade returns the grade one step lower (D stays D)
func (g Grade) Downgrade() Grade {
	switch g {
	case GradeS:
		return GradeA
	case GradeA:
		return GradeB
	case GradeB:
		return GradeC
	default:
		return GradeD
	}
}

// Signal is the terminal artifact of a pipeline run for one candidate.
// Append-only; never mutated after creation.
type Signal struct {
	Code string    `json:"code"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`

	Grade     Grade   `json:"grade"`
	Composite float64 `json:"composite"`

	Consensus ConsensusResult `json:"consensus"`

	Close        float64 `json:"close"`
	TargetPrice  float64 `json:"target_price"`
	StopPrice    float64 `json:"stop_price"`
	PositionHint float64 `json:"position_hint"` // 비중 힌트 (0~1)

	ManualReview bool `json:"manual_review"` // AI 합의 불가 종목

	GeneratedAt time.Time `json:"generated_at"`
}
