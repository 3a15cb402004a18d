package signals

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

// Generator merges scores, the market gate, and AI consensus into final
// graded signals
// ⭐ SSOT: 등급 산정과 목표가/손절가 계산은 여기서만
type Generator struct {
	config strategy.Signals
	logger *logger.Logger
}

// NewGenerator creates a signal generator
func NewGenerator(config strategy.Signals, log *logger.Logger) *Generator {
	return &Generator{
		config: config,
		logger: log,
	}
}

// Generate produces the run's signal sequence.
//
// Market-first 불변식: 게이트가 RED면 개별 점수와 무관하게 빈 시퀀스.
// 합의 unavailable 후보는 D등급 + 수동 검토 플래그 (그 이상 등급 불가).
func (g *Generator) Generate(
	ctx context.Context,
	scores []contracts.CandidateScore,
	gate contracts.MarketGateState,
	consensus map[string]contracts.ConsensusResult,
	names map[string]string,
) []contracts.Signal {
	if !gate.AllowsEntry() {
		g.logger.WithFields(map[string]interface{}{
			"gate_level":     gate.Level,
			"gate_composite": gate.Composite,
			"suppressed":     len(scores),
		}).Warn("Market gate RED: all signal emission suppressed")
		return []contracts.Signal{}
	}

	now := time.Now()
	out := make([]contracts.Signal, 0, len(scores))

	for _, score := range scores {
		result, analyzed := consensus[score.Code]

		grade := g.gradeFromScore(score.Composite)
		manualReview := false

		switch {
		case !analyzed:
			// 상위 N 밖: AI 미분석, 점수 등급 그대로
		case result.Unavailable:
			grade = contracts.GradeD
			manualReview = true
		case !result.Agreement:
			grade = grade.Downgrade()
		}

		signal := contracts.Signal{
			Code:         score.Code,
			Name:         names[score.Code],
			Date:         score.Date,
			Grade:        grade,
			Composite:    score.Composite,
			Consensus:    result,
			Close:        score.Close,
			TargetPrice:  score.Close * (1 + g.config.TargetPct),
			StopPrice:    score.Close * (1 - g.config.StopPct),
			PositionHint: g.positionHint(grade),
			ManualReview: manualReview,
			GeneratedAt:  now,
		}
		out = append(out, signal)
	}

	// Composite descending, code ascending on ties
	sort.Slice(out, func(i, j int) bool {
		if out[i].Composite != out[j].Composite {
			return out[i].Composite > out[j].Composite
		}
		return out[i].Code < out[j].Code
	})

	g.logger.WithFields(map[string]interface{}{
		"gate_level": gate.Level,
		"signals":    len(out),
	}).Info("Signal generation completed")

	return out
}

// gradeFromScore maps the composite to the configured cutoffs
func (g *Generator) gradeFromScore(composite float64) contracts.Grade {
	c := g.config.GradeCutoffs
	switch {
	case composite >= c.S:
		return contracts.GradeS
	case composite >= c.A:
		return contracts.GradeA
	case composite >= c.B:
		return contracts.GradeB
	case composite >= c.C:
		return contracts.GradeC
	default:
		return contracts.GradeD
	}
}

// positionHint returns the configured size hint for a grade
func (g *Generator) positionHint(grade contracts.Grade) float64 {
	p := g.config.PositionPct
	switch grade {
	case contracts.GradeS:
		return p.S
	case contracts.GradeA:
		return p.A
	case contracts.GradeB:
		return p.B
	case contracts.GradeC:
		return p.C
	default:
		return p.D
	}
}
