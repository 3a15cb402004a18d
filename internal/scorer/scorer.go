package scorer

import (
	"context"
	"math"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

// Scorer computes the 0~100 composite score for screened candidates
// ⭐ SSOT: 점수 산출은 여기서만 (결정적: 동일 입력 → 동일 점수)
type Scorer struct {
	config strategy.Scoring
	logger *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(config strategy.Scoring, log *logger.Logger) *Scorer {
	return &Scorer{
		config: config,
		logger: log,
	}
}

// Score computes the CandidateScore for one screened candidate.
// composite = clamp(flow + inst + pattern + bonus, 0, 100)
func (s *Scorer) Score(ctx context.Context, candidate contracts.Candidate, entry contracts.SnapshotEntry) contracts.CandidateScore {
	flow := s.flowScore(entry.Flow.ForeignNet60D)
	inst := s.instScore(entry.Flow.InstNet60D)
	pattern := s.patternScore(entry.Bar)
	bonus := s.dualFlowBonus(entry.Flow)

	composite := clamp(flow+inst+pattern+bonus, 0, 100)

	score := contracts.CandidateScore{
		Code:         candidate.Code,
		Date:         entry.Bar.Date,
		FlowScore:    flow,
		InstScore:    inst,
		PatternScore: pattern,
		BonusScore:   bonus,
		Composite:    composite,
		Filters:      candidate.Filters,
		TradedValue:  candidate.TradedValue,
		Close:        entry.Bar.Close,
	}

	s.logger.WithFields(map[string]interface{}{
		"code":      candidate.Code,
		"flow":      flow,
		"inst":      inst,
		"pattern":   pattern,
		"bonus":     bonus,
		"composite": composite,
	}).Debug("Scored candidate")

	return score
}

// ScoreAll scores every candidate, preserving the screener's ordering
func (s *Scorer) ScoreAll(ctx context.Context, candidates []contracts.Candidate, snapshot *contracts.Snapshot) []contracts.CandidateScore {
	scores := make([]contracts.CandidateScore, 0, len(candidates))
	for _, candidate := range candidates {
		entry, ok := snapshot.Get(candidate.Code)
		if !ok {
			s.logger.WithField("code", candidate.Code).Warn("Snapshot entry missing for candidate")
			continue
		}
		scores = append(scores, s.Score(ctx, candidate, entry))
	}
	return scores
}

// flowScore scales the 60-session foreign net buying to 0~FlowMax.
// 순매도는 0점 (음수 없음)
func (s *Scorer) flowScore(foreignNet60 int64) float64 {
	normalized := math.Tanh(float64(foreignNet60) / float64(s.config.ForeignScaleKRW))
	return clamp(s.config.FlowMax*math.Max(0, normalized), 0, s.config.FlowMax)
}

// instScore scales the 60-session institutional net buying to 0~InstMax
func (s *Scorer) instScore(instNet60 int64) float64 {
	normalized := math.Tanh(float64(instNet60) / float64(s.config.InstScaleKRW))
	return clamp(s.config.InstMax*math.Max(0, normalized), 0, s.config.InstMax)
}

// patternScore measures volatility contraction (VCP): ratio of the recent
// 10-session range to the 60-session range, inverted and scaled to
// 0~PatternMax. 좁아진 박스일수록 고득점.
func (s *Scorer) patternScore(bar contracts.DailyBar) float64 {
	longRange := bar.High60D - bar.Low60D
	if longRange <= 0 {
		return 0
	}

	recentRange := bar.High10D - bar.Low10D
	if recentRange < 0 {
		return 0
	}

	ratio := recentRange / longRange
	return clamp(s.config.PatternMax*(1-ratio), 0, s.config.PatternMax)
}

// dualFlowBonus applies the 쌍끌이 bonus: both foreign AND institutional
// must be strictly net-positive over the 60-session window
func (s *Scorer) dualFlowBonus(flow contracts.FlowRecord) float64 {
	if flow.ForeignNet60D > 0 && flow.InstNet60D > 0 {
		return s.config.DualBonus
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
