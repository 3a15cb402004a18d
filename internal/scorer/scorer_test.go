package scorer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

var testDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return NewScorer(strategy.Default().Scoring, logger.NewNop())
}

func entryWith(foreignNet60, instNet60 int64, bar contracts.DailyBar) contracts.SnapshotEntry {
	bar.Code = "005930"
	bar.Date = testDate
	return contracts.SnapshotEntry{
		Bar: bar,
		Flow: contracts.FlowRecord{
			Code:          "005930",
			Date:          testDate,
			ForeignNet60D: foreignNet60,
			InstNet60D:    instNet60,
		},
	}
}

func scoreOf(t *testing.T, entry contracts.SnapshotEntry) contracts.CandidateScore {
	t.Helper()
	candidate := contracts.Candidate{Code: "005930", TradedValue: entry.Bar.TradedValue}
	return newTestScorer().Score(context.Background(), candidate, entry)
}

func TestScore_ComponentCaps(t *testing.T) {
	// 극단적 수급 + 좁은 박스: 모든 구성 점수가 상한에서 멈춰야 함
	entry := entryWith(1_000_000_000_000, 1_000_000_000_000, contracts.DailyBar{
		Close:   70000,
		High10D: 70000, Low10D: 70000, // 수축 완벽
		High60D: 90000, Low60D: 50000,
	})

	score := scoreOf(t, entry)

	assert.InDelta(t, 40, score.FlowScore, 0.01)
	assert.InDelta(t, 30, score.InstScore, 0.01)
	assert.InDelta(t, 10, score.PatternScore, 0.01)
	assert.Equal(t, 10.0, score.BonusScore)
	assert.InDelta(t, 90, score.Composite, 0.1)
	assert.LessOrEqual(t, score.Composite, 100.0)
}

func TestScore_NetSellingScoresZero(t *testing.T) {
	entry := entryWith(-50_000_000_000, -50_000_000_000, contracts.DailyBar{
		Close:   70000,
		High10D: 70000, Low10D: 68000,
		High60D: 90000, Low60D: 50000,
	})

	score := scoreOf(t, entry)

	assert.Equal(t, 0.0, score.FlowScore)
	assert.Equal(t, 0.0, score.InstScore)
	assert.Equal(t, 0.0, score.BonusScore)
	assert.GreaterOrEqual(t, score.Composite, 0.0)
}

func TestScore_TanhNormalization(t *testing.T) {
	// 외국인 순매수 = 스케일(300억)일 때 flow = 40 * tanh(1)
	entry := entryWith(30_000_000_000, 0, contracts.DailyBar{Close: 70000})
	score := scoreOf(t, entry)
	assert.InDelta(t, 40*math.Tanh(1), score.FlowScore, 0.001)
}

func TestScore_DualBonusRequiresBothPositive(t *testing.T) {
	tests := []struct {
		name       string
		foreign    int64
		inst       int64
		wantBonus  float64
	}{
		{"both positive", 10_000_000_000, 5_000_000_000, 10},
		{"foreign only", 10_000_000_000, 0, 0},
		{"inst only", 0, 5_000_000_000, 0},
		{"foreign positive inst negative", 10_000_000_000, -1, 0},
		{"both zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := entryWith(tt.foreign, tt.inst, contracts.DailyBar{Close: 70000})
			score := scoreOf(t, entry)
			assert.Equal(t, tt.wantBonus, score.BonusScore)
		})
	}
}

func TestScore_PatternContraction(t *testing.T) {
	tests := []struct {
		name string
		bar  contracts.DailyBar
		want float64
	}{
		{
			// 10일 레인지가 60일 레인지의 절반 → 10 * (1 - 0.5) = 5
			name: "half contraction",
			bar:  contracts.DailyBar{Close: 70000, High10D: 72000, Low10D: 67000, High60D: 75000, Low60D: 65000},
			want: 5,
		},
		{
			// 60일 레인지 0 (데이터 이상): 패턴 점수 없음
			name: "degenerate long range",
			bar:  contracts.DailyBar{Close: 70000, High10D: 70000, Low10D: 70000, High60D: 70000, Low60D: 70000},
			want: 0,
		},
		{
			// 최근 레인지가 더 넓으면 (확장) 0으로 클램프
			name: "expansion clamps to zero",
			bar:  contracts.DailyBar{Close: 70000, High10D: 80000, Low10D: 60000, High60D: 75000, Low60D: 65000},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := entryWith(0, 0, tt.bar)
			score := scoreOf(t, entry)
			assert.InDelta(t, tt.want, score.PatternScore, 0.001)
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	entry := entryWith(12_345_000_000, 6_789_000_000, contracts.DailyBar{
		Close:   70000,
		High10D: 71000, Low10D: 69000,
		High60D: 80000, Low60D: 60000,
	})

	first := scoreOf(t, entry)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, scoreOf(t, entry))
	}
}

func TestScoreAll_SkipsMissingEntries(t *testing.T) {
	snap := &contracts.Snapshot{
		Date: testDate,
		Entries: map[string]contracts.SnapshotEntry{
			"005930": entryWith(10_000_000_000, 5_000_000_000, contracts.DailyBar{Close: 70000}),
		},
	}
	candidates := []contracts.Candidate{
		{Code: "005930"},
		{Code: "999999"}, // 스냅샷에 없음
	}

	scores := newTestScorer().ScoreAll(context.Background(), candidates, snap)
	assert.Len(t, scores, 1)
	assert.Equal(t, "005930", scores[0].Code)
}
