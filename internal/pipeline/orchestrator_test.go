package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/internal/consensus"
	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/marketgate"
	"github.com/wonny/argos/internal/providers"
	"github.com/wonny/argos/internal/scorer"
	"github.com/wonny/argos/internal/screener"
	"github.com/wonny/argos/internal/signals"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

var testDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

// fakeProvider always answers the scripted verdict
type fakeProvider struct {
	id         string
	verdict    contracts.Verdict
	confidence float64
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Submit(ctx context.Context, req providers.Request) (*providers.Analysis, error) {
	return &providers.Analysis{
		Verdict:    f.verdict,
		Confidence: f.confidence,
		Rationale:  "scripted",
	}, nil
}

func strongEntry(code string, tradedValue int64) contracts.SnapshotEntry {
	return contracts.SnapshotEntry{
		Bar: contracts.DailyBar{
			Code:         code,
			Date:         testDate,
			Open:         68000,
			High:         71000,
			Low:          67500,
			Close:        70000,
			Volume:       3_000_000,
			TradedValue:  tradedValue,
			ChangePct:    4.0,
			AvgVolume20D: 1_000_000,
			High10D:      71000,
			Low10D:       69000,
			High60D:      80000,
			Low60D:       60000,
		},
		Flow: contracts.FlowRecord{
			Code:          code,
			Date:          testDate,
			ForeignNet60D: 50_000_000_000,
			InstNet60D:    30_000_000_000,
		},
	}
}

func testSnapshot() *contracts.Snapshot {
	return &contracts.Snapshot{
		Date: testDate,
		Entries: map[string]contracts.SnapshotEntry{
			"005930": strongEntry("005930", 50_000_000_000),
			"000660": strongEntry("000660", 30_000_000_000),
		},
		Instruments: map[string]contracts.Instrument{
			"005930": {Code: "005930", Name: "삼성전자"},
			"000660": {Code: "000660", Name: "SK하이닉스"},
		},
	}
}

func bullishIndicators() contracts.MarketIndicators {
	return contracts.MarketIndicators{
		Date:              testDate,
		IndexClose:        2700,
		IndexMA20:         2650,
		IndexMA60:         2600,
		RSI14:             58,
		MACDHistogram:     4.2,
		USDKRW:            1320,
		ForeignFuturesNet: 1500,
	}
}

func newTestPipeline(t *testing.T, provs []providers.Client) *Pipeline {
	t.Helper()

	cfg := strategy.Default()
	cfg.AI.BackoffInitial = strategy.Duration(time.Millisecond)
	cfg.AI.BackoffMax = strategy.Duration(2 * time.Millisecond)
	cfg.AI.RatePerMinute = 60_000
	log := logger.NewNop()

	engine, err := consensus.NewEngine(provs, cfg.AI, "", nil, log)
	require.NoError(t, err)

	return New(
		screener.NewScreener(cfg.Screening, log),
		scorer.NewScorer(cfg.Scoring, log),
		marketgate.NewGate(cfg.Gate, log),
		engine,
		signals.NewGenerator(cfg.Signals, log),
		nil, // no store
		cfg,
		log,
	)
}

func agreeingProviders() []providers.Client {
	return []providers.Client{
		&fakeProvider{id: "claude", verdict: contracts.VerdictBuy, confidence: 0.85},
		&fakeProvider{id: "gemini", verdict: contracts.VerdictBuy, confidence: 0.75},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	p := newTestPipeline(t, agreeingProviders())

	guard := NewRunGuard()
	token, err := guard.TryAcquire()
	require.NoError(t, err)
	defer token.Release()

	result, err := p.Run(context.Background(), token, RunConfig{
		RunID:      "run_test",
		Snapshot:   testSnapshot(),
		Indicators: bullishIndicators(),
		ConfigHash: "deadbeef",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"screen", "score", "gate", "consensus", "signals"}, result.CompletedStages)
	assert.Equal(t, contracts.GateGreen, result.GateState.Level)
	require.Len(t, result.Signals, 2)

	// 거래대금 상위가 먼저 (동일 점수 프로파일이므로 composite 동률, 코드 오름차순)
	first := result.Signals[0]
	assert.Equal(t, "000660", first.Code)
	assert.True(t, first.Consensus.Agreement)
	assert.InDelta(t, 0.8, first.Consensus.Confidence, 0.0001)
	assert.InDelta(t, first.Close*1.10, first.TargetPrice, 0.001)
	assert.InDelta(t, first.Close*0.95, first.StopPrice, 0.001)
	assert.NotEqual(t, contracts.GradeD, first.Grade)
}

func TestRun_RedGateSkipsProvidersAndSignals(t *testing.T) {
	called := false
	tracking := &fakeProviderFunc{
		id: "claude",
		fn: func() { called = true },
	}
	p := newTestPipeline(t, []providers.Client{tracking})

	token, err := NewRunGuard().TryAcquire()
	require.NoError(t, err)
	defer token.Release()

	bearish := contracts.MarketIndicators{
		Date:       testDate,
		IndexClose: 2500, IndexMA20: 2550, IndexMA60: 2600,
		RSI14: 30, MACDHistogram: -3,
		USDKRW: 1450, ForeignFuturesNet: -500,
	}

	result, err := p.Run(context.Background(), token, RunConfig{
		RunID:      "run_red",
		Snapshot:   testSnapshot(),
		Indicators: bearish,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, contracts.GateRed, result.GateState.Level)
	assert.Empty(t, result.Signals, "RED 게이트는 빈 시그널 시퀀스")
	assert.NotEmpty(t, result.Scores, "점수 산출 자체는 수행됨")
	assert.False(t, called, "RED면 프로바이더 호출 생략")
}

// fakeProviderFunc records whether Submit was ever reached
type fakeProviderFunc struct {
	id string
	fn func()
}

func (f *fakeProviderFunc) ID() string { return f.id }

func (f *fakeProviderFunc) Submit(ctx context.Context, req providers.Request) (*providers.Analysis, error) {
	f.fn()
	return &providers.Analysis{Verdict: contracts.VerdictBuy, Confidence: 0.5}, nil
}

func TestRun_RequiresToken(t *testing.T) {
	p := newTestPipeline(t, agreeingProviders())

	_, err := p.Run(context.Background(), nil, RunConfig{Snapshot: testSnapshot()})
	assert.Error(t, err)
}

func TestRun_RequiresSnapshot(t *testing.T) {
	p := newTestPipeline(t, agreeingProviders())

	token, err := NewRunGuard().TryAcquire()
	require.NoError(t, err)
	defer token.Release()

	_, err = p.Run(context.Background(), token, RunConfig{})
	assert.Error(t, err)
}

func TestGenerateRunID_Unique(t *testing.T) {
	a := GenerateRunID()
	b := GenerateRunID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "run_")
}
