package screener

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

var testDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

func testEntry(code string, tradedValue int64, changePct float64, volume, avgVolume20 int64) contracts.SnapshotEntry {
	return contracts.SnapshotEntry{
		Bar: contracts.DailyBar{
			Code:         code,
			Date:         testDate,
			Open:         10000,
			High:         10500,
			Low:          9800,
			Close:        10200,
			Volume:       volume,
			TradedValue:  tradedValue,
			ChangePct:    changePct,
			AvgVolume20D: avgVolume20,
		},
		Flow: contracts.FlowRecord{Code: code, Date: testDate},
	}
}

func testSnapshot(entries map[string]contracts.SnapshotEntry) *contracts.Snapshot {
	return &contracts.Snapshot{
		Date:        testDate,
		Entries:     entries,
		Instruments: map[string]contracts.Instrument{},
	}
}

func newTestScreener() *Screener {
	return NewScreener(strategy.Default().Screening, logger.NewNop())
}

func TestScreen_AllFiltersConjunctive(t *testing.T) {
	snap := testSnapshot(map[string]contracts.SnapshotEntry{
		// 전체 통과: 거래대금 150억, +5%, 거래량 2배
		"005930": testEntry("005930", 15_000_000_000, 5.0, 2_000_000, 1_000_000),
		// 거래대금 미달 (50억)
		"000660": testEntry("000660", 5_000_000_000, 5.0, 2_000_000, 1_000_000),
		// 급등 과열 (+20%)
		"035420": testEntry("035420", 15_000_000_000, 20.0, 2_000_000, 1_000_000),
		// 거래량 비율 미달 (1.2배 < 1.5배)
		"035720": testEntry("035720", 15_000_000_000, 5.0, 1_200_000, 1_000_000),
	})

	candidates, err := newTestScreener().Screen(context.Background(), snap)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "005930", candidates[0].Code)
	assert.True(t, candidates[0].Filters["traded_value"])
	assert.True(t, candidates[0].Filters["change_band"])
	assert.True(t, candidates[0].Filters["volume_ratio"])
}

func TestScreen_ChangeBandInclusive(t *testing.T) {
	// 경계값 -2.0%와 +15.0%는 통과 (inclusive)
	snap := testSnapshot(map[string]contracts.SnapshotEntry{
		"A": testEntry("A", 15_000_000_000, -2.0, 2_000_000, 1_000_000),
		"B": testEntry("B", 15_000_000_000, 15.0, 2_000_000, 1_000_000),
		"C": testEntry("C", 15_000_000_000, -2.01, 2_000_000, 1_000_000),
	})

	candidates, err := newTestScreener().Screen(context.Background(), snap)
	require.NoError(t, err)

	codes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		codes = append(codes, c.Code)
	}
	assert.ElementsMatch(t, []string{"A", "B"}, codes)
}

func TestScreen_MissingTrailingVolumeFails(t *testing.T) {
	// 20일 평균 거래량이 없으면 (신규상장 등) 비율 판정 불가 → 탈락
	snap := testSnapshot(map[string]contracts.SnapshotEntry{
		"X": testEntry("X", 15_000_000_000, 5.0, 2_000_000, 0),
	})

	candidates, err := newTestScreener().Screen(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScreen_DeterministicOrdering(t *testing.T) {
	snap := testSnapshot(map[string]contracts.SnapshotEntry{
		"B": testEntry("B", 20_000_000_000, 5.0, 2_000_000, 1_000_000),
		"C": testEntry("C", 30_000_000_000, 5.0, 2_000_000, 1_000_000),
		"A": testEntry("A", 20_000_000_000, 5.0, 2_000_000, 1_000_000),
	})

	scr := newTestScreener()

	// 거래대금 내림차순, 동률은 코드 오름차순. 맵 순회 순서와 무관해야 함.
	for i := 0; i < 10; i++ {
		candidates, err := scr.Screen(context.Background(), snap)
		require.NoError(t, err)
		require.Len(t, candidates, 3)
		assert.Equal(t, "C", candidates[0].Code)
		assert.Equal(t, "A", candidates[1].Code)
		assert.Equal(t, "B", candidates[2].Code)
	}
}

func TestScreen_EmptySnapshot(t *testing.T) {
	candidates, err := newTestScreener().Screen(context.Background(), testSnapshot(map[string]contracts.SnapshotEntry{}))
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}
