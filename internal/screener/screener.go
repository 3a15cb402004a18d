package screener

import (
	"context"
	"sort"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

// Screener implements the hard-cut candidate filter
// ⭐ SSOT: 스크리닝 로직은 여기서만
type Screener struct {
	config strategy.Screening
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(config strategy.Screening, log *logger.Logger) *Screener {
	return &Screener{
		config: config,
		logger: log,
	}
}

// Screen applies all filters conjunctively over the snapshot.
// Ordered by traded value descending, ties broken by code ascending.
// 빈 스냅샷 / 전량 탈락은 빈 슬라이스 (에러 아님)
func (s *Screener) Screen(ctx context.Context, snapshot *contracts.Snapshot) ([]contracts.Candidate, error) {
	passed := make([]contracts.Candidate, 0)
	filtered := make(map[string]int) // filter name -> count

	for code, entry := range snapshot.Entries {
		results, reason := s.checkConditions(entry)
		if reason == "" {
			passed = append(passed, contracts.Candidate{
				Code:        code,
				TradedValue: entry.Bar.TradedValue,
				Filters:     results,
			})
		} else {
			filtered[reason]++
		}
	}

	// Deterministic ordering regardless of map iteration order
	sort.Slice(passed, func(i, j int) bool {
		if passed[i].TradedValue != passed[j].TradedValue {
			return passed[i].TradedValue > passed[j].TradedValue
		}
		return passed[i].Code < passed[j].Code
	})

	s.logger.WithFields(map[string]interface{}{
		"total_input":  snapshot.Count(),
		"passed":       len(passed),
		"filtered_out": snapshot.Count() - len(passed),
		"filters":      filtered,
	}).Info("Screening completed")

	return passed, nil
}

// checkConditions checks the entry against every filter.
// Returns the per-filter results and the name of the first failed filter
// (empty string when all passed).
func (s *Screener) checkConditions(entry contracts.SnapshotEntry) (map[string]bool, string) {
	bar := entry.Bar
	results := make(map[string]bool, 3)
	failed := ""

	// 거래대금 필터
	results["traded_value"] = bar.TradedValue >= s.config.MinTradedValueKRW
	if !results["traded_value"] && failed == "" {
		failed = "traded_value"
	}

	// 등락률 밴드 (inclusive)
	results["change_band"] = bar.ChangePct >= s.config.ChangePctMin &&
		bar.ChangePct <= s.config.ChangePctMax
	if !results["change_band"] && failed == "" {
		failed = "change_band"
	}

	// 거래량 비율 (20일 평균 대비)
	if bar.AvgVolume20D <= 0 {
		results["volume_ratio"] = false
	} else {
		ratio := float64(bar.Volume) / float64(bar.AvgVolume20D)
		results["volume_ratio"] = ratio >= s.config.MinVolumeRatio
	}
	if !results["volume_ratio"] && failed == "" {
		failed = "volume_ratio"
	}

	return results, failed
}
