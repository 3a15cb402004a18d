package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/pkg/logger"
)

// Loader reads and validates collector snapshot artifacts.
// 검증 경계: 핵심 파이프라인은 검증된 스냅샷만 받는다.
// 이상 엔트리는 여기서 사유와 함께 걸러진다.
type Loader struct {
	logger *logger.Logger
}

// Report summarizes one ingestion pass
type Report struct {
	Total    int               `json:"total"`
	Accepted int               `json:"accepted"`
	Rejected map[string]string `json:"rejected"` // code -> reason
}

// NewLoader creates a snapshot loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{logger: log}
}

// LoadFile reads a snapshot JSON artifact from disk
func (l *Loader) LoadFile(path string) (*contracts.Snapshot, *Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return l.Load(data)
}

// Load decodes and validates a snapshot artifact
func (l *Loader) Load(data []byte) (*contracts.Snapshot, *Report, error) {
	var raw contracts.Snapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if raw.Date.IsZero() {
		return nil, nil, fmt.Errorf("snapshot date is required")
	}

	report := &Report{
		Total:    len(raw.Entries),
		Rejected: make(map[string]string),
	}

	validated := &contracts.Snapshot{
		Date:        raw.Date,
		Entries:     make(map[string]contracts.SnapshotEntry, len(raw.Entries)),
		Instruments: raw.Instruments,
	}
	if validated.Instruments == nil {
		validated.Instruments = make(map[string]contracts.Instrument)
	}

	for code, entry := range raw.Entries {
		if reason := validateEntry(code, raw, entry); reason != "" {
			report.Rejected[code] = reason
			continue
		}
		validated.Entries[code] = entry
	}
	report.Accepted = len(validated.Entries)

	l.logger.WithFields(map[string]interface{}{
		"date":     raw.Date.Format("2006-01-02"),
		"total":    report.Total,
		"accepted": report.Accepted,
		"rejected": len(report.Rejected),
	}).Info("Snapshot loaded")

	return validated, report, nil
}

// LoadIndicatorsFile reads the collector's market indicators artifact
func (l *Loader) LoadIndicatorsFile(path string) (contracts.MarketIndicators, error) {
	var indicators contracts.MarketIndicators

	data, err := os.ReadFile(path)
	if err != nil {
		return indicators, fmt.Errorf("read indicators file: %w", err)
	}

	if err := json.Unmarshal(data, &indicators); err != nil {
		return indicators, fmt.Errorf("decode indicators: %w", err)
	}

	if indicators.Date.IsZero() {
		return indicators, fmt.Errorf("indicators date is required")
	}
	if indicators.IndexClose <= 0 || indicators.USDKRW <= 0 {
		return indicators, fmt.Errorf("indicators must carry positive index close and FX rate")
	}

	return indicators, nil
}

// validateEntry returns the rejection reason, or "" when valid
func validateEntry(code string, snap contracts.Snapshot, entry contracts.SnapshotEntry) string {
	bar := entry.Bar
	flow := entry.Flow

	if bar.Code != code {
		return "bar_code_mismatch"
	}
	if flow.Code != code {
		return "flow_code_mismatch"
	}
	if !bar.Date.Equal(snap.Date) || !flow.Date.Equal(snap.Date) {
		return "date_mismatch"
	}
	if bar.Close <= 0 || bar.Open <= 0 {
		return "nonpositive_price"
	}
	if bar.High < bar.Low {
		return "inverted_range"
	}
	if bar.Close > bar.High || bar.Close < bar.Low {
		return "close_outside_range"
	}
	if bar.Volume < 0 || bar.TradedValue < 0 {
		return "negative_volume"
	}
	if bar.AvgVolume20D < 0 {
		return "negative_trailing_volume"
	}
	if bar.High60D < bar.Low60D || bar.High10D < bar.Low10D {
		return "inverted_trailing_range"
	}

	return ""
}
