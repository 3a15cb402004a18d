package contracts

import "time"

// Instrument is immutable reference data for a listed stock
type Instrument struct {
	Code   string `json:"code"`   // 종목코드 (e.g. "005930")
	Name   string `json:"name"`   // 종목명
	Sector string `json:"sector"` // 업종
}

// DailyBar is one session's normalized OHLCV for a single instrument.
// Trailing figures are precomputed by the collector; the core never
// recomputes them.
type DailyBar struct {
	Code        string    `json:"code"`
	Date        time.Time `json:"date"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      int64     `json:"volume"`
	TradedValue int64     `json:"traded_value"` // 거래대금 (KRW)
	ChangePct   float64   `json:"change_pct"`   // 전일 대비 등락률 (%)

	// Trailing stats (collector-provided)
	AvgVolume20D int64   `json:"avg_volume_20d"`
	High10D      float64 `json:"high_10d"`
	Low10D       float64 `json:"low_10d"`
	High60D      float64 `json:"high_60d"`
	Low60D       float64 `json:"low_60d"`
}

// FlowRecord is one session's investor flow (수급) for a single instrument,
// paired 1:1 with DailyBar by (code, date)
type FlowRecord struct {
	Code string    `json:"code"`
	Date time.Time `json:"date"`

	ForeignNet int64 `json:"foreign_net"` // 외국인 순매수 (당일)
	InstNet    int64 `json:"inst_net"`    // 기관 순매수 (당일)

	// Trailing 60-session net sums (collector-provided)
	ForeignNet60D int64 `json:"foreign_net_60d"`
	InstNet60D    int64 `json:"inst_net_60d"`
}

// SnapshotEntry pairs the bar and flow for one instrument
type SnapshotEntry struct {
	Bar  DailyBar   `json:"bar"`
	Flow FlowRecord `json:"flow"`
}

// Snapshot is the validated daily market snapshot consumed read-only
// by the screener. Produced by the external collector.
// ⭐ SSOT: 수집기 → 파이프라인 데이터 전달
type Snapshot struct {
	Date        time.Time                `json:"date"`
	Entries     map[string]SnapshotEntry `json:"entries"` // key: stock code
	Instruments map[string]Instrument    `json:"instruments"`
}

// Get returns the entry for a stock code
func (s *Snapshot) Get(code string) (SnapshotEntry, bool) {
	entry, exists := s.Entries[code]
	return entry, exists
}

// Count returns the number of instruments in the snapshot
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// Name returns the display name for a code, falling back to the code itself
func (s *Snapshot) Name(code string) string {
	if inst, ok := s.Instruments[code]; ok && inst.Name != "" {
		return inst.Name
	}
	return code
}
