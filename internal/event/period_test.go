package event

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodTruncate(t *testing.T) {
	// 2025-01-01 12:34:56.789 UTC
	ts := time.Date(2025, 1, 1, 12, 34, 56, 789_000_000, time.UTC)

	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodFifteenSeconds, time.Date(2025, 1, 1, 12, 34, 45, 0, time.UTC)},
		{PeriodOneMinute, time.Date(2025, 1, 1, 12, 34, 0, 0, time.UTC)},
		{PeriodFiveMinutes, time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)},
		{PeriodFifteenMinutes, time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)},
		{PeriodThirtyMinutes, time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)},
		{PeriodOneHour, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
		{PeriodFourHours, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
		{PeriodOneDay, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := tt.period.Truncate(ts)
		if !got.Equal(tt.want) {
			t.Errorf("%s.Truncate(%s) = %s, want %s", tt.period, ts, got, tt.want)
		}
	}
}

func TestPeriodTruncateIsFloorToMultiple(t *testing.T) {
	// The bucket start must be t floored to the nearest multiple of the
	// period, for any timestamp.
	timestamps := []time.Time{
		time.Unix(0, 0).UTC(),
		time.Unix(14, 999_999_000).UTC(),
		time.Unix(15, 0).UTC(),
		time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		time.Date(2030, 7, 4, 3, 2, 1, 0, time.UTC),
	}

	for _, p := range NormalCandlestickPeriods {
		d := p.Duration()
		for _, ts := range timestamps {
			got := p.Truncate(ts)
			if got.After(ts) {
				t.Errorf("%s.Truncate(%s) = %s is after input", p, ts, got)
			}
			if ts.Sub(got) >= d {
				t.Errorf("%s.Truncate(%s) = %s is more than one period before input", p, ts, got)
			}
			if got.UnixMicro()%d.Microseconds() != 0 {
				t.Errorf("%s.Truncate(%s) = %s is not aligned to the period", p, ts, got)
			}
		}
	}
}

func TestParsePeriodBothEncodings(t *testing.T) {
	tests := []struct {
		in   string
		want Period
	}{
		{"FifteenSeconds", PeriodFifteenSeconds},
		{"15000000", PeriodFifteenSeconds},
		{"OneMinute", PeriodOneMinute},
		{"60000000", PeriodOneMinute},
		{"OneDay", PeriodOneDay},
		{"86400000000", PeriodOneDay},
	}

	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if err != nil {
			t.Errorf("ParsePeriod(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParsePeriod("TwoWeeks"); err == nil {
		t.Error("ParsePeriod(TwoWeeks) error = nil, want error")
	}
}

func TestGroupBuilderInvariants(t *testing.T) {
	txn := TxnInfo{Version: 42}

	swap := &SwapEvent{MarketIDField: 7, MarketNonceF: 11, EventIndex: 0}
	state := &StateEvent{EventIndex: 1}
	state.MarketMetadata.MarketID = 7
	state.StateMetadata.MarketNonce = 11

	b, err := NewGroupBuilder(swap, txn)
	if err != nil {
		t.Fatalf("NewGroupBuilder() error = %v", err)
	}

	if _, err := b.Build(); !errors.Is(err, ErrIncompleteGroup) {
		t.Errorf("Build() without state error = %v, want ErrIncompleteGroup", err)
	}

	if err := b.Add(state); err != nil {
		t.Fatalf("Add(state) error = %v", err)
	}

	// A second bump with the same key is a protocol-assumption violation.
	chat := &ChatEvent{EmitMarketNonce: 11, EventIndex: 2}
	chat.MarketMetadata.MarketID = 7
	if err := b.Add(chat); !errors.Is(err, ErrDuplicateBump) {
		t.Errorf("Add(second bump) error = %v, want ErrDuplicateBump", err)
	}

	// So is a second state snapshot.
	state2 := &StateEvent{EventIndex: 3}
	state2.MarketMetadata.MarketID = 7
	state2.StateMetadata.MarketNonce = 11
	if err := b.Add(state2); !errors.Is(err, ErrDuplicateState) {
		t.Errorf("Add(second state) error = %v, want ErrDuplicateState", err)
	}

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.MarketID != 7 || g.MarketNonce != 11 {
		t.Errorf("group key = (%d, %d), want (7, 11)", g.MarketID, g.MarketNonce)
	}
	if g.Bump != MarketEvent(swap) {
		t.Error("group bump is not the swap event")
	}
	if g.Txn.Version != 42 {
		t.Errorf("group txn version = %d, want 42", g.Txn.Version)
	}
}

func TestGroupBuilderPeriodicStateCap(t *testing.T) {
	txn := TxnInfo{Version: 1}

	swap := &SwapEvent{MarketIDField: 1, MarketNonceF: 5}
	b, err := NewGroupBuilder(swap, txn)
	if err != nil {
		t.Fatalf("NewGroupBuilder() error = %v", err)
	}

	for i := 0; i < 7; i++ {
		ps := &PeriodicStateEvent{EventIndex: int64(i)}
		ps.MarketMetadata.MarketID = 1
		ps.PeriodicStateMetadata.EmitMarketNonce = 5
		ps.PeriodicStateMetadata.Period = NormalCandlestickPeriods[i]
		if err := b.Add(ps); err != nil {
			t.Fatalf("Add(periodic %d) error = %v", i, err)
		}
	}

	extra := &PeriodicStateEvent{EventIndex: 8}
	extra.MarketMetadata.MarketID = 1
	extra.PeriodicStateMetadata.EmitMarketNonce = 5
	if err := b.Add(extra); !errors.Is(err, ErrTooManyPeriodicStates) {
		t.Errorf("Add(8th periodic) error = %v, want ErrTooManyPeriodicStates", err)
	}
}

func TestRegistrationNonceIsInitial(t *testing.T) {
	reg := &MarketRegistrationEvent{}
	reg.MarketMetadata.MarketID = 9

	if reg.MarketNonce() != InitialMarketNonce {
		t.Errorf("MarketNonce() = %d, want %d", reg.MarketNonce(), InitialMarketNonce)
	}
}
