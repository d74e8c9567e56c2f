package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Period is one of the fixed candlestick bucket durations. The chain encodes
// periods as microsecond counts in decimal strings, the database uses short
// names (period_15s), and the subscription protocol uses spelled-out names
// (FifteenSeconds). UnmarshalJSON accepts either string encoding since the
// two sets are disjoint.
type Period uint8

const (
	PeriodFifteenSeconds Period = iota
	PeriodOneMinute
	PeriodFiveMinutes
	PeriodFifteenMinutes
	PeriodThirtyMinutes
	PeriodOneHour
	PeriodFourHours
	PeriodOneDay
)

// NormalCandlestickPeriods are the periods tracked for regular market candlesticks.
var NormalCandlestickPeriods = [8]Period{
	PeriodFifteenSeconds,
	PeriodOneMinute,
	PeriodFiveMinutes,
	PeriodFifteenMinutes,
	PeriodThirtyMinutes,
	PeriodOneHour,
	PeriodFourHours,
	PeriodOneDay,
}

// ArenaCandlestickPeriods are the periods tracked for arena candlesticks.
var ArenaCandlestickPeriods = [6]Period{
	PeriodFifteenSeconds,
	PeriodOneMinute,
	PeriodFiveMinutes,
	PeriodFifteenMinutes,
	PeriodThirtyMinutes,
	PeriodOneHour,
}

// Duration returns the bucket length.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodFifteenSeconds:
		return 15 * time.Second
	case PeriodOneMinute:
		return time.Minute
	case PeriodFiveMinutes:
		return 5 * time.Minute
	case PeriodFifteenMinutes:
		return 15 * time.Minute
	case PeriodThirtyMinutes:
		return 30 * time.Minute
	case PeriodOneHour:
		return time.Hour
	case PeriodFourHours:
		return 4 * time.Hour
	case PeriodOneDay:
		return 24 * time.Hour
	}
	return 0
}

// Truncate floors t to the start of the bucket containing it.
func (p Period) Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(p.Duration())
}

// DBName returns the database enum value.
func (p Period) DBName() string {
	switch p {
	case PeriodFifteenSeconds:
		return "period_15s"
	case PeriodOneMinute:
		return "period_1m"
	case PeriodFiveMinutes:
		return "period_5m"
	case PeriodFifteenMinutes:
		return "period_15m"
	case PeriodThirtyMinutes:
		return "period_30m"
	case PeriodOneHour:
		return "period_1h"
	case PeriodFourHours:
		return "period_4h"
	case PeriodOneDay:
		return "period_1d"
	}
	return ""
}

// String returns the wire name used by the subscription protocol and the
// derived-event stream.
func (p Period) String() string {
	switch p {
	case PeriodFifteenSeconds:
		return "FifteenSeconds"
	case PeriodOneMinute:
		return "OneMinute"
	case PeriodFiveMinutes:
		return "FiveMinutes"
	case PeriodFifteenMinutes:
		return "FifteenMinutes"
	case PeriodThirtyMinutes:
		return "ThirtyMinutes"
	case PeriodOneHour:
		return "OneHour"
	case PeriodFourHours:
		return "FourHours"
	case PeriodOneDay:
		return "OneDay"
	}
	return ""
}

// chainMicros returns the on-chain microsecond-string encoding.
func (p Period) chainMicros() string {
	switch p {
	case PeriodFifteenSeconds:
		return "15000000"
	case PeriodOneMinute:
		return "60000000"
	case PeriodFiveMinutes:
		return "300000000"
	case PeriodFifteenMinutes:
		return "900000000"
	case PeriodThirtyMinutes:
		return "1800000000"
	case PeriodOneHour:
		return "3600000000"
	case PeriodFourHours:
		return "14400000000"
	case PeriodOneDay:
		return "86400000000"
	}
	return ""
}

// ParsePeriod maps any string encoding of a period, including the database
// enum value, to the Period value.
func ParsePeriod(s string) (Period, error) {
	for _, p := range NormalCandlestickPeriods {
		if s == p.String() || s == p.chainMicros() || s == p.DBName() {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
