package model

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emojicoin/indexer/internal/event"
)

func diffAt(marketID uint64, period event.Period, start time.Time, version int64, price, volume int64) *CandlestickDiff {
	p := decimal.NewFromInt(price)
	return &CandlestickDiff{
		MarketID:               marketID,
		LastTransactionVersion: version,
		Period:                 period,
		StartTime:              start,
		OpenPrice:              p,
		HighPrice:              p,
		LowPrice:               p,
		ClosePrice:             p,
		OpenStamp:              EventStamp{Version: version},
		CloseStamp:             EventStamp{Version: version},
		Volume:                 decimal.NewFromInt(volume),
		SymbolEmojis:           []string{"test"},
	}
}

func TestMergeCandlesticks(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c1 := diffAt(0, event.PeriodOneMinute, start, 12, 50, 100)
	c2 := diffAt(0, event.PeriodOneMinute, start, 15, 40, 80)
	// Different period, start time, and market id must all stay separate.
	c3 := diffAt(0, event.PeriodOneHour, start, 15, 40, 80)
	c4 := diffAt(0, event.PeriodOneMinute, start.Add(time.Minute), 15, 40, 80)
	c5 := diffAt(1, event.PeriodOneMinute, start, 15, 40, 80)

	merged := MergeCandlesticks([]*CandlestickDiff{c1, c2, c3, c4, c5})
	require.Len(t, merged, 4)

	m := merged[CandlestickKey{MarketID: 0, Period: event.PeriodOneMinute, StartTime: start}]
	require.NotNil(t, m)
	assert.Equal(t, int64(15), m.LastTransactionVersion)
	assert.True(t, m.OpenPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, m.HighPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, m.LowPrice.Equal(decimal.NewFromInt(40)))
	assert.True(t, m.ClosePrice.Equal(decimal.NewFromInt(40)))
	assert.True(t, m.Volume.Equal(decimal.NewFromInt(180)))

	for _, other := range []*CandlestickDiff{c3, c4, c5} {
		got := merged[other.Key()]
		require.NotNil(t, got)
		assert.True(t, got.Volume.Equal(other.Volume))
	}
}

func TestMergeCandlesticksOrderIndependent(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	diffs := []*CandlestickDiff{
		diffAt(7, event.PeriodOneMinute, start, 10, 55, 5),
		diffAt(7, event.PeriodOneMinute, start, 11, 30, 10),
		diffAt(7, event.PeriodOneMinute, start, 13, 90, 15),
		diffAt(7, event.PeriodOneMinute, start, 12, 60, 20),
	}

	want := MergeCandlesticks(diffs)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]*CandlestickDiff, len(diffs))
		copy(shuffled, diffs)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := MergeCandlesticks(shuffled)
		require.Len(t, got, len(want))
		for key, w := range want {
			g := got[key]
			require.NotNil(t, g)
			assert.Equal(t, w.LastTransactionVersion, g.LastTransactionVersion)
			assert.True(t, w.OpenPrice.Equal(g.OpenPrice), "open")
			assert.True(t, w.HighPrice.Equal(g.HighPrice), "high")
			assert.True(t, w.LowPrice.Equal(g.LowPrice), "low")
			assert.True(t, w.ClosePrice.Equal(g.ClosePrice), "close")
			assert.True(t, w.Volume.Equal(g.Volume), "volume")
		}
	}
}

func TestCandlestickOpenCloseTieBreakByEventIndex(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first := diffAt(3, event.PeriodFifteenSeconds, start, 20, 10, 1)
	first.OpenStamp = EventStamp{Version: 20, Index: 2}
	first.CloseStamp = first.OpenStamp
	second := diffAt(3, event.PeriodFifteenSeconds, start, 20, 99, 1)
	second.OpenStamp = EventStamp{Version: 20, Index: 5}
	second.CloseStamp = second.OpenStamp

	merged := MergeCandlesticks([]*CandlestickDiff{second, first})
	m := merged[first.Key()]
	require.NotNil(t, m)
	assert.True(t, m.OpenPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, m.ClosePrice.Equal(decimal.NewFromInt(99)))
}

func TestCandlestickRowRoundsPrices(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d := diffAt(1, event.PeriodOneMinute, start, 3, 1, 1)
	price := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	d.OpenPrice, d.HighPrice, d.LowPrice, d.ClosePrice = price, price, price, price

	row := d.Row()
	assert.Equal(t, "0.3333333333333333", row.OpenPrice.String())
	assert.True(t, row.Volume.Equal(d.Volume))
}

func TestMergeArenaCandlesticksSumsSwaps(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(version int64, price, volume int64) *ArenaCandlestickDiff {
		p := decimal.NewFromInt(price)
		return &ArenaCandlestickDiff{
			MeleeID:                4,
			LastTransactionVersion: version,
			Period:                 event.PeriodFifteenSeconds,
			StartTime:              start,
			OpenPrice:              p,
			HighPrice:              p,
			LowPrice:               p,
			ClosePrice:             p,
			OpenStamp:              EventStamp{Version: version},
			CloseStamp:             EventStamp{Version: version},
			Volume:                 decimal.NewFromInt(volume),
			NSwaps:                 decimal.NewFromInt(1),
		}
	}

	merged := MergeArenaCandlesticks([]*ArenaCandlestickDiff{mk(5, 2, 10), mk(8, 6, 20), mk(6, 1, 30)})
	require.Len(t, merged, 1)
	m := merged[ArenaCandlestickKey{MeleeID: 4, Period: event.PeriodFifteenSeconds, StartTime: start}]
	require.NotNil(t, m)
	assert.Equal(t, int64(8), m.LastTransactionVersion)
	assert.True(t, m.NSwaps.Equal(decimal.NewFromInt(3)))
	assert.True(t, m.Volume.Equal(decimal.NewFromInt(60)))
	assert.True(t, m.OpenPrice.Equal(decimal.NewFromInt(2)))
	assert.True(t, m.ClosePrice.Equal(decimal.NewFromInt(6)))
	assert.True(t, m.HighPrice.Equal(decimal.NewFromInt(6)))
	assert.True(t, m.LowPrice.Equal(decimal.NewFromInt(1)))
}
