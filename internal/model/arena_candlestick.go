package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
)

// ArenaCandlestickKey is the natural key of one arena candlestick row.
type ArenaCandlestickKey struct {
	MeleeID   uint64
	Period    event.Period
	StartTime time.Time
}

// ArenaCandlestickDiff is the arena candlestick contribution of one arena
// swap. The price is the ratio of the melee's two market prices, and a swap
// counter is tracked alongside the volume.
type ArenaCandlestickDiff struct {
	MeleeID                uint64
	LastTransactionVersion int64

	Period    event.Period
	StartTime time.Time

	OpenPrice  decimal.Decimal
	HighPrice  decimal.Decimal
	LowPrice   decimal.Decimal
	ClosePrice decimal.Decimal

	OpenStamp  EventStamp
	CloseStamp EventStamp

	Volume decimal.Decimal
	NSwaps decimal.Decimal
}

// Key returns the diff's natural key.
func (c *ArenaCandlestickDiff) Key() ArenaCandlestickKey {
	return ArenaCandlestickKey{MeleeID: c.MeleeID, Period: c.Period, StartTime: c.StartTime}
}

// ArenaCandlestickDiffsFromState builds one diff per arena period from the
// state event of one side of an arena swap.
func ArenaCandlestickDiffsFromState(
	txn event.TxnInfo,
	meleeID uint64,
	state *event.StateEvent,
	stamp EventStamp,
	price0, price1 decimal.Decimal,
) []*ArenaCandlestickDiff {
	price := price0.Div(price1)

	diffs := make([]*ArenaCandlestickDiff, 0, len(event.ArenaCandlestickPeriods))
	for _, period := range event.ArenaCandlestickPeriods {
		diffs = append(diffs, &ArenaCandlestickDiff{
			MeleeID:                meleeID,
			LastTransactionVersion: txn.Version,
			Period:                 period,
			StartTime:              period.Truncate(txn.Timestamp),
			OpenPrice:              price,
			HighPrice:              price,
			LowPrice:               price,
			ClosePrice:             price,
			OpenStamp:              stamp,
			CloseStamp:             stamp,
			Volume:                 state.LastSwap.QuoteVolume,
			NSwaps:                 decimal.NewFromInt(1),
		})
	}
	return diffs
}

// MergeArenaCandlesticks reduces diffs to one per natural key using the same
// order-independent rules as MergeCandlesticks, plus summing the swap count.
func MergeArenaCandlesticks(diffs []*ArenaCandlestickDiff) map[ArenaCandlestickKey]*ArenaCandlestickDiff {
	merged := make(map[ArenaCandlestickKey]*ArenaCandlestickDiff, len(diffs))
	for _, d := range diffs {
		key := d.Key()
		m, ok := merged[key]
		if !ok {
			clone := *d
			merged[key] = &clone
			continue
		}
		m.LastTransactionVersion = maxVersion(m.LastTransactionVersion, d.LastTransactionVersion)
		m.Volume = m.Volume.Add(d.Volume)
		m.NSwaps = m.NSwaps.Add(d.NSwaps)
		m.HighPrice = decimal.Max(m.HighPrice, d.HighPrice)
		m.LowPrice = decimal.Min(m.LowPrice, d.LowPrice)
		if d.OpenStamp.Before(m.OpenStamp) {
			m.OpenPrice = d.OpenPrice
			m.OpenStamp = d.OpenStamp
		}
		if m.CloseStamp.Before(d.CloseStamp) {
			m.ClosePrice = d.ClosePrice
			m.CloseStamp = d.CloseStamp
		}
	}
	return merged
}

// ArenaCandlestick is the persisted arena candlestick row.
type ArenaCandlestick struct {
	MeleeID                uint64 `json:"melee_id"`
	LastTransactionVersion int64  `json:"last_transaction_version"`

	Period    event.Period `json:"period"`
	StartTime time.Time    `json:"start_time"`

	OpenPrice  decimal.Decimal `json:"open_price"`
	HighPrice  decimal.Decimal `json:"high_price"`
	LowPrice   decimal.Decimal `json:"low_price"`
	ClosePrice decimal.Decimal `json:"close_price"`

	Volume decimal.Decimal `json:"volume"`
	NSwaps decimal.Decimal `json:"n_swaps"`
}

// Row converts the merged diff to its persisted form.
func (c *ArenaCandlestickDiff) Row() *ArenaCandlestick {
	return &ArenaCandlestick{
		MeleeID:                c.MeleeID,
		LastTransactionVersion: c.LastTransactionVersion,
		Period:                 c.Period,
		StartTime:              c.StartTime,
		OpenPrice:              RoundPrice(c.OpenPrice),
		HighPrice:              RoundPrice(c.HighPrice),
		LowPrice:               RoundPrice(c.LowPrice),
		ClosePrice:             RoundPrice(c.ClosePrice),
		Volume:                 c.Volume,
		NSwaps:                 c.NSwaps,
	}
}
