package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/symbol"
)

// CandlestickKey is the natural key of one candlestick row.
type CandlestickKey struct {
	MarketID  uint64
	Period    event.Period
	StartTime time.Time
}

// CandlestickDiff is the candlestick contribution of a single state event,
// one per configured period.
type CandlestickDiff struct {
	MarketID               uint64
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

	SymbolEmojis []string
}

// Key returns the diff's natural key.
func (c *CandlestickDiff) Key() CandlestickKey {
	return CandlestickKey{MarketID: c.MarketID, Period: c.Period, StartTime: c.StartTime}
}

// CandlestickDiffsFromState builds one diff per period from a state event.
// The stamp is the state event's (version, index) pair.
func CandlestickDiffsFromState(txn event.TxnInfo, state *event.StateEvent, stamp EventStamp) []*CandlestickDiff {
	price := state.CurvePrice()
	emojis := symbol.Emojis(state.MarketMetadata.EmojiBytes)

	diffs := make([]*CandlestickDiff, 0, len(event.NormalCandlestickPeriods))
	for _, period := range event.NormalCandlestickPeriods {
		diffs = append(diffs, &CandlestickDiff{
			MarketID:               state.MarketID(),
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
			SymbolEmojis:           emojis,
		})
	}
	return diffs
}

// MergeCandlesticks reduces diffs to one per natural key. The merge is
// commutative and associative: high/low are max/min, open/close follow the
// smallest/largest event stamp, volume sums, and the version watermark is
// the max.
func MergeCandlesticks(diffs []*CandlestickDiff) map[CandlestickKey]*CandlestickDiff {
	merged := make(map[CandlestickKey]*CandlestickDiff, len(diffs))
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

// Candlestick is the persisted candlestick row. Prices are rounded on
// conversion from the diff.
type Candlestick struct {
	MarketID               uint64 `json:"market_id"`
	LastTransactionVersion int64  `json:"last_transaction_version"`

	Period    event.Period `json:"period"`
	StartTime time.Time    `json:"start_time"`

	OpenPrice  decimal.Decimal `json:"open_price"`
	HighPrice  decimal.Decimal `json:"high_price"`
	LowPrice   decimal.Decimal `json:"low_price"`
	ClosePrice decimal.Decimal `json:"close_price"`

	Volume decimal.Decimal `json:"volume"`

	SymbolEmojis []string `json:"symbol_emojis"`
}

// Row converts the merged diff to its persisted form.
func (c *CandlestickDiff) Row() *Candlestick {
	return &Candlestick{
		MarketID:               c.MarketID,
		LastTransactionVersion: c.LastTransactionVersion,
		Period:                 c.Period,
		StartTime:              c.StartTime,
		OpenPrice:              RoundPrice(c.OpenPrice),
		HighPrice:              RoundPrice(c.HighPrice),
		LowPrice:               RoundPrice(c.LowPrice),
		ClosePrice:             RoundPrice(c.ClosePrice),
		Volume:                 c.Volume,
		SymbolEmojis:           c.SymbolEmojis,
	}
}
