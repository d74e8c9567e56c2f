package event

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TxnInfo is the immutable transaction context attached to every event and
// row derived from that transaction.
type TxnInfo struct {
	Version       int64
	BlockNumber   int64
	Sender        string
	EntryFunction *string
	Timestamp     time.Time
}

// RawEvent is one untyped event from the feed.
type RawEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RawWriteSetChange is one untyped resource write from the feed. Only the
// protocol's Market resource is ever parsed out of it, and only lazily.
type RawWriteSetChange struct {
	Type    string          `json:"type"`
	Address string          `json:"address"`
	Data    json.RawMessage `json:"data"`
}

// RawTransaction is one transaction as delivered by the upstream feed.
type RawTransaction struct {
	Version       int64               `json:"version"`
	BlockNumber   int64               `json:"block_height"`
	Sender        string              `json:"sender"`
	EntryFunction *string             `json:"entry_function"`
	Timestamp     Micros              `json:"timestamp"`
	Events        []RawEvent          `json:"events"`
	Changes       []RawWriteSetChange `json:"changes"`
}

// Info extracts the transaction context.
func (t *RawTransaction) Info() TxnInfo {
	return TxnInfo{
		Version:       t.Version,
		BlockNumber:   t.BlockNumber,
		Sender:        StandardizeAddress(t.Sender),
		EntryFunction: t.EntryFunction,
		Timestamp:     t.Timestamp.Time(),
	}
}

// Batch is a non-empty ordered run of transactions with contiguous versions.
type Batch struct {
	Transactions []RawTransaction `json:"transactions"`
}

// FirstVersion returns the version of the first transaction.
func (b *Batch) FirstVersion() int64 { return b.Transactions[0].Version }

// LastVersion returns the version of the last transaction.
func (b *Batch) LastVersion() int64 { return b.Transactions[len(b.Transactions)-1].Version }

// LastTimestamp returns the timestamp of the last transaction.
func (b *Batch) LastTimestamp() time.Time {
	return b.Transactions[len(b.Transactions)-1].Timestamp.Time()
}

// ---------- Market resource (writeset) ----------

// SequenceInfo is the nonce tracker inside the Market resource.
type SequenceInfo struct {
	Nonce        U64    `json:"nonce"`
	LastBumpTime Micros `json:"last_bump_time"`
}

// TVLToLPCoinRatio is one endpoint of a periodic tracker's TVL ratio.
type TVLToLPCoinRatio struct {
	TVL     decimal.Decimal `json:"tvl"`
	LPCoins decimal.Decimal `json:"lp_coins"`
}

// PeriodicStateTracker is the in-progress period aggregate stored on the
// Market resource, one per configured period.
type PeriodicStateTracker struct {
	StartTime Micros `json:"start_time"`
	Period    Period `json:"period"`

	OpenPriceQ64  decimal.Decimal `json:"open_price_q64"`
	HighPriceQ64  decimal.Decimal `json:"high_price_q64"`
	LowPriceQ64   decimal.Decimal `json:"low_price_q64"`
	ClosePriceQ64 decimal.Decimal `json:"close_price_q64"`

	VolumeBase     decimal.Decimal `json:"volume_base"`
	VolumeQuote    decimal.Decimal `json:"volume_quote"`
	IntegratorFees decimal.Decimal `json:"integrator_fees"`
	PoolFeesBase   decimal.Decimal `json:"pool_fees_base"`
	PoolFeesQuote  decimal.Decimal `json:"pool_fees_quote"`
	NSwaps         decimal.Decimal `json:"n_swaps"`
	NChatMessages  decimal.Decimal `json:"n_chat_messages"`

	StartsInBondingCurve bool `json:"starts_in_bonding_curve"`
	EndsInBondingCurve   bool `json:"ends_in_bonding_curve"`

	TVLToLPCoinRatioStart TVLToLPCoinRatio `json:"tvl_to_lp_coin_ratio_start"`
	TVLToLPCoinRatioEnd   TVLToLPCoinRatio `json:"tvl_to_lp_coin_ratio_end"`
}

// MarketResource is the on-chain Market resource, parsed from a writeset
// change when a market's latest state snapshot needs refreshing.
type MarketResource struct {
	Metadata              MarketMetadata         `json:"metadata"`
	SequenceInfo          SequenceInfo           `json:"sequence_info"`
	ClammVirtualReserves  Reserves               `json:"clamm_virtual_reserves"`
	CpammRealReserves     Reserves               `json:"cpamm_real_reserves"`
	LPCoinSupply          decimal.Decimal        `json:"lp_coin_supply"`
	CumulativeStats       CumulativeStats        `json:"cumulative_stats"`
	LastSwap              LastSwap               `json:"last_swap"`
	PeriodicStateTrackers []PeriodicStateTracker `json:"periodic_state_trackers"`
}
