package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/symbol"
)

// MarketLatestState is the per-market snapshot row, upserted with the
// monotonic nonce guard. It is built from the Market resource in the
// transaction writeset rather than from the state event, because the
// writeset reflects the market's final state for the whole transaction.
type MarketLatestState struct {
	TransactionMetadata
	MarketAndStateMetadata
	StateSnapshot
	LastSwapSnapshot

	DailyTVLPerLPCoinGrowth    decimal.Decimal `json:"daily_tvl_per_lp_coin_growth"`
	InBondingCurve             bool            `json:"in_bonding_curve"`
	VolumeIn1MStateTracker     decimal.Decimal `json:"volume_in_1m_state_tracker"`
	BaseVolumeIn1MStateTracker decimal.Decimal `json:"base_volume_in_1m_state_tracker"`
}

// NewMarketLatestState builds the snapshot row from the latest market
// resource seen for a market in a batch. The trigger and instantaneous stats
// come from the state event with the highest nonce, since the resource does
// not carry them.
func NewMarketLatestState(
	txn event.TxnInfo,
	market *event.MarketResource,
	trigger event.Trigger,
	instant event.InstantaneousStats,
) (*MarketLatestState, error) {
	var tracker1M, tracker1D *event.PeriodicStateTracker
	for i := range market.PeriodicStateTrackers {
		t := &market.PeriodicStateTrackers[i]
		switch t.Period {
		case event.PeriodOneMinute:
			tracker1M = t
		case event.PeriodOneDay:
			tracker1D = t
		}
	}
	if tracker1M == nil || tracker1D == nil {
		return nil, fmt.Errorf(
			"market resource for market %d is missing a 1m or 1d state tracker",
			uint64(market.Metadata.MarketID),
		)
	}

	return &MarketLatestState{
		TransactionMetadata: txnMetadata(txn),
		MarketAndStateMetadata: MarketAndStateMetadata{
			MarketID:      uint64(market.Metadata.MarketID),
			SymbolBytes:   market.Metadata.EmojiBytes,
			SymbolEmojis:  symbol.Emojis(market.Metadata.EmojiBytes),
			BumpTime:      market.SequenceInfo.LastBumpTime.Time(),
			MarketNonce:   uint64(market.SequenceInfo.Nonce),
			Trigger:       trigger,
			MarketAddress: string(market.Metadata.MarketAddress),
		},
		StateSnapshot: StateSnapshot{
			ClammVirtualReservesBase:  market.ClammVirtualReserves.Base,
			ClammVirtualReservesQuote: market.ClammVirtualReserves.Quote,
			CpammRealReservesBase:     market.CpammRealReserves.Base,
			CpammRealReservesQuote:    market.CpammRealReserves.Quote,
			LPCoinSupply:              market.LPCoinSupply,

			CumulativeStatsBaseVolume:     market.CumulativeStats.BaseVolume,
			CumulativeStatsQuoteVolume:    market.CumulativeStats.QuoteVolume,
			CumulativeStatsIntegratorFees: market.CumulativeStats.IntegratorFees,
			CumulativeStatsPoolFeesBase:   market.CumulativeStats.PoolFeesBase,
			CumulativeStatsPoolFeesQuote:  market.CumulativeStats.PoolFeesQuote,
			CumulativeStatsNSwaps:         market.CumulativeStats.NSwaps,
			CumulativeStatsNChatMessages:  market.CumulativeStats.NChatMessages,

			InstantaneousStatsTotalQuoteLocked:  instant.TotalQuoteLocked,
			InstantaneousStatsTotalValueLocked:  instant.TotalValueLocked,
			InstantaneousStatsMarketCap:         instant.MarketCap,
			InstantaneousStatsFullyDilutedValue: instant.FullyDilutedValue,
		},
		LastSwapSnapshot: lastSwapSnapshot(market.LastSwap),

		DailyTVLPerLPCoinGrowth:    TVLGrowth(tracker1D),
		InBondingCurve:             tracker1M.EndsInBondingCurve,
		VolumeIn1MStateTracker:     tracker1M.VolumeQuote,
		BaseVolumeIn1MStateTracker: tracker1M.VolumeBase,
	}, nil
}

// TVLGrowth returns the daily TVL growth per LP coin from the 1-day
// tracker's endpoint ratios: (start.lp_coins * end.tvl) divided by
// (start.tvl * end.lp_coins), or zero when the start ratio is degenerate.
func TVLGrowth(tracker1D *event.PeriodicStateTracker) decimal.Decimal {
	a := tracker1D.TVLToLPCoinRatioStart.TVL
	b := tracker1D.TVLToLPCoinRatioStart.LPCoins
	c := tracker1D.TVLToLPCoinRatioEnd.TVL
	d := tracker1D.TVLToLPCoinRatioEnd.LPCoins

	if a.IsZero() || b.IsZero() {
		return decimal.Zero
	}
	return b.Mul(c).Div(a.Mul(d))
}
