package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
)

// ArenaInfo is the persisted aggregate for one melee. The competition
// parameters are set once from the Melee event; the mutable totals start at
// zero and only ever move through ArenaInfoDiff updates.
type ArenaInfo struct {
	MeleeID                uint64
	LastTransactionVersion int64

	Volume           decimal.Decimal
	RewardsRemaining decimal.Decimal
	Emojicoin0Locked decimal.Decimal
	Emojicoin1Locked decimal.Decimal

	Emojicoin0MarketAddress string
	Emojicoin1MarketAddress string
	Emojicoin0MarketID      uint64
	Emojicoin1MarketID      uint64
	Emojicoin0Symbols       []string
	Emojicoin1Symbols       []string

	StartTime          time.Time
	Duration           decimal.Decimal
	MaxMatchPercentage decimal.Decimal
	MaxMatchAmount     decimal.Decimal
}

// NewArenaInfo builds the row created when a Melee event starts a new
// competition. Market ids and symbols come from the melee markets' metadata.
func NewArenaInfo(
	txn event.TxnInfo,
	melee *event.ArenaMeleeEvent,
	marketID0, marketID1 uint64,
	symbols0, symbols1 []string,
) *ArenaInfo {
	return &ArenaInfo{
		MeleeID:                uint64(melee.MeleeID),
		LastTransactionVersion: txn.Version,
		Volume:                 decimal.Zero,
		RewardsRemaining:       melee.AvailableRewards,
		Emojicoin0Locked:       decimal.Zero,
		Emojicoin1Locked:       decimal.Zero,

		Emojicoin0MarketAddress: string(melee.Emojicoin0MarketAddress),
		Emojicoin1MarketAddress: string(melee.Emojicoin1MarketAddress),
		Emojicoin0MarketID:      marketID0,
		Emojicoin1MarketID:      marketID1,
		Emojicoin0Symbols:       symbols0,
		Emojicoin1Symbols:       symbols1,

		StartTime:          melee.StartTime.Time(),
		Duration:           melee.Duration,
		MaxMatchPercentage: melee.MaxMatchPercentage,
		MaxMatchAmount:     melee.MaxMatchAmount,
	}
}

// ArenaInfoDiff is the additive change one arena action contributes to the
// melee aggregate.
type ArenaInfoDiff struct {
	MeleeID                uint64
	LastTransactionVersion int64

	Volume           decimal.Decimal
	RewardsRemaining decimal.Decimal
	Emojicoin0Locked decimal.Decimal
	Emojicoin1Locked decimal.Decimal
}

// ArenaInfoDiffFromEnter adds the enter's volume, pays the matched amount
// out of the reward pool and locks the proceeds.
func ArenaInfoDiffFromEnter(txn event.TxnInfo, enter *event.ArenaEnterEvent) *ArenaInfoDiff {
	return &ArenaInfoDiff{
		MeleeID:                uint64(enter.MeleeID),
		LastTransactionVersion: txn.Version,
		Volume:                 enter.QuoteVolume,
		RewardsRemaining:       enter.MatchAmount.Neg(),
		Emojicoin0Locked:       enter.Emojicoin0Proceeds,
		Emojicoin1Locked:       enter.Emojicoin1Proceeds,
	}
}

// ArenaInfoDiffFromExit releases the exited proceeds and charges the tap-out
// fee back against the reward pool.
func ArenaInfoDiffFromExit(txn event.TxnInfo, exit *event.ArenaExitEvent) *ArenaInfoDiff {
	return &ArenaInfoDiff{
		MeleeID:                uint64(exit.MeleeID),
		LastTransactionVersion: txn.Version,
		Volume:                 decimal.Zero,
		RewardsRemaining:       exit.TapOutFee.Neg(),
		Emojicoin0Locked:       exit.Emojicoin0Proceeds.Neg(),
		Emojicoin1Locked:       exit.Emojicoin1Proceeds.Neg(),
	}
}

// ArenaInfoDiffFromSwap adds the swap's volume and shifts the locked
// balances by each side's signed base volume.
func ArenaInfoDiffFromSwap(
	txn event.TxnInfo,
	swap *event.ArenaSwapEvent,
	state0, state1 *event.StateEvent,
) *ArenaInfoDiff {
	return &ArenaInfoDiff{
		MeleeID:                uint64(swap.MeleeID),
		LastTransactionVersion: txn.Version,
		Volume:                 swap.QuoteVolume,
		RewardsRemaining:       decimal.Zero,
		Emojicoin0Locked:       signedBaseVolume(state0),
		Emojicoin1Locked:       signedBaseVolume(state1),
	}
}

// MergeArenaInfoDiffs reduces diffs to one per melee id by summing every
// numeric field.
func MergeArenaInfoDiffs(diffs []*ArenaInfoDiff) map[uint64]*ArenaInfoDiff {
	merged := make(map[uint64]*ArenaInfoDiff, len(diffs))
	for _, d := range diffs {
		m, ok := merged[d.MeleeID]
		if !ok {
			clone := *d
			merged[d.MeleeID] = &clone
			continue
		}
		m.LastTransactionVersion = maxVersion(m.LastTransactionVersion, d.LastTransactionVersion)
		m.Volume = m.Volume.Add(d.Volume)
		m.RewardsRemaining = m.RewardsRemaining.Add(d.RewardsRemaining)
		m.Emojicoin0Locked = m.Emojicoin0Locked.Add(d.Emojicoin0Locked)
		m.Emojicoin1Locked = m.Emojicoin1Locked.Add(d.Emojicoin1Locked)
	}
	return merged
}
