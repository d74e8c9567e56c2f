package model

import (
	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
)

// ArenaPositionKey is the natural key of one arena position row.
type ArenaPositionKey struct {
	MeleeID uint64
	User    string
}

// ArenaPositionDiff is the position change produced by one arena action.
// Balance and amount fields are deltas, so diffs can be applied additively
// in any order; Open and LastExit0 are overwrite fields resolved by the
// latest transaction version.
type ArenaPositionDiff struct {
	User                   string
	LastTransactionVersion int64
	MeleeID                uint64

	Open bool

	Emojicoin0Balance decimal.Decimal
	Emojicoin1Balance decimal.Decimal

	Withdrawals decimal.Decimal
	Deposits    decimal.Decimal
	MatchAmount decimal.Decimal

	LastExit0 *bool

	// Version of the diff that set LastExit0; merge state only.
	lastExit0Version int64
}

// Key returns the diff's natural key.
func (p *ArenaPositionDiff) Key() ArenaPositionKey {
	return ArenaPositionKey{MeleeID: p.MeleeID, User: p.User}
}

// ArenaPositionDiffFromEnter opens or tops up a position: both side balances
// gain the enter's proceeds and the deposit is the input amount.
func ArenaPositionDiffFromEnter(txn event.TxnInfo, enter *event.ArenaEnterEvent) *ArenaPositionDiff {
	return &ArenaPositionDiff{
		User:                   string(enter.User),
		LastTransactionVersion: txn.Version,
		MeleeID:                uint64(enter.MeleeID),
		Open:                   true,
		Emojicoin0Balance:      enter.Emojicoin0Proceeds,
		Emojicoin1Balance:      enter.Emojicoin1Proceeds,
		Withdrawals:            decimal.Zero,
		Deposits:               enter.InputAmount,
		MatchAmount:            enter.MatchAmount,
		LastExit0:              nil,
	}
}

// ArenaPositionDiffFromExit closes a position. Balances are the negated
// proceeds so the cumulative sum nets to zero, and the withdrawal is the
// proceeds of both sides converted to the quote asset through each side's
// exchange rate, rounded to an integer.
func ArenaPositionDiffFromExit(txn event.TxnInfo, exit *event.ArenaExitEvent) *ArenaPositionDiff {
	withdrawals := exit.Emojicoin0Proceeds.
		Div(exit.Emojicoin0ExchangeRate.Base).
		Mul(exit.Emojicoin0ExchangeRate.Quote).
		Add(exit.Emojicoin1Proceeds.
			Div(exit.Emojicoin1ExchangeRate.Base).
			Mul(exit.Emojicoin1ExchangeRate.Quote)).
		Round(0)

	lastExit0 := exit.Emojicoin1Proceeds.IsZero()

	return &ArenaPositionDiff{
		User:                   string(exit.User),
		LastTransactionVersion: txn.Version,
		MeleeID:                uint64(exit.MeleeID),
		Open:                   false,
		Emojicoin0Balance:      exit.Emojicoin0Proceeds.Neg(),
		Emojicoin1Balance:      exit.Emojicoin1Proceeds.Neg(),
		Withdrawals:            withdrawals,
		Deposits:               decimal.Zero,
		MatchAmount:            exit.TapOutFee.Neg(),
		LastExit0:              &lastExit0,
	}
}

// ArenaPositionDiffFromSwap rotates a position between the two melee
// markets: each side's balance moves by the signed base volume of that
// side's state event.
func ArenaPositionDiffFromSwap(
	txn event.TxnInfo,
	swap *event.ArenaSwapEvent,
	state0, state1 *event.StateEvent,
) *ArenaPositionDiff {
	return &ArenaPositionDiff{
		User:                   string(swap.User),
		LastTransactionVersion: txn.Version,
		MeleeID:                uint64(swap.MeleeID),
		Open:                   true,
		Emojicoin0Balance:      signedBaseVolume(state0),
		Emojicoin1Balance:      signedBaseVolume(state1),
		Withdrawals:            decimal.Zero,
		Deposits:               decimal.Zero,
		MatchAmount:            decimal.Zero,
		LastExit0:              nil,
	}
}

func signedBaseVolume(state *event.StateEvent) decimal.Decimal {
	if state.LastSwap.IsSell {
		return state.LastSwap.BaseVolume.Neg()
	}
	return state.LastSwap.BaseVolume
}

// MergeArenaPositions reduces diffs to one per (melee, user) key: numeric
// fields sum, Open takes the value of the diff with the larger transaction
// version, and LastExit0 takes the latest non-nil value regardless of the
// order diffs are seen in (nil LastExit0 never overwrites a set one).
func MergeArenaPositions(diffs []*ArenaPositionDiff) map[ArenaPositionKey]*ArenaPositionDiff {
	merged := make(map[ArenaPositionKey]*ArenaPositionDiff, len(diffs))
	for _, d := range diffs {
		key := d.Key()
		m, ok := merged[key]
		if !ok {
			clone := *d
			if clone.LastExit0 != nil {
				clone.lastExit0Version = clone.LastTransactionVersion
			}
			merged[key] = &clone
			continue
		}
		if m.LastTransactionVersion <= d.LastTransactionVersion {
			m.Open = d.Open
		}
		if d.LastExit0 != nil && (m.LastExit0 == nil || m.lastExit0Version < d.LastTransactionVersion) {
			m.LastExit0 = d.LastExit0
			m.lastExit0Version = d.LastTransactionVersion
		}
		m.LastTransactionVersion = maxVersion(m.LastTransactionVersion, d.LastTransactionVersion)
		m.Emojicoin0Balance = m.Emojicoin0Balance.Add(d.Emojicoin0Balance)
		m.Emojicoin1Balance = m.Emojicoin1Balance.Add(d.Emojicoin1Balance)
		m.Withdrawals = m.Withdrawals.Add(d.Withdrawals)
		m.Deposits = m.Deposits.Add(d.Deposits)
		m.MatchAmount = m.MatchAmount.Add(d.MatchAmount)
	}
	return merged
}
