package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
)

// ArenaMeleeRow is one append-only row in arena_melee_events.
type ArenaMeleeRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`

	MeleeID                 uint64          `json:"melee_id"`
	Emojicoin0MarketAddress string          `json:"emojicoin_0_market_address"`
	Emojicoin1MarketAddress string          `json:"emojicoin_1_market_address"`
	StartTime               time.Time       `json:"start_time"`
	Duration                decimal.Decimal `json:"duration"`
	MaxMatchPercentage      decimal.Decimal `json:"max_match_percentage"`
	MaxMatchAmount          decimal.Decimal `json:"max_match_amount"`
	AvailableRewards        decimal.Decimal `json:"available_rewards"`
}

// NewArenaMeleeRow builds a melee row.
func NewArenaMeleeRow(txn event.TxnInfo, melee *event.ArenaMeleeEvent) *ArenaMeleeRow {
	return &ArenaMeleeRow{
		TransactionMetadata: txnMetadata(txn),
		EventIndex:          melee.Index(),

		MeleeID:                 uint64(melee.MeleeID),
		Emojicoin0MarketAddress: string(melee.Emojicoin0MarketAddress),
		Emojicoin1MarketAddress: string(melee.Emojicoin1MarketAddress),
		StartTime:               melee.StartTime.Time(),
		Duration:                melee.Duration,
		MaxMatchPercentage:      melee.MaxMatchPercentage,
		MaxMatchAmount:          melee.MaxMatchAmount,
		AvailableRewards:        melee.AvailableRewards,
	}
}

// ArenaEnterRow is one append-only row in arena_enter_events.
type ArenaEnterRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`

	User    string `json:"user"`
	MeleeID uint64 `json:"melee_id"`

	InputAmount        decimal.Decimal `json:"input_amount"`
	QuoteVolume        decimal.Decimal `json:"quote_volume"`
	IntegratorFee      decimal.Decimal `json:"integrator_fee"`
	MatchAmount        decimal.Decimal `json:"match_amount"`
	Emojicoin0Proceeds decimal.Decimal `json:"emojicoin_0_proceeds"`
	Emojicoin1Proceeds decimal.Decimal `json:"emojicoin_1_proceeds"`

	Emojicoin0ExchangeRateBase  decimal.Decimal `json:"emojicoin_0_exchange_rate_base"`
	Emojicoin0ExchangeRateQuote decimal.Decimal `json:"emojicoin_0_exchange_rate_quote"`
	Emojicoin1ExchangeRateBase  decimal.Decimal `json:"emojicoin_1_exchange_rate_base"`
	Emojicoin1ExchangeRateQuote decimal.Decimal `json:"emojicoin_1_exchange_rate_quote"`
}

// NewArenaEnterRow builds an enter row.
func NewArenaEnterRow(txn event.TxnInfo, enter *event.ArenaEnterEvent) *ArenaEnterRow {
	return &ArenaEnterRow{
		TransactionMetadata: txnMetadata(txn),
		EventIndex:          enter.Index(),

		User:    string(enter.User),
		MeleeID: uint64(enter.MeleeID),

		InputAmount:        enter.InputAmount,
		QuoteVolume:        enter.QuoteVolume,
		IntegratorFee:      enter.IntegratorFee,
		MatchAmount:        enter.MatchAmount,
		Emojicoin0Proceeds: enter.Emojicoin0Proceeds,
		Emojicoin1Proceeds: enter.Emojicoin1Proceeds,

		Emojicoin0ExchangeRateBase:  enter.Emojicoin0ExchangeRate.Base,
		Emojicoin0ExchangeRateQuote: enter.Emojicoin0ExchangeRate.Quote,
		Emojicoin1ExchangeRateBase:  enter.Emojicoin1ExchangeRate.Base,
		Emojicoin1ExchangeRateQuote: enter.Emojicoin1ExchangeRate.Quote,
	}
}

// ArenaExitRow is one append-only row in arena_exit_events. AptProceeds is
// both proceeds converted to the quote asset at the exit's exchange rates,
// and DuringMelee reports whether the melee was still the active one.
type ArenaExitRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`

	User      string          `json:"user"`
	MeleeID   uint64          `json:"melee_id"`
	TapOutFee decimal.Decimal `json:"tap_out_fee"`

	Emojicoin0Proceeds decimal.Decimal `json:"emojicoin_0_proceeds"`
	Emojicoin1Proceeds decimal.Decimal `json:"emojicoin_1_proceeds"`
	AptProceeds        decimal.Decimal `json:"apt_proceeds"`

	Emojicoin0ExchangeRateBase  decimal.Decimal `json:"emojicoin_0_exchange_rate_base"`
	Emojicoin0ExchangeRateQuote decimal.Decimal `json:"emojicoin_0_exchange_rate_quote"`
	Emojicoin1ExchangeRateBase  decimal.Decimal `json:"emojicoin_1_exchange_rate_base"`
	Emojicoin1ExchangeRateQuote decimal.Decimal `json:"emojicoin_1_exchange_rate_quote"`

	DuringMelee bool `json:"during_melee"`
}

// NewArenaExitRow builds an exit row. activeMeleeID is the id of the melee
// that is active at this transaction.
func NewArenaExitRow(txn event.TxnInfo, exit *event.ArenaExitEvent, activeMeleeID uint64) *ArenaExitRow {
	aptProceeds := exit.Emojicoin0Proceeds.
		Div(exit.Emojicoin0ExchangeRate.Base).
		Mul(exit.Emojicoin0ExchangeRate.Quote).
		Add(exit.Emojicoin1Proceeds.
			Div(exit.Emojicoin1ExchangeRate.Base).
			Mul(exit.Emojicoin1ExchangeRate.Quote)).
		Round(0)

	return &ArenaExitRow{
		TransactionMetadata: txnMetadata(txn),
		EventIndex:          exit.Index(),

		User:      string(exit.User),
		MeleeID:   uint64(exit.MeleeID),
		TapOutFee: exit.TapOutFee,

		Emojicoin0Proceeds: exit.Emojicoin0Proceeds,
		Emojicoin1Proceeds: exit.Emojicoin1Proceeds,
		AptProceeds:        aptProceeds,

		Emojicoin0ExchangeRateBase:  exit.Emojicoin0ExchangeRate.Base,
		Emojicoin0ExchangeRateQuote: exit.Emojicoin0ExchangeRate.Quote,
		Emojicoin1ExchangeRateBase:  exit.Emojicoin1ExchangeRate.Base,
		Emojicoin1ExchangeRateQuote: exit.Emojicoin1ExchangeRate.Quote,

		DuringMelee: uint64(exit.MeleeID) == activeMeleeID,
	}
}

// ArenaSwapRow is one append-only row in arena_swap_events.
type ArenaSwapRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`

	User    string `json:"user"`
	MeleeID uint64 `json:"melee_id"`

	QuoteVolume        decimal.Decimal `json:"quote_volume"`
	IntegratorFee      decimal.Decimal `json:"integrator_fee"`
	Emojicoin0Proceeds decimal.Decimal `json:"emojicoin_0_proceeds"`
	Emojicoin1Proceeds decimal.Decimal `json:"emojicoin_1_proceeds"`

	Emojicoin0ExchangeRateBase  decimal.Decimal `json:"emojicoin_0_exchange_rate_base"`
	Emojicoin0ExchangeRateQuote decimal.Decimal `json:"emojicoin_0_exchange_rate_quote"`
	Emojicoin1ExchangeRateBase  decimal.Decimal `json:"emojicoin_1_exchange_rate_base"`
	Emojicoin1ExchangeRateQuote decimal.Decimal `json:"emojicoin_1_exchange_rate_quote"`

	DuringMelee bool `json:"during_melee"`
}

// NewArenaSwapRow builds an arena swap row.
func NewArenaSwapRow(txn event.TxnInfo, swap *event.ArenaSwapEvent, activeMeleeID uint64) *ArenaSwapRow {
	return &ArenaSwapRow{
		TransactionMetadata: txnMetadata(txn),
		EventIndex:          swap.Index(),

		User:    string(swap.User),
		MeleeID: uint64(swap.MeleeID),

		QuoteVolume:        swap.QuoteVolume,
		IntegratorFee:      swap.IntegratorFee,
		Emojicoin0Proceeds: swap.Emojicoin0Proceeds,
		Emojicoin1Proceeds: swap.Emojicoin1Proceeds,

		Emojicoin0ExchangeRateBase:  swap.Emojicoin0ExchangeRate.Base,
		Emojicoin0ExchangeRateQuote: swap.Emojicoin0ExchangeRate.Quote,
		Emojicoin1ExchangeRateBase:  swap.Emojicoin1ExchangeRate.Base,
		Emojicoin1ExchangeRateQuote: swap.Emojicoin1ExchangeRate.Quote,

		DuringMelee: uint64(swap.MeleeID) == activeMeleeID,
	}
}

// ArenaVaultBalanceUpdateRow is one append-only row in
// arena_vault_balance_update_events.
type ArenaVaultBalanceUpdateRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`

	NewBalance decimal.Decimal `json:"new_balance"`
}

// NewArenaVaultBalanceUpdateRow builds a vault balance update row.
func NewArenaVaultBalanceUpdateRow(txn event.TxnInfo, vbu *event.ArenaVaultBalanceUpdateEvent) *ArenaVaultBalanceUpdateRow {
	return &ArenaVaultBalanceUpdateRow{
		TransactionMetadata: txnMetadata(txn),
		EventIndex:          vbu.Index(),
		NewBalance:          vbu.NewBalance,
	}
}

// ArenaLeaderboardSnapshot parameterizes the leaderboard history snapshot
// taken when a melee ends. The snapshot itself is computed in SQL from the
// positions of the ended melee; the prices are the curve prices of the two
// melee markets at the ending transaction.
type ArenaLeaderboardSnapshot struct {
	MeleeID                uint64
	Emojicoin0Price        decimal.Decimal
	Emojicoin1Price        decimal.Decimal
	LastTransactionVersion int64
}

// ArenaLeaderboardExitUpdate marks an existing leaderboard history row as
// exited after the melee ended.
type ArenaLeaderboardExitUpdate struct {
	MeleeID            uint64
	User               string
	TransactionVersion int64
	LastExit0          bool
}

// NewArenaLeaderboardExitUpdate builds the exit update from an exit row.
func NewArenaLeaderboardExitUpdate(exit *ArenaExitRow) *ArenaLeaderboardExitUpdate {
	return &ArenaLeaderboardExitUpdate{
		MeleeID:            exit.MeleeID,
		User:               exit.User,
		TransactionVersion: exit.TransactionVersion,
		LastExit0:          exit.Emojicoin1Proceeds.IsZero(),
	}
}
