package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/symbol"
)

// TransactionMetadata is the per-transaction context repeated on every
// event-table row.
type TransactionMetadata struct {
	TransactionVersion   int64     `json:"transaction_version"`
	Sender               string    `json:"sender"`
	EntryFunction        *string   `json:"entry_function"`
	TransactionTimestamp time.Time `json:"transaction_timestamp"`
}

func txnMetadata(txn event.TxnInfo) TransactionMetadata {
	return TransactionMetadata{
		TransactionVersion:   txn.Version,
		Sender:               txn.Sender,
		EntryFunction:        txn.EntryFunction,
		TransactionTimestamp: txn.Timestamp,
	}
}

// MarketAndStateMetadata identifies the market and the bump that produced a
// row.
type MarketAndStateMetadata struct {
	MarketID      uint64        `json:"market_id"`
	SymbolBytes   []byte        `json:"symbol_bytes"`
	SymbolEmojis  []string      `json:"symbol_emojis"`
	BumpTime      time.Time     `json:"bump_time"`
	MarketNonce   uint64        `json:"market_nonce"`
	Trigger       event.Trigger `json:"trigger"`
	MarketAddress string        `json:"market_address"`
}

func marketAndStateMetadata(state *event.StateEvent) MarketAndStateMetadata {
	return MarketAndStateMetadata{
		MarketID:      state.MarketID(),
		SymbolBytes:   state.MarketMetadata.EmojiBytes,
		SymbolEmojis:  symbol.Emojis(state.MarketMetadata.EmojiBytes),
		BumpTime:      state.StateMetadata.BumpTime.Time(),
		MarketNonce:   state.MarketNonce(),
		Trigger:       state.StateMetadata.Trigger,
		MarketAddress: string(state.MarketMetadata.MarketAddress),
	}
}

// StateSnapshot is the flattened pool state repeated on rows derived from a
// state event.
type StateSnapshot struct {
	ClammVirtualReservesBase  decimal.Decimal `json:"clamm_virtual_reserves_base"`
	ClammVirtualReservesQuote decimal.Decimal `json:"clamm_virtual_reserves_quote"`
	CpammRealReservesBase     decimal.Decimal `json:"cpamm_real_reserves_base"`
	CpammRealReservesQuote    decimal.Decimal `json:"cpamm_real_reserves_quote"`
	LPCoinSupply              decimal.Decimal `json:"lp_coin_supply"`

	CumulativeStatsBaseVolume     decimal.Decimal `json:"cumulative_stats_base_volume"`
	CumulativeStatsQuoteVolume    decimal.Decimal `json:"cumulative_stats_quote_volume"`
	CumulativeStatsIntegratorFees decimal.Decimal `json:"cumulative_stats_integrator_fees"`
	CumulativeStatsPoolFeesBase   decimal.Decimal `json:"cumulative_stats_pool_fees_base"`
	CumulativeStatsPoolFeesQuote  decimal.Decimal `json:"cumulative_stats_pool_fees_quote"`
	CumulativeStatsNSwaps         decimal.Decimal `json:"cumulative_stats_n_swaps"`
	CumulativeStatsNChatMessages  decimal.Decimal `json:"cumulative_stats_n_chat_messages"`

	InstantaneousStatsTotalQuoteLocked  decimal.Decimal `json:"instantaneous_stats_total_quote_locked"`
	InstantaneousStatsTotalValueLocked  decimal.Decimal `json:"instantaneous_stats_total_value_locked"`
	InstantaneousStatsMarketCap         decimal.Decimal `json:"instantaneous_stats_market_cap"`
	InstantaneousStatsFullyDilutedValue decimal.Decimal `json:"instantaneous_stats_fully_diluted_value"`
}

func stateSnapshot(state *event.StateEvent) StateSnapshot {
	return StateSnapshot{
		ClammVirtualReservesBase:  state.ClammVirtualReserves.Base,
		ClammVirtualReservesQuote: state.ClammVirtualReserves.Quote,
		CpammRealReservesBase:     state.CpammRealReserves.Base,
		CpammRealReservesQuote:    state.CpammRealReserves.Quote,
		LPCoinSupply:              state.LPCoinSupply,

		CumulativeStatsBaseVolume:     state.CumulativeStats.BaseVolume,
		CumulativeStatsQuoteVolume:    state.CumulativeStats.QuoteVolume,
		CumulativeStatsIntegratorFees: state.CumulativeStats.IntegratorFees,
		CumulativeStatsPoolFeesBase:   state.CumulativeStats.PoolFeesBase,
		CumulativeStatsPoolFeesQuote:  state.CumulativeStats.PoolFeesQuote,
		CumulativeStatsNSwaps:         state.CumulativeStats.NSwaps,
		CumulativeStatsNChatMessages:  state.CumulativeStats.NChatMessages,

		InstantaneousStatsTotalQuoteLocked:  state.InstantaneousStats.TotalQuoteLocked,
		InstantaneousStatsTotalValueLocked:  state.InstantaneousStats.TotalValueLocked,
		InstantaneousStatsMarketCap:         state.InstantaneousStats.MarketCap,
		InstantaneousStatsFullyDilutedValue: state.InstantaneousStats.FullyDilutedValue,
	}
}

// LastSwapSnapshot is the flattened last-swap data repeated on rows derived
// from a state event.
type LastSwapSnapshot struct {
	LastSwapIsSell               bool            `json:"last_swap_is_sell"`
	LastSwapAvgExecutionPriceQ64 decimal.Decimal `json:"last_swap_avg_execution_price_q64"`
	LastSwapBaseVolume           decimal.Decimal `json:"last_swap_base_volume"`
	LastSwapQuoteVolume          decimal.Decimal `json:"last_swap_quote_volume"`
	LastSwapNonce                uint64          `json:"last_swap_nonce"`
	LastSwapTime                 time.Time       `json:"last_swap_time"`
}

func lastSwapSnapshot(ls event.LastSwap) LastSwapSnapshot {
	return LastSwapSnapshot{
		LastSwapIsSell:               ls.IsSell,
		LastSwapAvgExecutionPriceQ64: ls.AvgExecutionPriceQ64,
		LastSwapBaseVolume:           ls.BaseVolume,
		LastSwapQuoteVolume:          ls.QuoteVolume,
		LastSwapNonce:                uint64(ls.Nonce),
		LastSwapTime:                 ls.Time.Time(),
	}
}

// SwapRow is one append-only row in swap_events.
type SwapRow struct {
	BlockNumber int64 `json:"block_number"`
	TransactionMetadata
	EventIndex int64 `json:"event_index"`
	MarketAndStateMetadata

	Swapper              string          `json:"swapper"`
	Integrator           string          `json:"integrator"`
	IntegratorFee        decimal.Decimal `json:"integrator_fee"`
	InputAmount          decimal.Decimal `json:"input_amount"`
	IsSell               bool            `json:"is_sell"`
	IntegratorFeeRateBPs int16           `json:"integrator_fee_rate_bps"`
	NetProceeds          decimal.Decimal `json:"net_proceeds"`
	BaseVolume           decimal.Decimal `json:"base_volume"`
	QuoteVolume          decimal.Decimal `json:"quote_volume"`
	AvgExecutionPriceQ64 decimal.Decimal `json:"avg_execution_price_q64"`
	PoolFee              decimal.Decimal `json:"pool_fee"`

	StartsInBondingCurve     bool `json:"starts_in_bonding_curve"`
	ResultsInStateTransition bool `json:"results_in_state_transition"`

	BalanceAsFractionOfCirculatingSupplyBeforeQ64 decimal.Decimal `json:"balance_as_fraction_of_circulating_supply_before_q64"`
	BalanceAsFractionOfCirculatingSupplyAfterQ64  decimal.Decimal `json:"balance_as_fraction_of_circulating_supply_after_q64"`

	StateSnapshot
}

// NewSwapRow builds a swap row from its event group.
func NewSwapRow(txn event.TxnInfo, swap *event.SwapEvent, state *event.StateEvent) *SwapRow {
	return &SwapRow{
		BlockNumber:            txn.BlockNumber,
		TransactionMetadata:    txnMetadata(txn),
		EventIndex:             swap.Index(),
		MarketAndStateMetadata: marketAndStateMetadata(state),

		Swapper:              string(swap.Swapper),
		Integrator:           string(swap.Integrator),
		IntegratorFee:        swap.IntegratorFee,
		InputAmount:          swap.InputAmount,
		IsSell:               swap.IsSell,
		IntegratorFeeRateBPs: swap.IntegratorFeeRateBPs,
		NetProceeds:          swap.NetProceeds,
		BaseVolume:           swap.BaseVolume,
		QuoteVolume:          swap.QuoteVolume,
		AvgExecutionPriceQ64: swap.AvgExecutionPriceQ64,
		PoolFee:              swap.PoolFee,

		StartsInBondingCurve:     swap.StartsInBondingCurve,
		ResultsInStateTransition: swap.ResultsInStateTransition,

		BalanceAsFractionOfCirculatingSupplyBeforeQ64: swap.BalanceAsFractionOfCirculatingSupplyBeforeQ64,
		BalanceAsFractionOfCirculatingSupplyAfterQ64:  swap.BalanceAsFractionOfCirculatingSupplyAfterQ64,

		StateSnapshot: stateSnapshot(state),
	}
}

// ChatRow is one append-only row in chat_events.
type ChatRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`
	MarketAndStateMetadata

	User                                    string          `json:"user"`
	Message                                 string          `json:"message"`
	UserEmojicoinBalance                    decimal.Decimal `json:"user_emojicoin_balance"`
	CirculatingSupply                       decimal.Decimal `json:"circulating_supply"`
	BalanceAsFractionOfCirculatingSupplyQ64 decimal.Decimal `json:"balance_as_fraction_of_circulating_supply_q64"`

	StateSnapshot
	LastSwapSnapshot
}

// NewChatRow builds a chat row from its event group.
func NewChatRow(txn event.TxnInfo, chat *event.ChatEvent, state *event.StateEvent) *ChatRow {
	return &ChatRow{
		TransactionMetadata:    txnMetadata(txn),
		EventIndex:             chat.Index(),
		MarketAndStateMetadata: marketAndStateMetadata(state),

		User:                                    string(chat.User),
		Message:                                 chat.Message,
		UserEmojicoinBalance:                    chat.UserEmojicoinBalance,
		CirculatingSupply:                       chat.CirculatingSupply,
		BalanceAsFractionOfCirculatingSupplyQ64: chat.BalanceAsFractionOfCirculatingSupplyQ64,

		StateSnapshot:    stateSnapshot(state),
		LastSwapSnapshot: lastSwapSnapshot(state.LastSwap),
	}
}

// LiquidityRow is one append-only row in liquidity_events.
type LiquidityRow struct {
	BlockNumber int64 `json:"block_number"`
	TransactionMetadata
	EventIndex int64 `json:"event_index"`
	MarketAndStateMetadata

	Provider                 string          `json:"provider"`
	BaseAmount               decimal.Decimal `json:"base_amount"`
	QuoteAmount              decimal.Decimal `json:"quote_amount"`
	LPCoinAmount             decimal.Decimal `json:"lp_coin_amount"`
	LiquidityProvided        bool            `json:"liquidity_provided"`
	BaseDonationClaimAmount  decimal.Decimal `json:"base_donation_claim_amount"`
	QuoteDonationClaimAmount decimal.Decimal `json:"quote_donation_claim_amount"`

	StateSnapshot
	LastSwapSnapshot
}

// NewLiquidityRow builds a liquidity row from its event group.
func NewLiquidityRow(txn event.TxnInfo, liq *event.LiquidityEvent, state *event.StateEvent) *LiquidityRow {
	return &LiquidityRow{
		BlockNumber:            txn.BlockNumber,
		TransactionMetadata:    txnMetadata(txn),
		EventIndex:             liq.Index(),
		MarketAndStateMetadata: marketAndStateMetadata(state),

		Provider:                 string(liq.Provider),
		BaseAmount:               liq.BaseAmount,
		QuoteAmount:              liq.QuoteAmount,
		LPCoinAmount:             liq.LPCoinAmount,
		LiquidityProvided:        liq.LiquidityProvided,
		BaseDonationClaimAmount:  liq.BaseDonationClaimAmount,
		QuoteDonationClaimAmount: liq.QuoteDonationClaimAmount,

		StateSnapshot:    stateSnapshot(state),
		LastSwapSnapshot: lastSwapSnapshot(state.LastSwap),
	}
}

// MarketRegistrationRow is one append-only row in market_registration_events.
type MarketRegistrationRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`
	MarketAndStateMetadata

	Registrant    string          `json:"registrant"`
	Integrator    string          `json:"integrator"`
	IntegratorFee decimal.Decimal `json:"integrator_fee"`
}

// NewMarketRegistrationRow builds a registration row from its event group.
func NewMarketRegistrationRow(txn event.TxnInfo, reg *event.MarketRegistrationEvent, state *event.StateEvent) *MarketRegistrationRow {
	return &MarketRegistrationRow{
		TransactionMetadata:    txnMetadata(txn),
		EventIndex:             reg.Index(),
		MarketAndStateMetadata: marketAndStateMetadata(state),

		Registrant:    string(reg.Registrant),
		Integrator:    string(reg.Integrator),
		IntegratorFee: reg.IntegratorFee,
	}
}

// PeriodicStateRow is one append-only row in periodic_state_events.
type PeriodicStateRow struct {
	TransactionMetadata

	MarketID      uint64   `json:"market_id"`
	SymbolBytes   []byte   `json:"symbol_bytes"`
	SymbolEmojis  []string `json:"symbol_emojis"`
	MarketAddress string   `json:"market_address"`

	EmitTime    time.Time     `json:"emit_time"`
	MarketNonce uint64        `json:"market_nonce"`
	Trigger     event.Trigger `json:"trigger"`

	LastSwapSnapshot

	Period    event.Period `json:"period"`
	StartTime time.Time    `json:"start_time"`

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

	StartsInBondingCurve  bool            `json:"starts_in_bonding_curve"`
	EndsInBondingCurve    bool            `json:"ends_in_bonding_curve"`
	TVLPerLPCoinGrowthQ64 decimal.Decimal `json:"tvl_per_lp_coin_growth_q64"`
}

// NewPeriodicStateRow builds a periodic state row from one periodic event
// and its group's state event.
func NewPeriodicStateRow(txn event.TxnInfo, ps *event.PeriodicStateEvent, state *event.StateEvent) *PeriodicStateRow {
	return &PeriodicStateRow{
		TransactionMetadata: txnMetadata(txn),

		MarketID:      ps.MarketID(),
		SymbolBytes:   ps.MarketMetadata.EmojiBytes,
		SymbolEmojis:  symbol.Emojis(ps.MarketMetadata.EmojiBytes),
		MarketAddress: string(ps.MarketMetadata.MarketAddress),

		EmitTime:    ps.PeriodicStateMetadata.EmitTime.Time(),
		MarketNonce: ps.MarketNonce(),
		Trigger:     ps.PeriodicStateMetadata.Trigger,

		LastSwapSnapshot: lastSwapSnapshot(state.LastSwap),

		Period:    ps.PeriodicStateMetadata.Period,
		StartTime: ps.PeriodicStateMetadata.StartTime.Time(),

		OpenPriceQ64:  ps.OpenPriceQ64,
		HighPriceQ64:  ps.HighPriceQ64,
		LowPriceQ64:   ps.LowPriceQ64,
		ClosePriceQ64: ps.ClosePriceQ64,

		VolumeBase:     ps.VolumeBase,
		VolumeQuote:    ps.VolumeQuote,
		IntegratorFees: ps.IntegratorFees,
		PoolFeesBase:   ps.PoolFeesBase,
		PoolFeesQuote:  ps.PoolFeesQuote,
		NSwaps:         ps.NSwaps,
		NChatMessages:  ps.NChatMessages,

		StartsInBondingCurve:  ps.StartsInBondingCurve,
		EndsInBondingCurve:    ps.EndsInBondingCurve,
		TVLPerLPCoinGrowthQ64: ps.TVLPerLPCoinGrowthQ64,
	}
}

// GlobalStateRow is one append-only row in global_state_events.
type GlobalStateRow struct {
	TransactionMetadata
	EventIndex int64 `json:"event_index"`

	EmitTime      time.Time     `json:"emit_time"`
	RegistryNonce uint64        `json:"registry_nonce"`
	Trigger       event.Trigger `json:"trigger"`

	CumulativeQuoteVolume    decimal.Decimal `json:"cumulative_quote_volume"`
	TotalQuoteLocked         decimal.Decimal `json:"total_quote_locked"`
	TotalValueLocked         decimal.Decimal `json:"total_value_locked"`
	MarketCap                decimal.Decimal `json:"market_cap"`
	FullyDilutedValue        decimal.Decimal `json:"fully_diluted_value"`
	CumulativeIntegratorFees decimal.Decimal `json:"cumulative_integrator_fees"`
	CumulativeSwaps          decimal.Decimal `json:"cumulative_swaps"`
	CumulativeChatMessages   decimal.Decimal `json:"cumulative_chat_messages"`
}

// NewGlobalStateRow builds a global state row.
func NewGlobalStateRow(txn event.TxnInfo, gs *event.GlobalStateEvent) *GlobalStateRow {
	return &GlobalStateRow{
		TransactionMetadata: txnMetadata(txn),
		EventIndex:          gs.EventIndex,

		EmitTime:      gs.EmitTime.Time(),
		RegistryNonce: uint64(gs.RegistryNonce),
		Trigger:       gs.Trigger,

		CumulativeQuoteVolume:    gs.CumulativeQuoteVolume,
		TotalQuoteLocked:         gs.TotalQuoteLocked,
		TotalValueLocked:         gs.TotalValueLocked,
		MarketCap:                gs.MarketCap,
		FullyDilutedValue:        gs.FullyDilutedValue,
		CumulativeIntegratorFees: gs.CumulativeIntegratorFees,
		CumulativeSwaps:          gs.CumulativeSwaps,
		CumulativeChatMessages:   gs.CumulativeChatMessages,
	}
}

// MarketOneMinutePeriodRow is one append-only row in
// market_1m_periods_in_last_day, from which readers compute rolling 24h
// volume.
type MarketOneMinutePeriodRow struct {
	MarketID           uint64
	Nonce              uint64
	TransactionVersion int64
	Volume             decimal.Decimal
	BaseVolume         decimal.Decimal
	StartTime          time.Time
}

// NewMarketOneMinutePeriodRow builds a 1-minute period row from a periodic
// state event; callers must only pass 1-minute events.
func NewMarketOneMinutePeriodRow(txn event.TxnInfo, ps *event.PeriodicStateEvent) *MarketOneMinutePeriodRow {
	return &MarketOneMinutePeriodRow{
		MarketID:           ps.MarketID(),
		Nonce:              ps.MarketNonce(),
		TransactionVersion: txn.Version,
		Volume:             ps.VolumeQuote,
		BaseVolume:         ps.VolumeBase,
		StartTime:          ps.PeriodicStateMetadata.StartTime.Time(),
	}
}

// UserLiquidityPoolRow is the per (provider, market) latest liquidity
// snapshot, upserted with the monotonic nonce guard.
type UserLiquidityPoolRow struct {
	Provider             string
	TransactionVersion   int64
	TransactionTimestamp time.Time

	MarketID      uint64
	SymbolBytes   []byte
	SymbolEmojis  []string
	BumpTime      time.Time
	MarketNonce   uint64
	Trigger       event.Trigger
	MarketAddress string

	BaseAmount               decimal.Decimal
	QuoteAmount              decimal.Decimal
	LPCoinAmount             decimal.Decimal
	LiquidityProvided        bool
	BaseDonationClaimAmount  decimal.Decimal
	QuoteDonationClaimAmount decimal.Decimal

	LPCoinBalance decimal.Decimal
}

// NewUserLiquidityPoolRow builds the pool snapshot from a liquidity event
// group. lpCoinBalance is the provider's balance after the event.
func NewUserLiquidityPoolRow(txn event.TxnInfo, liq *event.LiquidityEvent, state *event.StateEvent, lpCoinBalance decimal.Decimal) *UserLiquidityPoolRow {
	md := marketAndStateMetadata(state)
	return &UserLiquidityPoolRow{
		Provider:             string(liq.Provider),
		TransactionVersion:   txn.Version,
		TransactionTimestamp: txn.Timestamp,

		MarketID:      md.MarketID,
		SymbolBytes:   md.SymbolBytes,
		SymbolEmojis:  md.SymbolEmojis,
		BumpTime:      md.BumpTime,
		MarketNonce:   md.MarketNonce,
		Trigger:       md.Trigger,
		MarketAddress: md.MarketAddress,

		BaseAmount:               liq.BaseAmount,
		QuoteAmount:              liq.QuoteAmount,
		LPCoinAmount:             liq.LPCoinAmount,
		LiquidityProvided:        liq.LiquidityProvided,
		BaseDonationClaimAmount:  liq.BaseDonationClaimAmount,
		QuoteDonationClaimAmount: liq.QuoteDonationClaimAmount,

		LPCoinBalance: lpCoinBalance,
	}
}
