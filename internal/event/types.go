package event

import (
	"github.com/shopspring/decimal"
)

// Kind discriminates the closed set of protocol event variants.
type Kind string

const (
	KindSwap               Kind = "Swap"
	KindChat               Kind = "Chat"
	KindMarketRegistration Kind = "MarketRegistration"
	KindPeriodicState      Kind = "PeriodicState"
	KindState              Kind = "State"
	KindGlobalState        Kind = "GlobalState"
	KindLiquidity          Kind = "Liquidity"
	KindMarketResource     Kind = "Market"

	KindArenaMelee              Kind = "ArenaMelee"
	KindArenaEnter              Kind = "ArenaEnter"
	KindArenaExit               Kind = "ArenaExit"
	KindArenaSwap               Kind = "ArenaSwap"
	KindArenaVaultBalanceUpdate Kind = "ArenaVaultBalanceUpdate"
)

// MarketEvent is a typed event carrying a (market_id, market_nonce) group key.
type MarketEvent interface {
	Kind() Kind
	MarketID() uint64
	MarketNonce() uint64
	Index() int64
}

// ArenaEvent is a typed event from the arena module.
type ArenaEvent interface {
	Kind() Kind
	Index() int64
}

// ---------- Shared payload fragments ----------

// MarketMetadata identifies a market inside most market events.
type MarketMetadata struct {
	MarketID      U64      `json:"market_id"`
	MarketAddress Address  `json:"market_address"`
	EmojiBytes    HexBytes `json:"emoji_bytes"`
}

// Reserves holds one side of a pool's base/quote reserves.
type Reserves struct {
	Base  decimal.Decimal `json:"base"`
	Quote decimal.Decimal `json:"quote"`
}

// StateMetadata describes the bump that produced a State event.
type StateMetadata struct {
	MarketNonce U64     `json:"market_nonce"`
	BumpTime    Micros  `json:"bump_time"`
	Trigger     Trigger `json:"trigger"`
}

// PeriodicStateMetadata describes the closed tracking period of a
// PeriodicState event.
type PeriodicStateMetadata struct {
	StartTime       Micros  `json:"start_time"`
	Period          Period  `json:"period"`
	EmitTime        Micros  `json:"emit_time"`
	EmitMarketNonce U64     `json:"emit_market_nonce"`
	Trigger         Trigger `json:"trigger"`
}

// CumulativeStats are lifetime totals for a market.
type CumulativeStats struct {
	BaseVolume     decimal.Decimal `json:"base_volume"`
	QuoteVolume    decimal.Decimal `json:"quote_volume"`
	IntegratorFees decimal.Decimal `json:"integrator_fees"`
	PoolFeesBase   decimal.Decimal `json:"pool_fees_base"`
	PoolFeesQuote  decimal.Decimal `json:"pool_fees_quote"`
	NSwaps         decimal.Decimal `json:"n_swaps"`
	NChatMessages  decimal.Decimal `json:"n_chat_messages"`
}

// InstantaneousStats are point-in-time valuations for a market.
type InstantaneousStats struct {
	TotalQuoteLocked  decimal.Decimal `json:"total_quote_locked"`
	TotalValueLocked  decimal.Decimal `json:"total_value_locked"`
	MarketCap         decimal.Decimal `json:"market_cap"`
	FullyDilutedValue decimal.Decimal `json:"fully_diluted_value"`
}

// LastSwap is the most recent swap folded into a State event.
type LastSwap struct {
	IsSell               bool            `json:"is_sell"`
	AvgExecutionPriceQ64 decimal.Decimal `json:"avg_execution_price_q64"`
	BaseVolume           decimal.Decimal `json:"base_volume"`
	QuoteVolume          decimal.Decimal `json:"quote_volume"`
	Nonce                U64             `json:"nonce"`
	Time                 Micros          `json:"time"`
}

// ExchangeRate is a base/quote price ratio for one side of a melee.
type ExchangeRate struct {
	Base  decimal.Decimal `json:"base"`
	Quote decimal.Decimal `json:"quote"`
}

// Price returns quote/base.
func (r ExchangeRate) Price() decimal.Decimal {
	return r.Quote.Div(r.Base)
}

// ---------- Market events ----------

// SwapEvent is emitted once per swap against a market.
type SwapEvent struct {
	EventIndex int64 `json:"-"`

	MarketIDField U64     `json:"market_id"`
	Time          Micros  `json:"time"`
	MarketNonceF  U64     `json:"market_nonce"`
	Swapper       Address `json:"swapper"`

	InputAmount          decimal.Decimal `json:"input_amount"`
	IsSell               bool            `json:"is_sell"`
	Integrator           Address         `json:"integrator"`
	IntegratorFeeRateBPs int16           `json:"integrator_fee_rate_bps"`
	NetProceeds          decimal.Decimal `json:"net_proceeds"`
	BaseVolume           decimal.Decimal `json:"base_volume"`
	QuoteVolume          decimal.Decimal `json:"quote_volume"`
	AvgExecutionPriceQ64 decimal.Decimal `json:"avg_execution_price_q64"`
	IntegratorFee        decimal.Decimal `json:"integrator_fee"`
	PoolFee              decimal.Decimal `json:"pool_fee"`

	StartsInBondingCurve     bool `json:"starts_in_bonding_curve"`
	ResultsInStateTransition bool `json:"results_in_state_transition"`

	BalanceAsFractionOfCirculatingSupplyBeforeQ64 decimal.Decimal `json:"balance_as_fraction_of_circulating_supply_before_q64"`
	BalanceAsFractionOfCirculatingSupplyAfterQ64  decimal.Decimal `json:"balance_as_fraction_of_circulating_supply_after_q64"`
}

func (e *SwapEvent) Kind() Kind          { return KindSwap }
func (e *SwapEvent) MarketID() uint64    { return uint64(e.MarketIDField) }
func (e *SwapEvent) MarketNonce() uint64 { return uint64(e.MarketNonceF) }
func (e *SwapEvent) Index() int64        { return e.EventIndex }

// ChatEvent is emitted once per chat message posted against a market.
type ChatEvent struct {
	EventIndex int64 `json:"-"`

	MarketMetadata  MarketMetadata `json:"market_metadata"`
	EmitTime        Micros         `json:"emit_time"`
	EmitMarketNonce U64            `json:"emit_market_nonce"`
	User            Address        `json:"user"`
	Message         string         `json:"message"`

	UserEmojicoinBalance                    decimal.Decimal `json:"user_emojicoin_balance"`
	CirculatingSupply                       decimal.Decimal `json:"circulating_supply"`
	BalanceAsFractionOfCirculatingSupplyQ64 decimal.Decimal `json:"balance_as_fraction_of_circulating_supply_q64"`
}

func (e *ChatEvent) Kind() Kind          { return KindChat }
func (e *ChatEvent) MarketID() uint64    { return uint64(e.MarketMetadata.MarketID) }
func (e *ChatEvent) MarketNonce() uint64 { return uint64(e.EmitMarketNonce) }
func (e *ChatEvent) Index() int64        { return e.EventIndex }

// MarketRegistrationEvent is emitted exactly once per market.
type MarketRegistrationEvent struct {
	EventIndex int64 `json:"-"`

	MarketMetadata MarketMetadata  `json:"market_metadata"`
	Time           Micros          `json:"time"`
	Registrant     Address         `json:"registrant"`
	Integrator     Address         `json:"integrator"`
	IntegratorFee  decimal.Decimal `json:"integrator_fee"`
}

func (e *MarketRegistrationEvent) Kind() Kind       { return KindMarketRegistration }
func (e *MarketRegistrationEvent) MarketID() uint64 { return uint64(e.MarketMetadata.MarketID) }

// MarketNonce returns the nonce stamped on registration events, which is
// always the initial market nonce.
func (e *MarketRegistrationEvent) MarketNonce() uint64 { return InitialMarketNonce }
func (e *MarketRegistrationEvent) Index() int64        { return e.EventIndex }

// PeriodicStateEvent is emitted when a tracking period closes.
type PeriodicStateEvent struct {
	EventIndex int64 `json:"-"`

	MarketMetadata        MarketMetadata        `json:"market_metadata"`
	PeriodicStateMetadata PeriodicStateMetadata `json:"periodic_state_metadata"`

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

func (e *PeriodicStateEvent) Kind() Kind          { return KindPeriodicState }
func (e *PeriodicStateEvent) MarketID() uint64    { return uint64(e.MarketMetadata.MarketID) }
func (e *PeriodicStateEvent) MarketNonce() uint64 { return uint64(e.PeriodicStateMetadata.EmitMarketNonce) }
func (e *PeriodicStateEvent) Index() int64        { return e.EventIndex }

// StateEvent is the full market snapshot emitted after every bump.
type StateEvent struct {
	EventIndex int64 `json:"-"`

	MarketMetadata MarketMetadata `json:"market_metadata"`
	StateMetadata  StateMetadata  `json:"state_metadata"`

	ClammVirtualReserves Reserves        `json:"clamm_virtual_reserves"`
	CpammRealReserves    Reserves        `json:"cpamm_real_reserves"`
	LPCoinSupply         decimal.Decimal `json:"lp_coin_supply"`

	CumulativeStats    CumulativeStats    `json:"cumulative_stats"`
	InstantaneousStats InstantaneousStats `json:"instantaneous_stats"`
	LastSwap           LastSwap           `json:"last_swap"`
}

func (e *StateEvent) Kind() Kind          { return KindState }
func (e *StateEvent) MarketID() uint64    { return uint64(e.MarketMetadata.MarketID) }
func (e *StateEvent) MarketNonce() uint64 { return uint64(e.StateMetadata.MarketNonce) }
func (e *StateEvent) Index() int64        { return e.EventIndex }

// InBondingCurve reports whether the market has not yet transitioned to the
// CPAMM pool.
func (e *StateEvent) InBondingCurve() bool {
	return e.LPCoinSupply.IsZero()
}

// CurvePrice returns the instantaneous quote/base price of the market.
func (e *StateEvent) CurvePrice() decimal.Decimal {
	if e.InBondingCurve() {
		return e.ClammVirtualReserves.Quote.Div(e.ClammVirtualReserves.Base)
	}
	return e.CpammRealReserves.Quote.Div(e.CpammRealReserves.Base)
}

// GlobalStateEvent is the registry-wide snapshot. It has no market key.
type GlobalStateEvent struct {
	EventIndex int64 `json:"-"`

	EmitTime      Micros  `json:"emit_time"`
	RegistryNonce U64     `json:"registry_nonce"`
	Trigger       Trigger `json:"trigger"`

	CumulativeQuoteVolume    decimal.Decimal `json:"cumulative_quote_volume"`
	TotalQuoteLocked         decimal.Decimal `json:"total_quote_locked"`
	TotalValueLocked         decimal.Decimal `json:"total_value_locked"`
	MarketCap                decimal.Decimal `json:"market_cap"`
	FullyDilutedValue        decimal.Decimal `json:"fully_diluted_value"`
	CumulativeIntegratorFees decimal.Decimal `json:"cumulative_integrator_fees"`
	CumulativeSwaps          decimal.Decimal `json:"cumulative_swaps"`
	CumulativeChatMessages   decimal.Decimal `json:"cumulative_chat_messages"`
}

// LiquidityEvent is emitted once per provide/remove liquidity action.
type LiquidityEvent struct {
	EventIndex int64 `json:"-"`

	MarketIDField U64     `json:"market_id"`
	Time          Micros  `json:"time"`
	MarketNonceF  U64     `json:"market_nonce"`
	Provider      Address `json:"provider"`

	BaseAmount               decimal.Decimal `json:"base_amount"`
	QuoteAmount              decimal.Decimal `json:"quote_amount"`
	LPCoinAmount             decimal.Decimal `json:"lp_coin_amount"`
	LiquidityProvided        bool            `json:"liquidity_provided"`
	BaseDonationClaimAmount  decimal.Decimal `json:"base_donation_claim_amount"`
	QuoteDonationClaimAmount decimal.Decimal `json:"quote_donation_claim_amount"`
}

func (e *LiquidityEvent) Kind() Kind          { return KindLiquidity }
func (e *LiquidityEvent) MarketID() uint64    { return uint64(e.MarketIDField) }
func (e *LiquidityEvent) MarketNonce() uint64 { return uint64(e.MarketNonceF) }
func (e *LiquidityEvent) Index() int64        { return e.EventIndex }

// ---------- Arena events ----------

// ArenaMeleeEvent starts a new melee between two markets.
type ArenaMeleeEvent struct {
	EventIndex int64 `json:"-"`

	MeleeID                 U64             `json:"melee_id"`
	Emojicoin0MarketAddress Address         `json:"emojicoin_0_market_address"`
	Emojicoin1MarketAddress Address         `json:"emojicoin_1_market_address"`
	StartTime               Micros          `json:"start_time"`
	Duration                decimal.Decimal `json:"duration"`
	MaxMatchPercentage      decimal.Decimal `json:"max_match_percentage"`
	MaxMatchAmount          decimal.Decimal `json:"max_match_amount"`
	AvailableRewards        decimal.Decimal `json:"available_rewards"`
}

func (e *ArenaMeleeEvent) Kind() Kind   { return KindArenaMelee }
func (e *ArenaMeleeEvent) Index() int64 { return e.EventIndex }

// ArenaEnterEvent records a user entering the active melee.
type ArenaEnterEvent struct {
	EventIndex int64 `json:"-"`

	User    Address `json:"user"`
	MeleeID U64     `json:"melee_id"`

	InputAmount        decimal.Decimal `json:"input_amount"`
	QuoteVolume        decimal.Decimal `json:"quote_volume"`
	IntegratorFee      decimal.Decimal `json:"integrator_fee"`
	MatchAmount        decimal.Decimal `json:"match_amount"`
	Emojicoin0Proceeds decimal.Decimal `json:"emojicoin_0_proceeds"`
	Emojicoin1Proceeds decimal.Decimal `json:"emojicoin_1_proceeds"`

	Emojicoin0ExchangeRate ExchangeRate `json:"emojicoin_0_exchange_rate"`
	Emojicoin1ExchangeRate ExchangeRate `json:"emojicoin_1_exchange_rate"`
}

func (e *ArenaEnterEvent) Kind() Kind   { return KindArenaEnter }
func (e *ArenaEnterEvent) Index() int64 { return e.EventIndex }

// ArenaExitEvent records a user leaving a melee, possibly after it ended.
type ArenaExitEvent struct {
	EventIndex int64 `json:"-"`

	User    Address `json:"user"`
	MeleeID U64     `json:"melee_id"`

	TapOutFee          decimal.Decimal `json:"tap_out_fee"`
	Emojicoin0Proceeds decimal.Decimal `json:"emojicoin_0_proceeds"`
	Emojicoin1Proceeds decimal.Decimal `json:"emojicoin_1_proceeds"`

	Emojicoin0ExchangeRate ExchangeRate `json:"emojicoin_0_exchange_rate"`
	Emojicoin1ExchangeRate ExchangeRate `json:"emojicoin_1_exchange_rate"`
}

func (e *ArenaExitEvent) Kind() Kind   { return KindArenaExit }
func (e *ArenaExitEvent) Index() int64 { return e.EventIndex }

// ArenaSwapEvent records a user rotating their position between the two
// melee markets.
type ArenaSwapEvent struct {
	EventIndex int64 `json:"-"`

	User    Address `json:"user"`
	MeleeID U64     `json:"melee_id"`

	QuoteVolume        decimal.Decimal `json:"quote_volume"`
	IntegratorFee      decimal.Decimal `json:"integrator_fee"`
	Emojicoin0Proceeds decimal.Decimal `json:"emojicoin_0_proceeds"`
	Emojicoin1Proceeds decimal.Decimal `json:"emojicoin_1_proceeds"`

	Emojicoin0ExchangeRate ExchangeRate `json:"emojicoin_0_exchange_rate"`
	Emojicoin1ExchangeRate ExchangeRate `json:"emojicoin_1_exchange_rate"`
}

func (e *ArenaSwapEvent) Kind() Kind   { return KindArenaSwap }
func (e *ArenaSwapEvent) Index() int64 { return e.EventIndex }

// ArenaVaultBalanceUpdateEvent records a change to the arena reward vault.
type ArenaVaultBalanceUpdateEvent struct {
	EventIndex int64 `json:"-"`

	NewBalance decimal.Decimal `json:"new_balance"`
}

func (e *ArenaVaultBalanceUpdateEvent) Kind() Kind   { return KindArenaVaultBalanceUpdate }
func (e *ArenaVaultBalanceUpdateEvent) Index() int64 { return e.EventIndex }
