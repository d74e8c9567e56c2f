package event

import (
	"encoding/json"
	"testing"
)

const testModuleAddr = "0xface"
const testArenaAddr = "0xcafe"

func testTags() *TypeTags {
	return NewTypeTags(testModuleAddr, testArenaAddr)
}

func stdAddr(s string) string { return StandardizeAddress(s) }

func TestLookupKnownTags(t *testing.T) {
	tags := testTags()

	tests := []struct {
		tag  string
		want Kind
	}{
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::Swap", KindSwap},
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::Chat", KindChat},
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::MarketRegistration", KindMarketRegistration},
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::PeriodicState", KindPeriodicState},
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::State", KindState},
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::GlobalState", KindGlobalState},
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::Liquidity", KindLiquidity},
		{stdAddr(testModuleAddr) + "::emojicoin_dot_fun::Market", KindMarketResource},
		{stdAddr(testArenaAddr) + "::emojicoin_arena::Melee", KindArenaMelee},
		{stdAddr(testArenaAddr) + "::emojicoin_arena::Enter", KindArenaEnter},
		{stdAddr(testArenaAddr) + "::emojicoin_arena::Exit", KindArenaExit},
		{stdAddr(testArenaAddr) + "::emojicoin_arena::Swap", KindArenaSwap},
		{stdAddr(testArenaAddr) + "::emojicoin_arena::VaultBalanceUpdate", KindArenaVaultBalanceUpdate},
	}

	for _, tt := range tests {
		got, ok := tags.Lookup(tt.tag)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.tag)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}

func TestForeignTagIsSkipped(t *testing.T) {
	tags := testTags()

	raw := RawEvent{
		Type: "0x1::coin::DepositEvent",
		Data: json.RawMessage(`{"amount":"100"}`),
	}

	ev, err := tags.ParseMarketEvent(raw, 10, 0)
	if err != nil {
		t.Fatalf("ParseMarketEvent() error = %v, want nil", err)
	}
	if ev != nil {
		t.Errorf("ParseMarketEvent() = %v, want nil for foreign tag", ev)
	}

	aev, err := tags.ParseArenaEvent(raw, 10, 0)
	if err != nil {
		t.Fatalf("ParseArenaEvent() error = %v, want nil", err)
	}
	if aev != nil {
		t.Errorf("ParseArenaEvent() = %v, want nil for foreign tag", aev)
	}
}

func TestMatchingTagBadPayloadIsFatal(t *testing.T) {
	tags := testTags()

	raw := RawEvent{
		Type: stdAddr(testModuleAddr) + "::emojicoin_dot_fun::Swap",
		Data: json.RawMessage(`{"market_id": false}`),
	}

	if _, err := tags.ParseMarketEvent(raw, 42, 3); err == nil {
		t.Error("ParseMarketEvent() error = nil, want parse failure for bad payload")
	}
}

func TestParseSwapEvent(t *testing.T) {
	tags := testTags()

	raw := RawEvent{
		Type: stdAddr(testModuleAddr) + "::emojicoin_dot_fun::Swap",
		Data: json.RawMessage(`{
			"market_id": "7",
			"time": "1735689600000000",
			"market_nonce": "11",
			"swapper": "0xabc",
			"input_amount": "1000",
			"is_sell": false,
			"integrator": "0xdef",
			"integrator_fee_rate_bps": 25,
			"net_proceeds": "990",
			"base_volume": "990",
			"quote_volume": "1000",
			"avg_execution_price_q64": "18446744073709551616",
			"integrator_fee": "10",
			"pool_fee": "0",
			"starts_in_bonding_curve": true,
			"results_in_state_transition": false,
			"balance_as_fraction_of_circulating_supply_before_q64": "0",
			"balance_as_fraction_of_circulating_supply_after_q64": "42"
		}`),
	}

	ev, err := tags.ParseMarketEvent(raw, 42, 3)
	if err != nil {
		t.Fatalf("ParseMarketEvent() error = %v", err)
	}

	swap, ok := ev.(*SwapEvent)
	if !ok {
		t.Fatalf("ParseMarketEvent() = %T, want *SwapEvent", ev)
	}
	if swap.MarketID() != 7 {
		t.Errorf("MarketID() = %d, want 7", swap.MarketID())
	}
	if swap.MarketNonce() != 11 {
		t.Errorf("MarketNonce() = %d, want 11", swap.MarketNonce())
	}
	if swap.Index() != 3 {
		t.Errorf("Index() = %d, want 3", swap.Index())
	}
	if swap.Swapper != Address(stdAddr("0xabc")) {
		t.Errorf("Swapper = %s, want standardized 0xabc", swap.Swapper)
	}
	if !swap.QuoteVolume.Equal(dec("1000")) {
		t.Errorf("QuoteVolume = %s, want 1000", swap.QuoteVolume)
	}
	if swap.IsSell {
		t.Error("IsSell = true, want false")
	}
}

func TestParseStateEventCurvePrice(t *testing.T) {
	tags := testTags()

	payload := `{
		"market_metadata": {"market_id": "7", "market_address": "0x77", "emoji_bytes": "0xf09f9880"},
		"state_metadata": {"market_nonce": "11", "bump_time": "1735689600000000", "trigger": 2},
		"clamm_virtual_reserves": {"base": "400", "quote": "100"},
		"cpamm_real_reserves": {"base": "0", "quote": "0"},
		"lp_coin_supply": "0",
		"cumulative_stats": {
			"base_volume": "1", "quote_volume": "2", "integrator_fees": "0",
			"pool_fees_base": "0", "pool_fees_quote": "0", "n_swaps": "1", "n_chat_messages": "0"
		},
		"instantaneous_stats": {
			"total_quote_locked": "100", "total_value_locked": "200",
			"market_cap": "300", "fully_diluted_value": "400"
		},
		"last_swap": {
			"is_sell": false, "avg_execution_price_q64": "0",
			"base_volume": "990", "quote_volume": "1000", "nonce": "11", "time": "1735689600000000"
		}
	}`

	raw := RawEvent{
		Type: stdAddr(testModuleAddr) + "::emojicoin_dot_fun::State",
		Data: json.RawMessage(payload),
	}

	ev, err := tags.ParseMarketEvent(raw, 42, 4)
	if err != nil {
		t.Fatalf("ParseMarketEvent() error = %v", err)
	}
	state, ok := ev.(*StateEvent)
	if !ok {
		t.Fatalf("ParseMarketEvent() = %T, want *StateEvent", ev)
	}

	if !state.InBondingCurve() {
		t.Error("InBondingCurve() = false, want true for zero lp_coin_supply")
	}
	// 100/400 = 0.25 from the virtual reserves while in the bonding curve.
	if !state.CurvePrice().Equal(dec("0.25")) {
		t.Errorf("CurvePrice() = %s, want 0.25", state.CurvePrice())
	}
	if state.StateMetadata.Trigger != TriggerSwapBuy {
		t.Errorf("Trigger = %v, want swap_buy", state.StateMetadata.Trigger)
	}
}

func TestArenaDisabledTreatsArenaTagsAsForeign(t *testing.T) {
	tags := NewTypeTags(testModuleAddr, "")

	raw := RawEvent{
		Type: stdAddr(testArenaAddr) + "::emojicoin_arena::Enter",
		Data: json.RawMessage(`{}`),
	}

	ev, err := tags.ParseArenaEvent(raw, 1, 0)
	if err != nil {
		t.Fatalf("ParseArenaEvent() error = %v", err)
	}
	if ev != nil {
		t.Errorf("ParseArenaEvent() = %v, want nil when arena is unconfigured", ev)
	}
}

func TestStandardizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0x1", "0x" + "000000000000000000000000000000000000000000000000000000000000000" + "1"},
		{"0xABC", "0x" + "0000000000000000000000000000000000000000000000000000000000000" + "abc"},
		{"0x" + "00000000000000000000000000000000000000000000000000000000000000ff", "0x" + "00000000000000000000000000000000000000000000000000000000000000ff"},
	}
	for _, tt := range tests {
		if got := StandardizeAddress(tt.in); got != tt.want {
			t.Errorf("StandardizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
