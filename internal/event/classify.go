package event

import (
	"encoding/json"
	"fmt"
)

// InitialMarketNonce is the nonce the chain stamps on the events produced by
// a market's registration.
const InitialMarketNonce = 1

// Fixed event name suffixes. The module address in front of them is
// deployment configuration.
const (
	suffixSwap               = "::emojicoin_dot_fun::Swap"
	suffixChat               = "::emojicoin_dot_fun::Chat"
	suffixMarketRegistration = "::emojicoin_dot_fun::MarketRegistration"
	suffixPeriodicState      = "::emojicoin_dot_fun::PeriodicState"
	suffixState              = "::emojicoin_dot_fun::State"
	suffixGlobalState        = "::emojicoin_dot_fun::GlobalState"
	suffixLiquidity          = "::emojicoin_dot_fun::Liquidity"
	suffixMarketResource     = "::emojicoin_dot_fun::Market"

	suffixArenaMelee              = "::emojicoin_arena::Melee"
	suffixArenaEnter              = "::emojicoin_arena::Enter"
	suffixArenaExit               = "::emojicoin_arena::Exit"
	suffixArenaSwap               = "::emojicoin_arena::Swap"
	suffixArenaVaultBalanceUpdate = "::emojicoin_arena::VaultBalanceUpdate"
)

// TypeTags is the closed table of fully qualified type tags for one
// deployment. Built once at startup and read-only afterward.
type TypeTags struct {
	tags map[string]Kind

	moduleAddress string
	arenaAddress  string
}

// NewTypeTags builds the tag table for the given module address. arenaAddress
// may be empty, in which case arena events are treated as foreign.
func NewTypeTags(moduleAddress, arenaAddress string) *TypeTags {
	moduleAddress = StandardizeAddress(moduleAddress)
	t := &TypeTags{
		tags: map[string]Kind{
			moduleAddress + suffixSwap:               KindSwap,
			moduleAddress + suffixChat:               KindChat,
			moduleAddress + suffixMarketRegistration: KindMarketRegistration,
			moduleAddress + suffixPeriodicState:      KindPeriodicState,
			moduleAddress + suffixState:              KindState,
			moduleAddress + suffixGlobalState:        KindGlobalState,
			moduleAddress + suffixLiquidity:          KindLiquidity,
			moduleAddress + suffixMarketResource:     KindMarketResource,
		},
		moduleAddress: moduleAddress,
	}
	if arenaAddress != "" {
		arenaAddress = StandardizeAddress(arenaAddress)
		t.arenaAddress = arenaAddress
		t.tags[arenaAddress+suffixArenaMelee] = KindArenaMelee
		t.tags[arenaAddress+suffixArenaEnter] = KindArenaEnter
		t.tags[arenaAddress+suffixArenaExit] = KindArenaExit
		t.tags[arenaAddress+suffixArenaSwap] = KindArenaSwap
		t.tags[arenaAddress+suffixArenaVaultBalanceUpdate] = KindArenaVaultBalanceUpdate
	}
	return t
}

// ArenaEnabled reports whether arena type tags are configured.
func (t *TypeTags) ArenaEnabled() bool { return t.arenaAddress != "" }

// Lookup maps a raw type tag onto a protocol event kind. The second return
// is false for foreign tags.
func (t *TypeTags) Lookup(typeTag string) (Kind, bool) {
	k, ok := t.tags[typeTag]
	return k, ok
}

// parseError wraps a payload decode failure with the context needed to
// diagnose it: version, tag and raw payload.
func parseError(version int64, typeTag string, data []byte, err error) error {
	return fmt.Errorf("version %d: failed to parse %s payload %q: %w", version, typeTag, data, err)
}

// ParseMarketEvent classifies one raw event against the market event tags.
// Foreign tags and non-market protocol tags yield (nil, nil). A matching tag
// with an unparseable payload is an error that must abort the batch.
func (t *TypeTags) ParseMarketEvent(raw RawEvent, version, eventIndex int64) (MarketEvent, error) {
	kind, ok := t.Lookup(raw.Type)
	if !ok {
		return nil, nil
	}

	var (
		ev  MarketEvent
		err error
	)
	switch kind {
	case KindSwap:
		e := &SwapEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindChat:
		e := &ChatEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindMarketRegistration:
		e := &MarketRegistrationEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindPeriodicState:
		e := &PeriodicStateEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindState:
		e := &StateEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindLiquidity:
		e := &LiquidityEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	default:
		return nil, nil
	}
	if err != nil {
		return nil, parseError(version, raw.Type, raw.Data, err)
	}
	return ev, nil
}

// ParseArenaEvent classifies one raw event against the arena event tags.
func (t *TypeTags) ParseArenaEvent(raw RawEvent, version, eventIndex int64) (ArenaEvent, error) {
	kind, ok := t.Lookup(raw.Type)
	if !ok {
		return nil, nil
	}

	var (
		ev  ArenaEvent
		err error
	)
	switch kind {
	case KindArenaMelee:
		e := &ArenaMeleeEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindArenaEnter:
		e := &ArenaEnterEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindArenaExit:
		e := &ArenaExitEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindArenaSwap:
		e := &ArenaSwapEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	case KindArenaVaultBalanceUpdate:
		e := &ArenaVaultBalanceUpdateEvent{EventIndex: eventIndex}
		err = json.Unmarshal(raw.Data, e)
		ev = e
	default:
		return nil, nil
	}
	if err != nil {
		return nil, parseError(version, raw.Type, raw.Data, err)
	}
	return ev, nil
}

// ParseGlobalStateEvent classifies one raw event against the global state tag.
func (t *TypeTags) ParseGlobalStateEvent(raw RawEvent, version, eventIndex int64) (*GlobalStateEvent, error) {
	kind, ok := t.Lookup(raw.Type)
	if !ok || kind != KindGlobalState {
		return nil, nil
	}
	e := &GlobalStateEvent{EventIndex: eventIndex}
	if err := json.Unmarshal(raw.Data, e); err != nil {
		return nil, parseError(version, raw.Type, raw.Data, err)
	}
	return e, nil
}

// ParseMarketResource parses a writeset change holding the Market resource.
// Returns (nil, nil) when the change is not a Market resource.
func (t *TypeTags) ParseMarketResource(change RawWriteSetChange, version int64) (*MarketResource, error) {
	kind, ok := t.Lookup(change.Type)
	if !ok || kind != KindMarketResource {
		return nil, nil
	}
	r := &MarketResource{}
	if err := json.Unmarshal(change.Data, r); err != nil {
		return nil, parseError(version, change.Type, change.Data, err)
	}
	return r, nil
}
