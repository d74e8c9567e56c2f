package pubsub

import (
	"encoding/json"
	"fmt"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/model"
	"github.com/emojicoin/indexer/internal/processor"
)

// EventType names one DbEvent variant. The names are the wire tags of the
// derived-event stream and the values clients use in event_types filters.
type EventType string

const (
	TypeSwap                    EventType = "Swap"
	TypeChat                    EventType = "Chat"
	TypeMarketRegistration      EventType = "MarketRegistration"
	TypePeriodicState           EventType = "PeriodicState"
	TypeMarketLatestState       EventType = "MarketLatestState"
	TypeGlobalState             EventType = "GlobalState"
	TypeLiquidity               EventType = "Liquidity"
	TypeArenaMelee              EventType = "ArenaMelee"
	TypeArenaEnter              EventType = "ArenaEnter"
	TypeArenaExit               EventType = "ArenaExit"
	TypeArenaSwap               EventType = "ArenaSwap"
	TypeArenaVaultBalanceUpdate EventType = "ArenaVaultBalanceUpdate"
	TypeArenaCandlestick        EventType = "ArenaCandlestick"
	TypeCandlestick             EventType = "Candlestick"
)

// EventTypes lists every variant, in wire order.
var EventTypes = []EventType{
	TypeSwap, TypeChat, TypeMarketRegistration, TypePeriodicState,
	TypeMarketLatestState, TypeGlobalState, TypeLiquidity,
	TypeArenaMelee, TypeArenaEnter, TypeArenaExit, TypeArenaSwap,
	TypeArenaVaultBalanceUpdate, TypeArenaCandlestick, TypeCandlestick,
}

// ParseEventType validates a wire tag.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if s == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// IsArenaAction reports whether the type is one of the arena action events
// gated by a subscription's arena flag.
func (t EventType) IsArenaAction() bool {
	switch t {
	case TypeArenaMelee, TypeArenaEnter, TypeArenaExit, TypeArenaSwap, TypeArenaVaultBalanceUpdate:
		return true
	}
	return false
}

// DbEvent is one derived row change. MarketID is set for market-scoped
// events, Period for candlestick variants; the router switches on Type and
// only reads the fields that variant carries.
type DbEvent struct {
	Type     EventType
	MarketID uint64
	Period   event.Period
	Payload  any
}

// MarshalJSON writes the externally tagged union form {"<Type>": payload}.
func (e DbEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{string(e.Type): e.Payload})
}

// FromBatch flattens everything one committed batch wrote into DbEvents.
// Candlesticks come from the writer's read-back so subscribers see the row
// merged with previously persisted state. Cross-table order is unspecified.
func FromBatch(
	rows *processor.Rows,
	candlesticks []*model.Candlestick,
	arenaCandlesticks []*model.ArenaCandlestick,
) []DbEvent {
	var events []DbEvent

	for _, r := range rows.Registrations {
		events = append(events, DbEvent{Type: TypeMarketRegistration, MarketID: r.MarketID, Payload: r})
	}
	for _, r := range rows.Swaps {
		events = append(events, DbEvent{Type: TypeSwap, MarketID: r.MarketID, Payload: r})
	}
	for _, r := range rows.Chats {
		events = append(events, DbEvent{Type: TypeChat, MarketID: r.MarketID, Payload: r})
	}
	for _, r := range rows.Liquidity {
		events = append(events, DbEvent{Type: TypeLiquidity, MarketID: r.MarketID, Payload: r})
	}
	for _, r := range rows.PeriodicStates {
		events = append(events, DbEvent{Type: TypePeriodicState, MarketID: r.MarketID, Payload: r})
	}
	for _, r := range rows.GlobalStates {
		events = append(events, DbEvent{Type: TypeGlobalState, Payload: r})
	}
	for _, r := range rows.LatestStates {
		events = append(events, DbEvent{Type: TypeMarketLatestState, MarketID: r.MarketID, Payload: r})
	}

	for _, r := range rows.ArenaMelees {
		events = append(events, DbEvent{Type: TypeArenaMelee, Payload: r})
	}
	for _, r := range rows.ArenaEnters {
		events = append(events, DbEvent{Type: TypeArenaEnter, Payload: r})
	}
	for _, r := range rows.ArenaExits {
		events = append(events, DbEvent{Type: TypeArenaExit, Payload: r})
	}
	for _, r := range rows.ArenaSwaps {
		events = append(events, DbEvent{Type: TypeArenaSwap, Payload: r})
	}
	for _, r := range rows.ArenaVaultBalanceUpdates {
		events = append(events, DbEvent{Type: TypeArenaVaultBalanceUpdate, Payload: r})
	}

	for _, c := range candlesticks {
		events = append(events, DbEvent{Type: TypeCandlestick, MarketID: c.MarketID, Period: c.Period, Payload: c})
	}
	for _, c := range arenaCandlesticks {
		events = append(events, DbEvent{Type: TypeArenaCandlestick, Period: c.Period, Payload: c})
	}

	return events
}
