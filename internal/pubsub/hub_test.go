package pubsub

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/model"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub(4, nil)
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish([]DbEvent{{Type: TypeGlobalState}, {Type: TypeSwap, MarketID: 7}})

	for _, sub := range []*Subscriber{a, b} {
		first := <-sub.C
		if first.Type != TypeGlobalState {
			t.Errorf("first event type = %s, want GlobalState", first.Type)
		}
		second := <-sub.C
		if second.Type != TypeSwap || second.MarketID != 7 {
			t.Errorf("second event = %+v, want Swap for market 7", second)
		}
	}

	if got := hub.Published(); got != 2 {
		t.Errorf("Published() = %d, want 2", got)
	}
	if got := hub.Dropped(); got != 0 {
		t.Errorf("Dropped() = %d, want 0", got)
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub(1, nil)
	slow := hub.Subscribe()

	hub.Publish([]DbEvent{{Type: TypeSwap}, {Type: TypeChat}, {Type: TypeLiquidity}})

	if got := slow.Dropped(); got != 2 {
		t.Errorf("subscriber Dropped() = %d, want 2", got)
	}
	if got := hub.Dropped(); got != 2 {
		t.Errorf("hub Dropped() = %d, want 2", got)
	}

	// The queued event is the oldest one; later events were dropped, not
	// queued out of order.
	ev := <-slow.C
	if ev.Type != TypeSwap {
		t.Errorf("delivered event type = %s, want Swap", ev.Type)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe()
	hub.Unsubscribe(sub)

	if _, ok := <-sub.C; ok {
		t.Error("channel still open after Unsubscribe")
	}
	if got := hub.Subscribers(); got != 0 {
		t.Errorf("Subscribers() = %d, want 0", got)
	}

	// Publishing after unsubscribe must not panic.
	hub.Publish([]DbEvent{{Type: TypeSwap}})
}

func TestDbEventMarshalTaggedUnion(t *testing.T) {
	stick := &model.Candlestick{
		MarketID:               3,
		LastTransactionVersion: 42,
		Period:                 event.PeriodOneMinute,
		Volume:                 decimal.NewFromInt(100),
	}
	data, err := json.Marshal(DbEvent{
		Type: TypeCandlestick, MarketID: 3, Period: event.PeriodOneMinute, Payload: stick,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatalf("unmarshal outer: %v", err)
	}
	inner, ok := outer["Candlestick"]
	if !ok {
		t.Fatalf("missing Candlestick tag, got keys %v", outer)
	}
	if !strings.Contains(string(inner), `"period":"OneMinute"`) {
		t.Errorf("payload missing wire period name: %s", inner)
	}
	if !strings.Contains(string(inner), `"market_id":3`) {
		t.Errorf("payload missing market id: %s", inner)
	}
}

func TestParseEventType(t *testing.T) {
	if _, err := ParseEventType("Swap"); err != nil {
		t.Errorf("ParseEventType(Swap) error: %v", err)
	}
	if _, err := ParseEventType("NotAType"); err == nil {
		t.Error("ParseEventType(NotAType) expected error")
	}
}

func TestIsArenaAction(t *testing.T) {
	for _, typ := range []EventType{TypeArenaMelee, TypeArenaEnter, TypeArenaExit, TypeArenaSwap, TypeArenaVaultBalanceUpdate} {
		if !typ.IsArenaAction() {
			t.Errorf("%s.IsArenaAction() = false, want true", typ)
		}
	}
	for _, typ := range []EventType{TypeSwap, TypeCandlestick, TypeArenaCandlestick, TypeGlobalState} {
		if typ.IsArenaAction() {
			t.Errorf("%s.IsArenaAction() = true, want false", typ)
		}
	}
}
