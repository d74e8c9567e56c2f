package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/pubsub"
)

func TestParseSubscriptionMessage(t *testing.T) {
	msg, err := ParseSubscriptionMessage([]byte(
		`{"markets": [1, 2, 3], "event_types": ["Chat"], "arena": true}`,
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, msg.Markets)
	assert.Equal(t, []string{"Chat"}, msg.EventTypes)
	assert.True(t, msg.Arena)
	assert.Nil(t, msg.MarketPeriod)
	assert.Nil(t, msg.ArenaPeriod)

	msg, err = ParseSubscriptionMessage([]byte(
		`{"arena_period": {"action": "subscribe", "period": "FifteenSeconds"}}`,
	))
	require.NoError(t, err)
	require.NotNil(t, msg.ArenaPeriod)
	assert.Equal(t, event.PeriodFifteenSeconds, msg.ArenaPeriod.Period)

	msg, err = ParseSubscriptionMessage([]byte(
		`{"market_period": {"action": "subscribe", "market_id": 12, "period": "OneHour"}}`,
	))
	require.NoError(t, err)
	require.NotNil(t, msg.MarketPeriod)
	assert.Equal(t, uint64(12), msg.MarketPeriod.MarketID)
	assert.Equal(t, event.PeriodOneHour, msg.MarketPeriod.Period)
}

func TestParseSubscriptionMessageRejects(t *testing.T) {
	_, err := ParseSubscriptionMessage([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseSubscriptionMessage([]byte(`{"event_types": ["Bogus"]}`))
	assert.Error(t, err)

	_, err = ParseSubscriptionMessage([]byte(
		`{"arena_period": {"action": "toggle", "period": "OneHour"}}`,
	))
	assert.Error(t, err)

	_, err = ParseSubscriptionMessage([]byte(
		`{"market_period": {"action": "subscribe", "market_id": 1, "period": "NotAPeriod"}}`,
	))
	assert.Error(t, err)
}

func TestApplyReplacesScalarsAndEditsPeriods(t *testing.T) {
	sub := NewSubscription()

	sub.Apply(&SubscriptionMessage{
		Markets:    []uint64{1, 2},
		EventTypes: []string{"Swap"},
		Arena:      true,
		MarketPeriod: &MarketPeriodRequest{
			Action: actionSubscribe, MarketID: 1, Period: event.PeriodOneMinute,
		},
	})
	assert.Len(t, sub.Markets, 2)
	assert.True(t, sub.Arena)
	assert.Contains(t, sub.MarketPeriods, MarketPeriod{MarketID: 1, Period: event.PeriodOneMinute})

	// Omitted fields reset markets/event_types/arena; the period entry from
	// the previous update survives untouched.
	sub.Apply(&SubscriptionMessage{
		ArenaPeriod: &ArenaPeriodRequest{Action: actionSubscribe, Period: event.PeriodOneHour},
	})
	assert.Empty(t, sub.Markets)
	assert.Empty(t, sub.EventTypes)
	assert.False(t, sub.Arena)
	assert.Contains(t, sub.MarketPeriods, MarketPeriod{MarketID: 1, Period: event.PeriodOneMinute})
	assert.Contains(t, sub.ArenaPeriods, event.PeriodOneHour)

	// Unsubscribing one period leaves the others alone.
	sub.Apply(&SubscriptionMessage{
		MarketPeriod: &MarketPeriodRequest{
			Action: actionUnsubscribe, MarketID: 1, Period: event.PeriodOneMinute,
		},
	})
	assert.NotContains(t, sub.MarketPeriods, MarketPeriod{MarketID: 1, Period: event.PeriodOneMinute})
	assert.Contains(t, sub.ArenaPeriods, event.PeriodOneHour)
}

func TestIsMatchEmptySubscription(t *testing.T) {
	sub := NewSubscription()

	assert.True(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeSwap, MarketID: 9}))
	assert.True(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeGlobalState}))
	assert.True(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeMarketLatestState, MarketID: 1}))

	// Candlesticks and arena events are opt-in.
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeCandlestick, MarketID: 9, Period: event.PeriodOneMinute}))
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeArenaCandlestick, Period: event.PeriodOneMinute}))
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeArenaEnter}))
}

func TestIsMatchMarketAndTypeFilters(t *testing.T) {
	sub := NewSubscription()
	sub.Apply(&SubscriptionMessage{Markets: []uint64{1}})

	assert.True(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeSwap, MarketID: 1}))
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeSwap, MarketID: 2}))
	// Global events ignore the market filter.
	assert.True(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeGlobalState}))

	sub.Apply(&SubscriptionMessage{Markets: []uint64{1}, EventTypes: []string{"Chat"}})
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeSwap, MarketID: 1}))
	assert.True(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeChat, MarketID: 1}))
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeGlobalState}))
}

func TestIsMatchArena(t *testing.T) {
	sub := NewSubscription()
	sub.Apply(&SubscriptionMessage{Arena: true})

	for _, typ := range []pubsub.EventType{
		pubsub.TypeArenaMelee, pubsub.TypeArenaEnter, pubsub.TypeArenaExit,
		pubsub.TypeArenaSwap, pubsub.TypeArenaVaultBalanceUpdate,
	} {
		assert.True(t, isMatch(sub, pubsub.DbEvent{Type: typ}), "type %s", typ)
	}
	// The arena flag does not grant arena candlesticks.
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeArenaCandlestick, Period: event.PeriodOneMinute}))
}

func TestIsMatchArenaPeriodToggle(t *testing.T) {
	sub := NewSubscription()
	ev := pubsub.DbEvent{Type: pubsub.TypeArenaCandlestick, Period: event.PeriodFiveMinutes}
	other := pubsub.DbEvent{Type: pubsub.TypeArenaCandlestick, Period: event.PeriodOneHour}

	sub.Apply(&SubscriptionMessage{ArenaPeriod: &ArenaPeriodRequest{Action: actionSubscribe, Period: event.PeriodFiveMinutes}})
	sub.Apply(&SubscriptionMessage{ArenaPeriod: &ArenaPeriodRequest{Action: actionSubscribe, Period: event.PeriodOneHour}})
	assert.True(t, isMatch(sub, ev))
	assert.True(t, isMatch(sub, other))

	sub.Apply(&SubscriptionMessage{ArenaPeriod: &ArenaPeriodRequest{Action: actionUnsubscribe, Period: event.PeriodFiveMinutes}})
	assert.False(t, isMatch(sub, ev))
	assert.True(t, isMatch(sub, other))

	sub.Apply(&SubscriptionMessage{ArenaPeriod: &ArenaPeriodRequest{Action: actionSubscribe, Period: event.PeriodFiveMinutes}})
	assert.True(t, isMatch(sub, ev))
	assert.True(t, isMatch(sub, other))
}

func TestIsMatchCandlestickNeedsExactEntry(t *testing.T) {
	sub := NewSubscription()
	sub.Apply(&SubscriptionMessage{
		MarketPeriod: &MarketPeriodRequest{Action: actionSubscribe, MarketID: 3, Period: event.PeriodOneDay},
	})

	assert.True(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeCandlestick, MarketID: 3, Period: event.PeriodOneDay}))
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeCandlestick, MarketID: 3, Period: event.PeriodOneHour}))
	assert.False(t, isMatch(sub, pubsub.DbEvent{Type: pubsub.TypeCandlestick, MarketID: 4, Period: event.PeriodOneDay}))
}
