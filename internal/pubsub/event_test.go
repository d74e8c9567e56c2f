package pubsub

import (
	"testing"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/model"
	"github.com/emojicoin/indexer/internal/processor"
)

func TestFromBatch(t *testing.T) {
	rows := &processor.Rows{
		Swaps: []*model.SwapRow{
			{MarketAndStateMetadata: model.MarketAndStateMetadata{MarketID: 5}},
		},
		GlobalStates: []*model.GlobalStateRow{{}},
		LatestStates: []*model.MarketLatestState{
			{MarketAndStateMetadata: model.MarketAndStateMetadata{MarketID: 5}},
		},
		ArenaEnters: []*model.ArenaEnterRow{{MeleeID: 2}},
	}
	candles := []*model.Candlestick{
		{MarketID: 5, Period: event.PeriodOneHour},
	}
	arenaCandles := []*model.ArenaCandlestick{
		{MeleeID: 2, Period: event.PeriodFifteenSeconds},
	}

	events := FromBatch(rows, candles, arenaCandles)

	byType := make(map[EventType]DbEvent)
	for _, ev := range events {
		byType[ev.Type] = ev
	}
	if len(events) != 6 {
		t.Fatalf("len(events) = %d, want 6", len(events))
	}
	if ev := byType[TypeSwap]; ev.MarketID != 5 {
		t.Errorf("swap event market = %d, want 5", ev.MarketID)
	}
	if ev := byType[TypeCandlestick]; ev.MarketID != 5 || ev.Period != event.PeriodOneHour {
		t.Errorf("candlestick event = %+v, want market 5 period OneHour", ev)
	}
	if ev := byType[TypeArenaCandlestick]; ev.Period != event.PeriodFifteenSeconds {
		t.Errorf("arena candlestick period = %s, want FifteenSeconds", ev.Period)
	}
	if _, ok := byType[TypeGlobalState]; !ok {
		t.Error("missing GlobalState event")
	}
	if _, ok := byType[TypeMarketLatestState]; !ok {
		t.Error("missing MarketLatestState event")
	}
	if _, ok := byType[TypeArenaEnter]; !ok {
		t.Error("missing ArenaEnter event")
	}
}
