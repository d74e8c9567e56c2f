package broker

import (
	"encoding/json"
	"fmt"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/pubsub"
)

// MarketPeriod is one (market, period) candlestick subscription entry.
type MarketPeriod struct {
	MarketID uint64
	Period   event.Period
}

// Subscription is one connection's filter. Markets, EventTypes and Arena are
// replaced wholesale by each update message; the period sets are edited
// entry by entry.
type Subscription struct {
	Markets       map[uint64]struct{}
	EventTypes    map[pubsub.EventType]struct{}
	MarketPeriods map[MarketPeriod]struct{}
	Arena         bool
	ArenaPeriods  map[event.Period]struct{}
}

// NewSubscription returns the empty filter a connection starts with.
func NewSubscription() *Subscription {
	return &Subscription{
		Markets:       make(map[uint64]struct{}),
		EventTypes:    make(map[pubsub.EventType]struct{}),
		MarketPeriods: make(map[MarketPeriod]struct{}),
		ArenaPeriods:  make(map[event.Period]struct{}),
	}
}

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

// MarketPeriodRequest edits a single (market, period) entry.
type MarketPeriodRequest struct {
	Action   string       `json:"action"`
	MarketID uint64       `json:"market_id"`
	Period   event.Period `json:"period"`
}

// ArenaPeriodRequest edits a single arena period entry.
type ArenaPeriodRequest struct {
	Action string       `json:"action"`
	Period event.Period `json:"period"`
}

// SubscriptionMessage is the partial update a client sends. Omitted fields
// take their zero value, so leaving out markets clears the market filter and
// leaving out arena turns arena delivery off.
type SubscriptionMessage struct {
	Markets      []uint64             `json:"markets"`
	EventTypes   []string             `json:"event_types"`
	MarketPeriod *MarketPeriodRequest `json:"market_period"`
	Arena        bool                 `json:"arena"`
	ArenaPeriod  *ArenaPeriodRequest  `json:"arena_period"`
}

// ParseSubscriptionMessage decodes and validates one client message.
func ParseSubscriptionMessage(data []byte) (*SubscriptionMessage, error) {
	var msg SubscriptionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse subscription message: %w", err)
	}
	for _, s := range msg.EventTypes {
		if _, err := pubsub.ParseEventType(s); err != nil {
			return nil, err
		}
	}
	if msg.MarketPeriod != nil {
		if err := validAction(msg.MarketPeriod.Action); err != nil {
			return nil, err
		}
	}
	if msg.ArenaPeriod != nil {
		if err := validAction(msg.ArenaPeriod.Action); err != nil {
			return nil, err
		}
	}
	return &msg, nil
}

func validAction(action string) error {
	if action != actionSubscribe && action != actionUnsubscribe {
		return fmt.Errorf("unknown period action %q", action)
	}
	return nil
}

// Apply folds one update message into the filter: the scalar sections are
// replaced, the period sets are edited surgically.
func (s *Subscription) Apply(msg *SubscriptionMessage) {
	s.Markets = make(map[uint64]struct{}, len(msg.Markets))
	for _, id := range msg.Markets {
		s.Markets[id] = struct{}{}
	}
	s.EventTypes = make(map[pubsub.EventType]struct{}, len(msg.EventTypes))
	for _, name := range msg.EventTypes {
		t, _ := pubsub.ParseEventType(name)
		s.EventTypes[t] = struct{}{}
	}
	s.Arena = msg.Arena

	if req := msg.MarketPeriod; req != nil {
		key := MarketPeriod{MarketID: req.MarketID, Period: req.Period}
		if req.Action == actionSubscribe {
			s.MarketPeriods[key] = struct{}{}
		} else {
			delete(s.MarketPeriods, key)
		}
	}
	if req := msg.ArenaPeriod; req != nil {
		if req.Action == actionSubscribe {
			s.ArenaPeriods[req.Period] = struct{}{}
		} else {
			delete(s.ArenaPeriods, req.Period)
		}
	}
}

// isMatch decides whether the event is delivered to this subscription.
func isMatch(s *Subscription, ev pubsub.DbEvent) bool {
	switch {
	case ev.Type.IsArenaAction():
		return s.Arena
	case ev.Type == pubsub.TypeArenaCandlestick:
		_, ok := s.ArenaPeriods[ev.Period]
		return ok
	case ev.Type == pubsub.TypeCandlestick:
		_, ok := s.MarketPeriods[MarketPeriod{MarketID: ev.MarketID, Period: ev.Period}]
		return ok
	case ev.Type == pubsub.TypeGlobalState:
		// Global events have no market; the market filter does not apply.
		return s.typeWanted(ev.Type)
	default:
		if !s.typeWanted(ev.Type) {
			return false
		}
		if len(s.Markets) == 0 {
			return true
		}
		_, ok := s.Markets[ev.MarketID]
		return ok
	}
}

func (s *Subscription) typeWanted(t pubsub.EventType) bool {
	if len(s.EventTypes) == 0 {
		return true
	}
	_, ok := s.EventTypes[t]
	return ok
}
