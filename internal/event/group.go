package event

import (
	"errors"
	"fmt"
)

// A group accepts at most 7 periodic state events even though 8 periods are
// configured: the protocol never closes every tracker in a single bump.
const maxPeriodicStatesPerGroup = 7

var (
	// ErrDuplicateBump means two causal bump events carried the same
	// (market, nonce) key inside one transaction.
	ErrDuplicateBump = errors.New("event group already has a bump event")

	// ErrDuplicateState means two state snapshots carried the same key.
	ErrDuplicateState = errors.New("event group already has a state event")

	// ErrTooManyPeriodicStates means a group exceeded the periodic state cap.
	ErrTooManyPeriodicStates = errors.New("event group has too many periodic state events")

	// ErrIncompleteGroup means a group was finalized without both a bump and
	// a state event.
	ErrIncompleteGroup = errors.New("event group is missing its bump or state event")
)

// EventGroup is the atomic unit of market-event processing: the single bump
// that advanced a market's nonce, the state snapshot it produced, and any
// periodic trackers it closed.
type EventGroup struct {
	MarketID    uint64
	MarketNonce uint64

	Bump           MarketEvent
	State          *StateEvent
	PeriodicStates []*PeriodicStateEvent

	Txn TxnInfo
}

// GroupBuilder accumulates the events of one (market, nonce) key while a
// transaction's events are scanned in emission order.
type GroupBuilder struct {
	marketID    uint64
	marketNonce uint64

	bump           MarketEvent
	state          *StateEvent
	periodicStates []*PeriodicStateEvent

	txn TxnInfo
}

// NewGroupBuilder starts a group from its first observed event.
func NewGroupBuilder(ev MarketEvent, txn TxnInfo) (*GroupBuilder, error) {
	b := &GroupBuilder{
		marketID:    ev.MarketID(),
		marketNonce: ev.MarketNonce(),
		txn:         txn,
	}
	if err := b.Add(ev); err != nil {
		return nil, err
	}
	return b, nil
}

// Key returns the (market_id, market_nonce) group key.
func (b *GroupBuilder) Key() (uint64, uint64) { return b.marketID, b.marketNonce }

// Add appends one event to the group. Violations of the one-bump/one-state
// invariant are programming or protocol-assumption errors, fatal to the batch.
func (b *GroupBuilder) Add(ev MarketEvent) error {
	if ev.MarketID() != b.marketID || ev.MarketNonce() != b.marketNonce {
		return fmt.Errorf("event key (%d, %d) does not match group key (%d, %d)",
			ev.MarketID(), ev.MarketNonce(), b.marketID, b.marketNonce)
	}

	switch e := ev.(type) {
	case *StateEvent:
		if b.state != nil {
			return fmt.Errorf("%w: market %d nonce %d", ErrDuplicateState, b.marketID, b.marketNonce)
		}
		b.state = e
	case *PeriodicStateEvent:
		if len(b.periodicStates) >= maxPeriodicStatesPerGroup {
			return fmt.Errorf("%w: market %d nonce %d", ErrTooManyPeriodicStates, b.marketID, b.marketNonce)
		}
		b.periodicStates = append(b.periodicStates, e)
	default:
		// Registration, chat, swap and liquidity are the bump variants.
		if b.bump != nil {
			return fmt.Errorf("%w: market %d nonce %d has %s and %s",
				ErrDuplicateBump, b.marketID, b.marketNonce, b.bump.Kind(), ev.Kind())
		}
		b.bump = ev
	}
	return nil
}

// Build finalizes the group. Called once, at the end of transaction processing.
func (b *GroupBuilder) Build() (*EventGroup, error) {
	if b.bump == nil || b.state == nil {
		return nil, fmt.Errorf("%w: market %d nonce %d", ErrIncompleteGroup, b.marketID, b.marketNonce)
	}
	return &EventGroup{
		MarketID:       b.marketID,
		MarketNonce:    b.marketNonce,
		Bump:           b.bump,
		State:          b.state,
		PeriodicStates: b.periodicStates,
		Txn:            b.txn,
	}, nil
}
