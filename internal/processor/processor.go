package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/model"
	"github.com/emojicoin/indexer/internal/symbol"
)

// MeleeState is the active melee pointer carried across batches: which melee
// is running, its two markets, and their latest known prices.
type MeleeState struct {
	MeleeID   uint64
	MarketID0 uint64
	MarketID1 uint64
	Price0    decimal.Decimal
	Price1    decimal.Decimal
}

// MarketData describes one melee market at selection time.
type MarketData struct {
	MarketID     uint64
	SymbolEmojis []string
	Price        decimal.Decimal
}

// Lookup is the database read surface the processor needs at runtime.
type Lookup interface {
	// ActiveMelee returns the latest melee and its market prices, or nil
	// when no melee has ever started.
	ActiveMelee(ctx context.Context) (*MeleeState, error)

	// MarketDataByAddress resolves a market address to its id, symbols and
	// current price.
	MarketDataByAddress(ctx context.Context, marketAddress string) (*MarketData, error)
}

// Processor reduces raw transaction batches to row sets. Batches must be
// processed sequentially in version order; the processor carries the melee
// state from one batch to the next.
type Processor struct {
	tags   *event.TypeTags
	lookup Lookup
	logger *slog.Logger

	melee *MeleeState
}

// New builds a processor. LoadMeleeState must run before the first batch
// when arena indexing is enabled.
func New(tags *event.TypeTags, lookup Lookup, logger *slog.Logger) *Processor {
	return &Processor{tags: tags, lookup: lookup, logger: logger}
}

// LoadMeleeState primes the active melee pointer from the database.
func (p *Processor) LoadMeleeState(ctx context.Context) error {
	if !p.tags.ArenaEnabled() {
		return nil
	}
	melee, err := p.lookup.ActiveMelee(ctx)
	if err != nil {
		return fmt.Errorf("load active melee: %w", err)
	}
	p.melee = melee
	if melee != nil {
		p.logger.Info("loaded active melee", "melee_id", melee.MeleeID)
	}
	return nil
}

type userPoolKey struct {
	provider string
	marketID uint64
}

// resourceCandidate tracks the latest market resource seen for one market in
// a batch, together with the trigger and stats of its newest state event.
type resourceCandidate struct {
	txn      event.TxnInfo
	resource *event.MarketResource
	trigger  event.Trigger
	instant  event.InstantaneousStats
}

type batchState struct {
	rows *Rows

	candles      []*model.CandlestickDiff
	arenaCandles []*model.ArenaCandlestickDiff
	positions    []*model.ArenaPositionDiff
	infoDiffs    []*model.ArenaInfoDiff

	latestResources map[uint64]*resourceCandidate
	userPools       map[userPoolKey]*model.UserLiquidityPoolRow

	registrations []*event.MarketRegistrationEvent
	states        map[uint64]*event.StateEvent
}

// ProcessBatch turns one batch into its row set. Any error is fatal for the
// batch: nothing derived from it may be persisted.
func (p *Processor) ProcessBatch(ctx context.Context, batch *event.Batch) (*Rows, error) {
	st := &batchState{
		rows: &Rows{
			FirstVersion:  batch.FirstVersion(),
			LastVersion:   batch.LastVersion(),
			LastTimestamp: batch.LastTimestamp(),
		},
		latestResources: make(map[uint64]*resourceCandidate),
		userPools:       make(map[userPoolKey]*model.UserLiquidityPoolRow),
		states:          make(map[uint64]*event.StateEvent),
	}

	for i := range batch.Transactions {
		txn := &batch.Transactions[i]
		if err := p.processTransaction(ctx, txn, st); err != nil {
			return nil, fmt.Errorf("process transaction %d: %w", txn.Version, err)
		}
	}

	for _, cand := range st.latestResources {
		row, err := model.NewMarketLatestState(cand.txn, cand.resource, cand.trigger, cand.instant)
		if err != nil {
			return nil, err
		}
		st.rows.LatestStates = append(st.rows.LatestStates, row)
	}
	for _, pool := range st.userPools {
		st.rows.UserPools = append(st.rows.UserPools, pool)
	}
	for _, d := range model.MergeCandlesticks(st.candles) {
		st.rows.Candlesticks = append(st.rows.Candlesticks, d.Row())
	}
	for _, d := range model.MergeArenaCandlesticks(st.arenaCandles) {
		st.rows.ArenaCandlesticks = append(st.rows.ArenaCandlesticks, d.Row())
	}
	for _, d := range model.MergeArenaPositions(st.positions) {
		st.rows.ArenaPositions = append(st.rows.ArenaPositions, d)
	}
	for _, d := range model.MergeArenaInfoDiffs(st.infoDiffs) {
		st.rows.ArenaInfoDiffs = append(st.rows.ArenaInfoDiffs, d)
	}
	return st.rows, nil
}

func (p *Processor) processTransaction(ctx context.Context, raw *event.RawTransaction, st *batchState) error {
	txn := raw.Info()

	// The two most recent state events, newest first. An arena swap's two
	// state events arrive sold side first.
	var lastTwo [2]*event.StateEvent

	groups := make(map[[2]uint64]*event.GroupBuilder)
	var order [][2]uint64

	for i, rawEv := range raw.Events {
		idx := int64(i)

		mev, err := p.tags.ParseMarketEvent(rawEv, raw.Version, idx)
		if err != nil {
			return err
		}
		if mev != nil {
			if err := p.observeMarketEvent(txn, mev, idx, &lastTwo, st); err != nil {
				return err
			}
			key := [2]uint64{mev.MarketID(), mev.MarketNonce()}
			if b, ok := groups[key]; ok {
				if err := b.Add(mev); err != nil {
					return err
				}
			} else {
				b, err := event.NewGroupBuilder(mev, txn)
				if err != nil {
					return err
				}
				groups[key] = b
				order = append(order, key)
			}
			continue
		}

		aev, err := p.tags.ParseArenaEvent(rawEv, raw.Version, idx)
		if err != nil {
			return err
		}
		if aev != nil {
			if err := p.observeArenaEvent(ctx, txn, aev, &lastTwo, st); err != nil {
				return err
			}
			continue
		}

		gs, err := p.tags.ParseGlobalStateEvent(rawEv, raw.Version, idx)
		if err != nil {
			return err
		}
		if gs != nil {
			st.rows.GlobalStates = append(st.rows.GlobalStates, model.NewGlobalStateRow(txn, gs))
		}
	}

	for _, key := range order {
		group, err := groups[key].Build()
		if err != nil {
			return err
		}
		if err := p.finishGroup(raw, group, st); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) observeMarketEvent(
	txn event.TxnInfo,
	mev event.MarketEvent,
	idx int64,
	lastTwo *[2]*event.StateEvent,
	st *batchState,
) error {
	switch e := mev.(type) {
	case *event.StateEvent:
		stamp := model.EventStamp{Version: txn.Version, Index: idx}
		st.candles = append(st.candles, model.CandlestickDiffsFromState(txn, e, stamp)...)
		st.states[e.MarketID()] = e
		lastTwo[1], lastTwo[0] = lastTwo[0], e

		// A state event whose last swap is this very bump moves the melee
		// price when the market is one of the melee's two.
		if p.melee != nil && uint64(e.LastSwap.Nonce) == e.MarketNonce() {
			switch e.MarketID() {
			case p.melee.MarketID0:
				p.melee.Price0 = e.CurvePrice()
			case p.melee.MarketID1:
				p.melee.Price1 = e.CurvePrice()
			default:
				return nil
			}
			st.arenaCandles = append(st.arenaCandles, model.ArenaCandlestickDiffsFromState(
				txn, p.melee.MeleeID, e, stamp, p.melee.Price0, p.melee.Price1)...)
		}
	case *event.MarketRegistrationEvent:
		st.registrations = append(st.registrations, e)
	case *event.PeriodicStateEvent:
		if e.PeriodicStateMetadata.Period == event.PeriodOneMinute &&
			txn.Timestamp.Sub(e.PeriodicStateMetadata.StartTime.Time()) < 24*time.Hour {
			st.rows.OneMinutePeriods = append(st.rows.OneMinutePeriods, model.NewMarketOneMinutePeriodRow(txn, e))
		}
	}
	return nil
}

func (p *Processor) observeArenaEvent(
	ctx context.Context,
	txn event.TxnInfo,
	aev event.ArenaEvent,
	lastTwo *[2]*event.StateEvent,
	st *batchState,
) error {
	switch e := aev.(type) {
	case *event.ArenaMeleeEvent:
		market0, err := p.marketData(ctx, string(e.Emojicoin0MarketAddress), st)
		if err != nil {
			return err
		}
		market1, err := p.marketData(ctx, string(e.Emojicoin1MarketAddress), st)
		if err != nil {
			return err
		}

		st.rows.ArenaMelees = append(st.rows.ArenaMelees, model.NewArenaMeleeRow(txn, e))

		// A new melee closes the previous one: snapshot its leaderboard at
		// the prices known right before the handoff. The very first melee
		// has nothing to snapshot.
		if p.melee != nil {
			st.rows.ArenaLeaderboardSnapshots = append(st.rows.ArenaLeaderboardSnapshots, &model.ArenaLeaderboardSnapshot{
				MeleeID:                p.melee.MeleeID,
				Emojicoin0Price:        p.melee.Price0,
				Emojicoin1Price:        p.melee.Price1,
				LastTransactionVersion: txn.Version,
			})
		}

		st.rows.ArenaInfos = append(st.rows.ArenaInfos, model.NewArenaInfo(
			txn, e, market0.MarketID, market1.MarketID, market0.SymbolEmojis, market1.SymbolEmojis))

		p.melee = &MeleeState{
			MeleeID:   uint64(e.MeleeID),
			MarketID0: market0.MarketID,
			MarketID1: market1.MarketID,
			Price0:    market0.Price,
			Price1:    market1.Price,
		}

	case *event.ArenaEnterEvent:
		st.positions = append(st.positions, model.ArenaPositionDiffFromEnter(txn, e))
		st.infoDiffs = append(st.infoDiffs, model.ArenaInfoDiffFromEnter(txn, e))
		st.rows.ArenaEnters = append(st.rows.ArenaEnters, model.NewArenaEnterRow(txn, e))

	case *event.ArenaExitEvent:
		if p.melee == nil {
			return fmt.Errorf("version %d: exit for melee %d before any melee started", txn.Version, uint64(e.MeleeID))
		}
		st.positions = append(st.positions, model.ArenaPositionDiffFromExit(txn, e))
		st.infoDiffs = append(st.infoDiffs, model.ArenaInfoDiffFromExit(txn, e))

		row := model.NewArenaExitRow(txn, e, p.melee.MeleeID)
		st.rows.ArenaExits = append(st.rows.ArenaExits, row)
		st.rows.ArenaLeaderboardExits = append(st.rows.ArenaLeaderboardExits, model.NewArenaLeaderboardExitUpdate(row))

	case *event.ArenaSwapEvent:
		if p.melee == nil {
			return fmt.Errorf("version %d: arena swap for melee %d before any melee started", txn.Version, uint64(e.MeleeID))
		}
		swappedInto, swappedOutOf := lastTwo[0], lastTwo[1]
		if swappedInto == nil || swappedOutOf == nil {
			return fmt.Errorf("version %d: arena swap for melee %d missing its two state events", txn.Version, uint64(e.MeleeID))
		}
		lastTwo[0], lastTwo[1] = nil, nil

		// Zero emojicoin_0 proceeds means side 0 was the one sold, and the
		// sold side's state event is emitted first.
		state0, state1 := swappedInto, swappedOutOf
		if e.Emojicoin0Proceeds.IsZero() {
			state0, state1 = swappedOutOf, swappedInto
		}

		st.positions = append(st.positions, model.ArenaPositionDiffFromSwap(txn, e, state0, state1))
		st.infoDiffs = append(st.infoDiffs, model.ArenaInfoDiffFromSwap(txn, e, state0, state1))
		st.rows.ArenaSwaps = append(st.rows.ArenaSwaps, model.NewArenaSwapRow(txn, e, p.melee.MeleeID))

	case *event.ArenaVaultBalanceUpdateEvent:
		st.rows.ArenaVaultBalanceUpdates = append(st.rows.ArenaVaultBalanceUpdates, model.NewArenaVaultBalanceUpdateRow(txn, e))
	}
	return nil
}

// marketData resolves a melee market, preferring registrations seen earlier
// in the same batch: a market can be registered and selected for a melee
// before its snapshot ever reaches the database.
func (p *Processor) marketData(ctx context.Context, marketAddress string, st *batchState) (*MarketData, error) {
	for _, reg := range st.registrations {
		if string(reg.MarketMetadata.MarketAddress) != marketAddress {
			continue
		}
		price := decimal.Zero
		if state, ok := st.states[reg.MarketID()]; ok {
			price = state.CurvePrice()
		}
		return &MarketData{
			MarketID:     reg.MarketID(),
			SymbolEmojis: symbol.Emojis(reg.MarketMetadata.EmojiBytes),
			Price:        price,
		}, nil
	}
	data, err := p.lookup.MarketDataByAddress(ctx, marketAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve melee market %s: %w", marketAddress, err)
	}
	return data, nil
}

func (p *Processor) finishGroup(raw *event.RawTransaction, group *event.EventGroup, st *batchState) error {
	txn := group.Txn
	state := group.State

	for _, ps := range group.PeriodicStates {
		st.rows.PeriodicStates = append(st.rows.PeriodicStates, model.NewPeriodicStateRow(txn, ps, state))
	}

	// The writeset reflects the market's final state for the whole
	// transaction, so the resource is only parsed for the newest group per
	// market and only re-parsed when a newer transaction shows up.
	cand, ok := st.latestResources[group.MarketID]
	if !ok {
		resource, err := p.marketResource(raw, state)
		if err != nil {
			return err
		}
		st.latestResources[group.MarketID] = &resourceCandidate{
			txn:      txn,
			resource: resource,
			trigger:  state.StateMetadata.Trigger,
			instant:  state.InstantaneousStats,
		}
	} else if uint64(cand.resource.SequenceInfo.Nonce) <= group.MarketNonce {
		if cand.txn.Version != txn.Version {
			resource, err := p.marketResource(raw, state)
			if err != nil {
				return err
			}
			cand.resource = resource
			cand.txn = txn
		}
		cand.trigger = state.StateMetadata.Trigger
		cand.instant = state.InstantaneousStats
	}

	switch bump := group.Bump.(type) {
	case *event.MarketRegistrationEvent:
		st.rows.Registrations = append(st.rows.Registrations, model.NewMarketRegistrationRow(txn, bump, state))
		st.rows.RegisteredSymbols = append(st.rows.RegisteredSymbols, state.MarketMetadata.EmojiBytes)
	case *event.ChatEvent:
		st.rows.Chats = append(st.rows.Chats, model.NewChatRow(txn, bump, state))
	case *event.SwapEvent:
		st.rows.Swaps = append(st.rows.Swaps, model.NewSwapRow(txn, bump, state))
	case *event.LiquidityEvent:
		row := model.NewLiquidityRow(txn, bump, state)
		st.rows.Liquidity = append(st.rows.Liquidity, row)

		balance, err := lpCoinBalance(raw, string(state.MarketMetadata.MarketAddress))
		if err != nil {
			return err
		}
		pool := model.NewUserLiquidityPoolRow(txn, bump, state, balance)
		key := userPoolKey{provider: pool.Provider, marketID: pool.MarketID}
		if cur, ok := st.userPools[key]; !ok || cur.MarketNonce < pool.MarketNonce {
			st.userPools[key] = pool
		}
	default:
		return fmt.Errorf("market %d nonce %d: unexpected bump event %s",
			group.MarketID, group.MarketNonce, group.Bump.Kind())
	}
	return nil
}

func (p *Processor) marketResource(raw *event.RawTransaction, state *event.StateEvent) (*event.MarketResource, error) {
	addr := string(state.MarketMetadata.MarketAddress)
	for _, change := range raw.Changes {
		if event.StandardizeAddress(change.Address) != addr {
			continue
		}
		resource, err := p.tags.ParseMarketResource(change, raw.Version)
		if err != nil {
			return nil, err
		}
		if resource != nil {
			return resource, nil
		}
	}
	return nil, fmt.Errorf("version %d: no market resource writeset change for market %s", raw.Version, addr)
}

var lpCoinStoreRe = regexp.MustCompile(`^0x0*1::coin::CoinStore<(0x[^:]*)::coin_factory::EmojicoinLP>$`)

// lpCoinBalance extracts the provider's LP coin balance for a market from
// the transaction writeset.
func lpCoinBalance(raw *event.RawTransaction, marketAddress string) (decimal.Decimal, error) {
	for _, change := range raw.Changes {
		m := lpCoinStoreRe.FindStringSubmatch(change.Type)
		if m == nil || event.StandardizeAddress(m[1]) != marketAddress {
			continue
		}
		var store struct {
			Coin struct {
				Value decimal.Decimal `json:"value"`
			} `json:"coin"`
		}
		if err := json.Unmarshal(change.Data, &store); err != nil {
			return decimal.Zero, fmt.Errorf("version %d: failed to parse LP coin store payload: %w", raw.Version, err)
		}
		return store.Coin.Value, nil
	}
	return decimal.Zero, fmt.Errorf("version %d: no LP coin store change for market %s", raw.Version, marketAddress)
}
