package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/processor"
)

// Store is the read surface over the indexer's own tables. It backs the
// processor's startup loads and in-flight melee market resolution.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a Store on the given pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LastProcessedVersion returns the committed version watermark, or 0 when
// nothing has ever been processed.
func (s *Store) LastProcessedVersion(ctx context.Context) (int64, error) {
	var version int64
	err := s.db.QueryRow(ctx,
		`SELECT version FROM emojicoin_last_processed_transaction WHERE id = 1`,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read version watermark: %w", err)
	}
	return version, nil
}

// ActiveMelee returns the latest melee and the current curve prices of its
// two markets, or nil when no melee has ever started.
func (s *Store) ActiveMelee(ctx context.Context) (*processor.MeleeState, error) {
	var melee processor.MeleeState
	err := s.db.QueryRow(ctx, `
		SELECT melee_id, emojicoin_0_market_id, emojicoin_1_market_id
		FROM arena_info
		ORDER BY melee_id DESC
		LIMIT 1
	`).Scan(&melee.MeleeID, &melee.MarketID0, &melee.MarketID1)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest melee: %w", err)
	}

	melee.Price0, err = s.marketPrice(ctx, melee.MarketID0)
	if err != nil {
		return nil, fmt.Errorf("melee %d market 0: %w", melee.MeleeID, err)
	}
	melee.Price1, err = s.marketPrice(ctx, melee.MarketID1)
	if err != nil {
		return nil, fmt.Errorf("melee %d market 1: %w", melee.MeleeID, err)
	}
	return &melee, nil
}

// MarketDataByAddress resolves a market address to its id, symbols and
// current curve price.
func (s *Store) MarketDataByAddress(ctx context.Context, marketAddress string) (*processor.MarketData, error) {
	var (
		data     processor.MarketData
		reserves reserves
	)
	err := s.db.QueryRow(ctx, `
		SELECT market_id, symbol_emojis,
			clamm_virtual_reserves_base, clamm_virtual_reserves_quote,
			cpamm_real_reserves_base, cpamm_real_reserves_quote, lp_coin_supply
		FROM market_latest_state_event
		WHERE market_address = $1
	`, marketAddress).Scan(
		&data.MarketID, &data.SymbolEmojis,
		&reserves.clammBase, &reserves.clammQuote,
		&reserves.cpammBase, &reserves.cpammQuote, &reserves.lpCoinSupply,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("market %s has no latest state row", marketAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("read market %s: %w", marketAddress, err)
	}
	data.Price = reserves.curvePrice()
	return &data, nil
}

func (s *Store) marketPrice(ctx context.Context, marketID uint64) (decimal.Decimal, error) {
	var r reserves
	err := s.db.QueryRow(ctx, `
		SELECT clamm_virtual_reserves_base, clamm_virtual_reserves_quote,
			cpamm_real_reserves_base, cpamm_real_reserves_quote, lp_coin_supply
		FROM market_latest_state_event
		WHERE market_id = $1
	`, marketID).Scan(
		&r.clammBase, &r.clammQuote, &r.cpammBase, &r.cpammQuote, &r.lpCoinSupply,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("market %d has no latest state row", marketID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read market %d price: %w", marketID, err)
	}
	return r.curvePrice(), nil
}

type reserves struct {
	clammBase    decimal.Decimal
	clammQuote   decimal.Decimal
	cpammBase    decimal.Decimal
	cpammQuote   decimal.Decimal
	lpCoinSupply decimal.Decimal
}

// curvePrice mirrors the on-chain pricing: the virtual CLAMM reserves price
// the bonding curve, the real CPAMM reserves price the post-transition pool.
func (r reserves) curvePrice() decimal.Decimal {
	if r.lpCoinSupply.IsZero() {
		return r.clammQuote.Div(r.clammBase)
	}
	return r.cpammQuote.Div(r.cpammBase)
}
