package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/model"
	"github.com/emojicoin/indexer/internal/processor"
)

// ProcessorName is the identity recorded in processor_status.
const ProcessorName = "emojicoin"

// Result is what WriteBatch hands back for publishing: the candlestick rows
// as they stand after the merge with previously persisted state, not just
// this batch's contribution.
type Result struct {
	Candlesticks      []*model.Candlestick
	ArenaCandlesticks []*model.ArenaCandlestick
}

// Writer persists one processed batch per database transaction. Either every
// row of a batch lands together with the advanced version watermark, or none
// of it does.
type Writer struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Writer on the given pool.
func New(db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{db: db, logger: logger}
}

// WriteBatch writes all rows of one batch in a single transaction and
// advances the watermark to the batch's last version. Upserted candlesticks
// come back merged for downstream publishing.
func (w *Writer) WriteBatch(ctx context.Context, rows *processor.Rows) (*Result, error) {
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := w.insertEvents(ctx, tx, rows); err != nil {
		return nil, err
	}
	if err := w.upsertAggregates(ctx, tx, rows); err != nil {
		return nil, err
	}
	if err := w.insertArenaEvents(ctx, tx, rows); err != nil {
		return nil, err
	}
	if err := w.upsertArenaAggregates(ctx, tx, rows); err != nil {
		return nil, err
	}

	result := &Result{}
	result.Candlesticks, err = w.upsertCandlesticks(ctx, tx, rows.Candlesticks)
	if err != nil {
		return nil, err
	}
	result.ArenaCandlesticks, err = w.upsertArenaCandlesticks(ctx, tx, rows.ArenaCandlesticks)
	if err != nil {
		return nil, err
	}

	// Exits that arrived after a melee ended flip the already snapshotted
	// leaderboard rows; they must land before this batch's snapshots so a
	// snapshot taken in the same batch is not clobbered.
	if err := w.updateLeaderboard(ctx, tx, rows); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, upsertWatermarkSQL, rows.LastVersion); err != nil {
		return nil, fmt.Errorf("advance watermark to %d: %w", rows.LastVersion, err)
	}
	if _, err := tx.Exec(ctx, upsertProcessorStatusSQL,
		ProcessorName, rows.LastVersion, rows.LastTimestamp); err != nil {
		return nil, fmt.Errorf("update processor status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit batch %d..%d: %w", rows.FirstVersion, rows.LastVersion, err)
	}

	w.logger.Debug("wrote batch",
		"first_version", rows.FirstVersion,
		"last_version", rows.LastVersion,
		"candlesticks", len(result.Candlesticks),
		"arena_candlesticks", len(result.ArenaCandlesticks),
		"duration", time.Since(start),
	)
	return result, nil
}

// insertEvents queues the append-only event table inserts.
func (w *Writer) insertEvents(ctx context.Context, tx pgx.Tx, rows *processor.Rows) error {
	batch := &pgx.Batch{}

	for _, r := range rows.Registrations {
		batch.Queue(insertRegistrationSQL,
			r.TransactionVersion, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.MarketID, r.SymbolBytes, r.SymbolEmojis, r.BumpTime, r.MarketNonce,
			r.Trigger.DBName(), r.MarketAddress,
			r.Registrant, r.Integrator, r.IntegratorFee, r.EventIndex,
		)
	}
	for _, r := range rows.Swaps {
		batch.Queue(insertSwapSQL,
			r.TransactionVersion, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.MarketID, r.SymbolBytes, r.SymbolEmojis, r.BumpTime, r.MarketNonce,
			r.Trigger.DBName(), r.MarketAddress,
			r.Swapper, r.Integrator, r.IntegratorFee, r.InputAmount, r.IsSell,
			r.IntegratorFeeRateBPs, r.NetProceeds, r.BaseVolume, r.QuoteVolume,
			r.AvgExecutionPriceQ64, r.PoolFee,
			r.StartsInBondingCurve, r.ResultsInStateTransition,
			r.ClammVirtualReservesBase, r.ClammVirtualReservesQuote,
			r.CpammRealReservesBase, r.CpammRealReservesQuote, r.LPCoinSupply,
			r.CumulativeStatsBaseVolume, r.CumulativeStatsQuoteVolume,
			r.CumulativeStatsIntegratorFees, r.CumulativeStatsPoolFeesBase,
			r.CumulativeStatsPoolFeesQuote, r.CumulativeStatsNSwaps,
			r.CumulativeStatsNChatMessages,
			r.InstantaneousStatsTotalQuoteLocked, r.InstantaneousStatsTotalValueLocked,
			r.InstantaneousStatsMarketCap, r.InstantaneousStatsFullyDilutedValue,
			r.BalanceAsFractionOfCirculatingSupplyBeforeQ64,
			r.BalanceAsFractionOfCirculatingSupplyAfterQ64,
			r.BlockNumber, r.EventIndex,
		)
	}
	for _, r := range rows.Chats {
		batch.Queue(insertChatSQL,
			r.TransactionVersion, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.MarketID, r.SymbolBytes, r.SymbolEmojis, r.BumpTime, r.MarketNonce,
			r.Trigger.DBName(), r.MarketAddress,
			r.User, r.Message, r.UserEmojicoinBalance, r.CirculatingSupply,
			r.BalanceAsFractionOfCirculatingSupplyQ64,
			r.ClammVirtualReservesBase, r.ClammVirtualReservesQuote,
			r.CpammRealReservesBase, r.CpammRealReservesQuote, r.LPCoinSupply,
			r.CumulativeStatsBaseVolume, r.CumulativeStatsQuoteVolume,
			r.CumulativeStatsIntegratorFees, r.CumulativeStatsPoolFeesBase,
			r.CumulativeStatsPoolFeesQuote, r.CumulativeStatsNSwaps,
			r.CumulativeStatsNChatMessages,
			r.InstantaneousStatsTotalQuoteLocked, r.InstantaneousStatsTotalValueLocked,
			r.InstantaneousStatsMarketCap, r.InstantaneousStatsFullyDilutedValue,
			r.LastSwapIsSell, r.LastSwapAvgExecutionPriceQ64, r.LastSwapBaseVolume,
			r.LastSwapQuoteVolume, r.LastSwapNonce, r.LastSwapTime,
			r.EventIndex,
		)
	}
	for _, r := range rows.Liquidity {
		batch.Queue(insertLiquiditySQL,
			r.TransactionVersion, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.MarketID, r.SymbolBytes, r.SymbolEmojis, r.BumpTime, r.MarketNonce,
			r.Trigger.DBName(), r.MarketAddress,
			r.Provider, r.BaseAmount, r.QuoteAmount, r.LPCoinAmount,
			r.LiquidityProvided, r.BaseDonationClaimAmount, r.QuoteDonationClaimAmount,
			r.ClammVirtualReservesBase, r.ClammVirtualReservesQuote,
			r.CpammRealReservesBase, r.CpammRealReservesQuote, r.LPCoinSupply,
			r.CumulativeStatsBaseVolume, r.CumulativeStatsQuoteVolume,
			r.CumulativeStatsIntegratorFees, r.CumulativeStatsPoolFeesBase,
			r.CumulativeStatsPoolFeesQuote, r.CumulativeStatsNSwaps,
			r.CumulativeStatsNChatMessages,
			r.InstantaneousStatsTotalQuoteLocked, r.InstantaneousStatsTotalValueLocked,
			r.InstantaneousStatsMarketCap, r.InstantaneousStatsFullyDilutedValue,
			r.LastSwapIsSell, r.LastSwapAvgExecutionPriceQ64, r.LastSwapBaseVolume,
			r.LastSwapQuoteVolume, r.LastSwapNonce, r.LastSwapTime,
			r.BlockNumber, r.EventIndex,
		)
	}
	for _, r := range rows.PeriodicStates {
		batch.Queue(insertPeriodicStateSQL,
			r.TransactionVersion, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.MarketID, r.SymbolBytes, r.SymbolEmojis, r.EmitTime, r.MarketNonce,
			r.Trigger.DBName(), r.MarketAddress,
			r.LastSwapIsSell, r.LastSwapAvgExecutionPriceQ64, r.LastSwapBaseVolume,
			r.LastSwapQuoteVolume, r.LastSwapNonce, r.LastSwapTime,
			r.Period.DBName(), r.StartTime,
			r.OpenPriceQ64, r.HighPriceQ64, r.LowPriceQ64, r.ClosePriceQ64,
			r.VolumeBase, r.VolumeQuote, r.IntegratorFees, r.PoolFeesBase, r.PoolFeesQuote,
			r.NSwaps, r.NChatMessages,
			r.StartsInBondingCurve, r.EndsInBondingCurve, r.TVLPerLPCoinGrowthQ64,
		)
	}
	for _, r := range rows.GlobalStates {
		batch.Queue(insertGlobalStateSQL,
			r.TransactionVersion, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.EmitTime, r.RegistryNonce, r.Trigger.DBName(),
			r.CumulativeQuoteVolume, r.TotalQuoteLocked, r.TotalValueLocked,
			r.MarketCap, r.FullyDilutedValue, r.CumulativeIntegratorFees,
			r.CumulativeSwaps, r.CumulativeChatMessages,
		)
	}

	return w.sendBatch(ctx, tx, batch, "event inserts")
}

// upsertAggregates queues the derived market tables: latest state, 1-minute
// periods, user liquidity pools and the unregistered markets cleanup.
func (w *Writer) upsertAggregates(ctx context.Context, tx pgx.Tx, rows *processor.Rows) error {
	batch := &pgx.Batch{}

	for _, r := range rows.LatestStates {
		batch.Queue(upsertLatestStateSQL,
			r.TransactionVersion, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.MarketID, r.SymbolBytes, r.SymbolEmojis, r.BumpTime, r.MarketNonce,
			r.Trigger.DBName(), r.MarketAddress,
			r.ClammVirtualReservesBase, r.ClammVirtualReservesQuote,
			r.CpammRealReservesBase, r.CpammRealReservesQuote, r.LPCoinSupply,
			r.CumulativeStatsBaseVolume, r.CumulativeStatsQuoteVolume,
			r.CumulativeStatsIntegratorFees, r.CumulativeStatsPoolFeesBase,
			r.CumulativeStatsPoolFeesQuote, r.CumulativeStatsNSwaps,
			r.CumulativeStatsNChatMessages,
			r.InstantaneousStatsTotalQuoteLocked, r.InstantaneousStatsTotalValueLocked,
			r.InstantaneousStatsMarketCap, r.InstantaneousStatsFullyDilutedValue,
			r.LastSwapIsSell, r.LastSwapAvgExecutionPriceQ64, r.LastSwapBaseVolume,
			r.LastSwapQuoteVolume, r.LastSwapNonce, r.LastSwapTime,
			r.DailyTVLPerLPCoinGrowth, r.InBondingCurve,
			r.VolumeIn1MStateTracker, r.BaseVolumeIn1MStateTracker,
		)
	}
	for _, r := range rows.OneMinutePeriods {
		batch.Queue(insertOneMinutePeriodSQL,
			r.MarketID, r.Nonce, r.TransactionVersion, r.Volume, r.BaseVolume, r.StartTime,
		)
	}
	if len(rows.OneMinutePeriods) > 0 {
		batch.Queue(deleteStaleOneMinutePeriodsSQL)
	}
	for _, r := range rows.UserPools {
		batch.Queue(upsertUserPoolSQL,
			r.Provider, r.TransactionVersion, r.TransactionTimestamp,
			r.MarketID, r.SymbolBytes, r.SymbolEmojis, r.BumpTime, r.MarketNonce,
			r.Trigger.DBName(), r.MarketAddress,
			r.BaseAmount, r.QuoteAmount, r.LPCoinAmount, r.LiquidityProvided,
			r.BaseDonationClaimAmount, r.QuoteDonationClaimAmount, r.LPCoinBalance,
		)
	}
	for _, symbolBytes := range rows.RegisteredSymbols {
		batch.Queue(deleteUnregisteredMarketSQL, symbolBytes)
	}

	return w.sendBatch(ctx, tx, batch, "market aggregates")
}

// insertArenaEvents queues the append-only arena event table inserts.
func (w *Writer) insertArenaEvents(ctx context.Context, tx pgx.Tx, rows *processor.Rows) error {
	batch := &pgx.Batch{}

	for _, r := range rows.ArenaMelees {
		batch.Queue(insertArenaMeleeSQL,
			r.TransactionVersion, r.EventIndex, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.MeleeID, r.Emojicoin0MarketAddress, r.Emojicoin1MarketAddress,
			r.StartTime, r.Duration, r.MaxMatchPercentage, r.MaxMatchAmount, r.AvailableRewards,
		)
	}
	for _, r := range rows.ArenaEnters {
		batch.Queue(insertArenaEnterSQL,
			r.TransactionVersion, r.EventIndex, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.User, r.MeleeID, r.InputAmount, r.QuoteVolume, r.IntegratorFee, r.MatchAmount,
			r.Emojicoin0Proceeds, r.Emojicoin1Proceeds,
			r.Emojicoin0ExchangeRateBase, r.Emojicoin0ExchangeRateQuote,
			r.Emojicoin1ExchangeRateBase, r.Emojicoin1ExchangeRateQuote,
		)
	}
	for _, r := range rows.ArenaExits {
		batch.Queue(insertArenaExitSQL,
			r.TransactionVersion, r.EventIndex, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.User, r.MeleeID, r.TapOutFee,
			r.Emojicoin0Proceeds, r.Emojicoin1Proceeds, r.AptProceeds,
			r.Emojicoin0ExchangeRateBase, r.Emojicoin0ExchangeRateQuote,
			r.Emojicoin1ExchangeRateBase, r.Emojicoin1ExchangeRateQuote,
			r.DuringMelee,
		)
	}
	for _, r := range rows.ArenaSwaps {
		batch.Queue(insertArenaSwapSQL,
			r.TransactionVersion, r.EventIndex, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.User, r.MeleeID, r.QuoteVolume, r.IntegratorFee,
			r.Emojicoin0Proceeds, r.Emojicoin1Proceeds,
			r.Emojicoin0ExchangeRateBase, r.Emojicoin0ExchangeRateQuote,
			r.Emojicoin1ExchangeRateBase, r.Emojicoin1ExchangeRateQuote,
			r.DuringMelee,
		)
	}
	for _, r := range rows.ArenaVaultBalanceUpdates {
		batch.Queue(insertArenaVaultBalanceUpdateSQL,
			r.TransactionVersion, r.EventIndex, r.Sender, r.EntryFunction, r.TransactionTimestamp,
			r.NewBalance,
		)
	}

	return w.sendBatch(ctx, tx, batch, "arena event inserts")
}

// upsertArenaAggregates queues arena info rows and diffs plus position diffs.
// New melee rows must land before diff updates touch the same melee.
func (w *Writer) upsertArenaAggregates(ctx context.Context, tx pgx.Tx, rows *processor.Rows) error {
	batch := &pgx.Batch{}

	for _, r := range rows.ArenaInfos {
		batch.Queue(insertArenaInfoSQL,
			r.MeleeID, r.LastTransactionVersion, r.Volume, r.RewardsRemaining,
			r.Emojicoin0Locked, r.Emojicoin1Locked,
			r.Emojicoin0MarketAddress, r.Emojicoin1MarketAddress,
			r.Emojicoin0MarketID, r.Emojicoin1MarketID,
			r.Emojicoin0Symbols, r.Emojicoin1Symbols,
			r.StartTime, r.Duration, r.MaxMatchPercentage, r.MaxMatchAmount,
		)
	}
	for _, r := range rows.ArenaInfoDiffs {
		batch.Queue(updateArenaInfoSQL,
			r.MeleeID, r.LastTransactionVersion, r.Volume, r.RewardsRemaining,
			r.Emojicoin0Locked, r.Emojicoin1Locked,
		)
	}
	for _, r := range rows.ArenaPositions {
		batch.Queue(upsertArenaPositionSQL,
			r.User, r.LastTransactionVersion, r.MeleeID, r.Open,
			r.Emojicoin0Balance, r.Emojicoin1Balance,
			r.Withdrawals, r.Deposits, r.MatchAmount, r.LastExit0,
		)
	}

	return w.sendBatch(ctx, tx, batch, "arena aggregates")
}

// upsertCandlesticks applies the merged diffs and reads back the rows as
// merged with any previously persisted state.
func (w *Writer) upsertCandlesticks(ctx context.Context, tx pgx.Tx, sticks []*model.Candlestick) ([]*model.Candlestick, error) {
	merged := make([]*model.Candlestick, 0, len(sticks))
	for _, c := range sticks {
		row := tx.QueryRow(ctx, upsertCandlestickSQL,
			c.MarketID, c.LastTransactionVersion, c.Period.DBName(), c.StartTime,
			c.OpenPrice, c.HighPrice, c.LowPrice, c.ClosePrice, c.Volume, c.SymbolEmojis,
		)
		out, err := scanCandlestick(row)
		if err != nil {
			return nil, fmt.Errorf("upsert candlestick market %d %s: %w", c.MarketID, c.Period, err)
		}
		merged = append(merged, out)
	}
	return merged, nil
}

func scanCandlestick(row pgx.Row) (*model.Candlestick, error) {
	var (
		c      model.Candlestick
		period string
		open   decimal.NullDecimal
		high   decimal.NullDecimal
		low    decimal.NullDecimal
	)
	if err := row.Scan(
		&c.MarketID, &c.LastTransactionVersion, &period, &c.StartTime,
		&open, &high, &low, &c.ClosePrice, &c.Volume, &c.SymbolEmojis,
	); err != nil {
		return nil, err
	}
	p, err := event.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	c.Period = p
	c.OpenPrice = open.Decimal
	c.HighPrice = high.Decimal
	c.LowPrice = low.Decimal
	return &c, nil
}

// upsertArenaCandlesticks is the arena counterpart of upsertCandlesticks.
func (w *Writer) upsertArenaCandlesticks(ctx context.Context, tx pgx.Tx, sticks []*model.ArenaCandlestick) ([]*model.ArenaCandlestick, error) {
	merged := make([]*model.ArenaCandlestick, 0, len(sticks))
	for _, c := range sticks {
		row := tx.QueryRow(ctx, upsertArenaCandlestickSQL,
			c.MeleeID, c.LastTransactionVersion, c.Period.DBName(), c.StartTime,
			c.OpenPrice, c.HighPrice, c.LowPrice, c.ClosePrice, c.Volume, c.NSwaps,
		)
		out, err := scanArenaCandlestick(row)
		if err != nil {
			return nil, fmt.Errorf("upsert arena candlestick melee %d %s: %w", c.MeleeID, c.Period, err)
		}
		merged = append(merged, out)
	}
	return merged, nil
}

func scanArenaCandlestick(row pgx.Row) (*model.ArenaCandlestick, error) {
	var (
		c      model.ArenaCandlestick
		period string
		open   decimal.NullDecimal
		high   decimal.NullDecimal
		low    decimal.NullDecimal
	)
	if err := row.Scan(
		&c.MeleeID, &c.LastTransactionVersion, &period, &c.StartTime,
		&open, &high, &low, &c.ClosePrice, &c.Volume, &c.NSwaps,
	); err != nil {
		return nil, err
	}
	p, err := event.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	c.Period = p
	c.OpenPrice = open.Decimal
	c.HighPrice = high.Decimal
	c.LowPrice = low.Decimal
	return &c, nil
}

// updateLeaderboard applies post-melee exit flips and then snapshots any
// melees that ended in this batch.
func (w *Writer) updateLeaderboard(ctx context.Context, tx pgx.Tx, rows *processor.Rows) error {
	batch := &pgx.Batch{}

	for _, r := range rows.ArenaLeaderboardExits {
		batch.Queue(updateLeaderboardExitSQL,
			r.MeleeID, r.User, r.TransactionVersion, r.LastExit0,
		)
	}
	for _, r := range rows.ArenaLeaderboardSnapshots {
		batch.Queue(insertLeaderboardSnapshotSQL,
			r.MeleeID, r.Emojicoin0Price, r.Emojicoin1Price, r.LastTransactionVersion,
		)
	}

	return w.sendBatch(ctx, tx, batch, "leaderboard updates")
}

// sendBatch runs a queued pgx batch inside the transaction and surfaces the
// first statement error.
func (w *Writer) sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("%s (statement %d of %d): %w", what, i+1, batch.Len(), err)
		}
	}
	return results.Close()
}
