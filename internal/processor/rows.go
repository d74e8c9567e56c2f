package processor

import (
	"time"

	"github.com/emojicoin/indexer/internal/model"
)

// Rows is everything one processed batch writes in a single database
// transaction. Diff-backed tables (candlesticks, arena positions, arena
// info) are already merged down to one entry per natural key.
type Rows struct {
	FirstVersion  int64
	LastVersion   int64
	LastTimestamp time.Time

	Registrations  []*model.MarketRegistrationRow
	Swaps          []*model.SwapRow
	Chats          []*model.ChatRow
	Liquidity      []*model.LiquidityRow
	PeriodicStates []*model.PeriodicStateRow
	GlobalStates   []*model.GlobalStateRow

	LatestStates     []*model.MarketLatestState
	OneMinutePeriods []*model.MarketOneMinutePeriodRow
	UserPools        []*model.UserLiquidityPoolRow
	Candlesticks     []*model.Candlestick

	// Symbol bytes of markets registered in this batch, removed from the
	// unregistered markets table.
	RegisteredSymbols [][]byte

	ArenaMelees              []*model.ArenaMeleeRow
	ArenaEnters              []*model.ArenaEnterRow
	ArenaExits               []*model.ArenaExitRow
	ArenaSwaps               []*model.ArenaSwapRow
	ArenaVaultBalanceUpdates []*model.ArenaVaultBalanceUpdateRow

	ArenaInfos                []*model.ArenaInfo
	ArenaInfoDiffs            []*model.ArenaInfoDiff
	ArenaPositions            []*model.ArenaPositionDiff
	ArenaCandlesticks         []*model.ArenaCandlestick
	ArenaLeaderboardSnapshots []*model.ArenaLeaderboardSnapshot
	ArenaLeaderboardExits     []*model.ArenaLeaderboardExitUpdate
}

// Empty reports whether the batch produced no rows at all. The version
// watermark still advances for empty batches.
func (r *Rows) Empty() bool {
	return len(r.Registrations) == 0 &&
		len(r.Swaps) == 0 &&
		len(r.Chats) == 0 &&
		len(r.Liquidity) == 0 &&
		len(r.PeriodicStates) == 0 &&
		len(r.GlobalStates) == 0 &&
		len(r.LatestStates) == 0 &&
		len(r.OneMinutePeriods) == 0 &&
		len(r.UserPools) == 0 &&
		len(r.Candlesticks) == 0 &&
		len(r.ArenaMelees) == 0 &&
		len(r.ArenaEnters) == 0 &&
		len(r.ArenaExits) == 0 &&
		len(r.ArenaSwaps) == 0 &&
		len(r.ArenaVaultBalanceUpdates) == 0 &&
		len(r.ArenaInfos) == 0 &&
		len(r.ArenaInfoDiffs) == 0 &&
		len(r.ArenaPositions) == 0 &&
		len(r.ArenaCandlesticks) == 0
}
