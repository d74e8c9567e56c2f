package writer

// Event tables are append-only. Reprocessing after a crash may replay rows
// that already landed, so every event insert tolerates conflicts on its
// natural key.

const insertSwapSQL = `
	INSERT INTO swap_events (
		transaction_version, sender, entry_function, transaction_timestamp,
		market_id, symbol_bytes, symbol_emojis, bump_time, market_nonce, trigger, market_address,
		swapper, integrator, integrator_fee, input_amount, is_sell, integrator_fee_rate_bps,
		net_proceeds, base_volume, quote_volume, avg_execution_price_q64, pool_fee,
		starts_in_bonding_curve, results_in_state_transition,
		clamm_virtual_reserves_base, clamm_virtual_reserves_quote,
		cpamm_real_reserves_base, cpamm_real_reserves_quote, lp_coin_supply,
		cumulative_stats_base_volume, cumulative_stats_quote_volume,
		cumulative_stats_integrator_fees, cumulative_stats_pool_fees_base,
		cumulative_stats_pool_fees_quote, cumulative_stats_n_swaps,
		cumulative_stats_n_chat_messages,
		instantaneous_stats_total_quote_locked, instantaneous_stats_total_value_locked,
		instantaneous_stats_market_cap, instantaneous_stats_fully_diluted_value,
		balance_as_fraction_of_circulating_supply_before_q64,
		balance_as_fraction_of_circulating_supply_after_q64,
		block_number, event_index
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32,
		$33, $34, $35, $36, $37, $38, $39, $40, $41, $42, $43, $44
	)
	ON CONFLICT (market_id, market_nonce) DO NOTHING
`

const insertChatSQL = `
	INSERT INTO chat_events (
		transaction_version, sender, entry_function, transaction_timestamp,
		market_id, symbol_bytes, symbol_emojis, bump_time, market_nonce, trigger, market_address,
		"user", message, user_emojicoin_balance, circulating_supply,
		balance_as_fraction_of_circulating_supply_q64,
		clamm_virtual_reserves_base, clamm_virtual_reserves_quote,
		cpamm_real_reserves_base, cpamm_real_reserves_quote, lp_coin_supply,
		cumulative_stats_base_volume, cumulative_stats_quote_volume,
		cumulative_stats_integrator_fees, cumulative_stats_pool_fees_base,
		cumulative_stats_pool_fees_quote, cumulative_stats_n_swaps,
		cumulative_stats_n_chat_messages,
		instantaneous_stats_total_quote_locked, instantaneous_stats_total_value_locked,
		instantaneous_stats_market_cap, instantaneous_stats_fully_diluted_value,
		last_swap_is_sell, last_swap_avg_execution_price_q64, last_swap_base_volume,
		last_swap_quote_volume, last_swap_nonce, last_swap_time,
		event_index
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32,
		$33, $34, $35, $36, $37, $38, $39
	)
	ON CONFLICT (market_id, market_nonce) DO NOTHING
`

const insertLiquiditySQL = `
	INSERT INTO liquidity_events (
		transaction_version, sender, entry_function, transaction_timestamp,
		market_id, symbol_bytes, symbol_emojis, bump_time, market_nonce, trigger, market_address,
		provider, base_amount, quote_amount, lp_coin_amount, liquidity_provided,
		base_donation_claim_amount, quote_donation_claim_amount,
		clamm_virtual_reserves_base, clamm_virtual_reserves_quote,
		cpamm_real_reserves_base, cpamm_real_reserves_quote, lp_coin_supply,
		cumulative_stats_base_volume, cumulative_stats_quote_volume,
		cumulative_stats_integrator_fees, cumulative_stats_pool_fees_base,
		cumulative_stats_pool_fees_quote, cumulative_stats_n_swaps,
		cumulative_stats_n_chat_messages,
		instantaneous_stats_total_quote_locked, instantaneous_stats_total_value_locked,
		instantaneous_stats_market_cap, instantaneous_stats_fully_diluted_value,
		last_swap_is_sell, last_swap_avg_execution_price_q64, last_swap_base_volume,
		last_swap_quote_volume, last_swap_nonce, last_swap_time,
		block_number, event_index
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32,
		$33, $34, $35, $36, $37, $38, $39, $40, $41, $42
	)
	ON CONFLICT (market_id, market_nonce) DO NOTHING
`

const insertRegistrationSQL = `
	INSERT INTO market_registration_events (
		transaction_version, sender, entry_function, transaction_timestamp,
		market_id, symbol_bytes, symbol_emojis, bump_time, market_nonce, trigger, market_address,
		registrant, integrator, integrator_fee, event_index
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)
	ON CONFLICT (market_id) DO NOTHING
`

const insertPeriodicStateSQL = `
	INSERT INTO periodic_state_events (
		transaction_version, sender, entry_function, transaction_timestamp,
		market_id, symbol_bytes, symbol_emojis, emit_time, market_nonce, trigger, market_address,
		last_swap_is_sell, last_swap_avg_execution_price_q64, last_swap_base_volume,
		last_swap_quote_volume, last_swap_nonce, last_swap_time,
		period, start_time,
		open_price_q64, high_price_q64, low_price_q64, close_price_q64,
		volume_base, volume_quote, integrator_fees, pool_fees_base, pool_fees_quote,
		n_swaps, n_chat_messages,
		starts_in_bonding_curve, ends_in_bonding_curve, tvl_per_lp_coin_growth_q64
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33
	)
	ON CONFLICT (market_id, period, market_nonce) DO NOTHING
`

const insertGlobalStateSQL = `
	INSERT INTO global_state_events (
		transaction_version, sender, entry_function, transaction_timestamp,
		emit_time, registry_nonce, trigger,
		cumulative_quote_volume, total_quote_locked, total_value_locked,
		market_cap, fully_diluted_value, cumulative_integrator_fees,
		cumulative_swaps, cumulative_chat_messages
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)
	ON CONFLICT (registry_nonce) DO NOTHING
`

// market_latest_state_event is a per-market upsert guarded by the monotonic
// nonce: a stale snapshot never overwrites a newer one.
const upsertLatestStateSQL = `
	INSERT INTO market_latest_state_event (
		transaction_version, sender, entry_function, transaction_timestamp,
		market_id, symbol_bytes, symbol_emojis, bump_time, market_nonce, trigger, market_address,
		clamm_virtual_reserves_base, clamm_virtual_reserves_quote,
		cpamm_real_reserves_base, cpamm_real_reserves_quote, lp_coin_supply,
		cumulative_stats_base_volume, cumulative_stats_quote_volume,
		cumulative_stats_integrator_fees, cumulative_stats_pool_fees_base,
		cumulative_stats_pool_fees_quote, cumulative_stats_n_swaps,
		cumulative_stats_n_chat_messages,
		instantaneous_stats_total_quote_locked, instantaneous_stats_total_value_locked,
		instantaneous_stats_market_cap, instantaneous_stats_fully_diluted_value,
		last_swap_is_sell, last_swap_avg_execution_price_q64, last_swap_base_volume,
		last_swap_quote_volume, last_swap_nonce, last_swap_time,
		daily_tvl_per_lp_coin_growth, in_bonding_curve,
		volume_in_1m_state_tracker, base_volume_in_1m_state_tracker
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32,
		$33, $34, $35, $36, $37
	)
	ON CONFLICT (market_id) DO UPDATE SET
		transaction_version = EXCLUDED.transaction_version,
		sender = EXCLUDED.sender,
		entry_function = EXCLUDED.entry_function,
		transaction_timestamp = EXCLUDED.transaction_timestamp,
		bump_time = EXCLUDED.bump_time,
		market_nonce = EXCLUDED.market_nonce,
		trigger = EXCLUDED.trigger,
		clamm_virtual_reserves_base = EXCLUDED.clamm_virtual_reserves_base,
		clamm_virtual_reserves_quote = EXCLUDED.clamm_virtual_reserves_quote,
		cpamm_real_reserves_base = EXCLUDED.cpamm_real_reserves_base,
		cpamm_real_reserves_quote = EXCLUDED.cpamm_real_reserves_quote,
		lp_coin_supply = EXCLUDED.lp_coin_supply,
		cumulative_stats_base_volume = EXCLUDED.cumulative_stats_base_volume,
		cumulative_stats_quote_volume = EXCLUDED.cumulative_stats_quote_volume,
		cumulative_stats_integrator_fees = EXCLUDED.cumulative_stats_integrator_fees,
		cumulative_stats_pool_fees_base = EXCLUDED.cumulative_stats_pool_fees_base,
		cumulative_stats_pool_fees_quote = EXCLUDED.cumulative_stats_pool_fees_quote,
		cumulative_stats_n_swaps = EXCLUDED.cumulative_stats_n_swaps,
		cumulative_stats_n_chat_messages = EXCLUDED.cumulative_stats_n_chat_messages,
		instantaneous_stats_total_quote_locked = EXCLUDED.instantaneous_stats_total_quote_locked,
		instantaneous_stats_total_value_locked = EXCLUDED.instantaneous_stats_total_value_locked,
		instantaneous_stats_market_cap = EXCLUDED.instantaneous_stats_market_cap,
		instantaneous_stats_fully_diluted_value = EXCLUDED.instantaneous_stats_fully_diluted_value,
		last_swap_is_sell = EXCLUDED.last_swap_is_sell,
		last_swap_avg_execution_price_q64 = EXCLUDED.last_swap_avg_execution_price_q64,
		last_swap_base_volume = EXCLUDED.last_swap_base_volume,
		last_swap_quote_volume = EXCLUDED.last_swap_quote_volume,
		last_swap_nonce = EXCLUDED.last_swap_nonce,
		last_swap_time = EXCLUDED.last_swap_time,
		daily_tvl_per_lp_coin_growth = EXCLUDED.daily_tvl_per_lp_coin_growth,
		in_bonding_curve = EXCLUDED.in_bonding_curve,
		volume_in_1m_state_tracker = EXCLUDED.volume_in_1m_state_tracker,
		base_volume_in_1m_state_tracker = EXCLUDED.base_volume_in_1m_state_tracker
	WHERE market_latest_state_event.market_nonce <= EXCLUDED.market_nonce
`

const upsertUserPoolSQL = `
	INSERT INTO user_liquidity_pools (
		provider, transaction_version, transaction_timestamp,
		market_id, symbol_bytes, symbol_emojis, bump_time, market_nonce, trigger, market_address,
		base_amount, quote_amount, lp_coin_amount, liquidity_provided,
		base_donation_claim_amount, quote_donation_claim_amount, lp_coin_balance
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
	)
	ON CONFLICT (provider, market_id) DO UPDATE SET
		transaction_version = EXCLUDED.transaction_version,
		transaction_timestamp = EXCLUDED.transaction_timestamp,
		bump_time = EXCLUDED.bump_time,
		market_nonce = EXCLUDED.market_nonce,
		trigger = EXCLUDED.trigger,
		base_amount = EXCLUDED.base_amount,
		quote_amount = EXCLUDED.quote_amount,
		lp_coin_amount = EXCLUDED.lp_coin_amount,
		liquidity_provided = EXCLUDED.liquidity_provided,
		base_donation_claim_amount = EXCLUDED.base_donation_claim_amount,
		quote_donation_claim_amount = EXCLUDED.quote_donation_claim_amount,
		lp_coin_balance = EXCLUDED.lp_coin_balance
	WHERE user_liquidity_pools.market_nonce <= EXCLUDED.market_nonce
`

const insertOneMinutePeriodSQL = `
	INSERT INTO market_1m_periods_in_last_day (
		market_id, nonce, transaction_version, volume, base_volume, start_time
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (market_id, nonce) DO NOTHING
`

const deleteStaleOneMinutePeriodsSQL = `
	DELETE FROM market_1m_periods_in_last_day
	WHERE start_time < now() - INTERVAL '1 day'
`

const deleteUnregisteredMarketSQL = `
	DELETE FROM unregistered_markets WHERE emojis = $1
`

const insertArenaMeleeSQL = `
	INSERT INTO arena_melee_events (
		transaction_version, event_index, sender, entry_function, transaction_timestamp,
		melee_id, emojicoin_0_market_address, emojicoin_1_market_address,
		start_time, duration, max_match_percentage, max_match_amount, available_rewards
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (melee_id) DO NOTHING
`

const insertArenaEnterSQL = `
	INSERT INTO arena_enter_events (
		transaction_version, event_index, sender, entry_function, transaction_timestamp,
		"user", melee_id, input_amount, quote_volume, integrator_fee, match_amount,
		emojicoin_0_proceeds, emojicoin_1_proceeds,
		emojicoin_0_exchange_rate_base, emojicoin_0_exchange_rate_quote,
		emojicoin_1_exchange_rate_base, emojicoin_1_exchange_rate_quote
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (transaction_version, event_index) DO NOTHING
`

const insertArenaExitSQL = `
	INSERT INTO arena_exit_events (
		transaction_version, event_index, sender, entry_function, transaction_timestamp,
		"user", melee_id, tap_out_fee,
		emojicoin_0_proceeds, emojicoin_1_proceeds, apt_proceeds,
		emojicoin_0_exchange_rate_base, emojicoin_0_exchange_rate_quote,
		emojicoin_1_exchange_rate_base, emojicoin_1_exchange_rate_quote,
		during_melee
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (transaction_version, event_index) DO NOTHING
`

const insertArenaSwapSQL = `
	INSERT INTO arena_swap_events (
		transaction_version, event_index, sender, entry_function, transaction_timestamp,
		"user", melee_id, quote_volume, integrator_fee,
		emojicoin_0_proceeds, emojicoin_1_proceeds,
		emojicoin_0_exchange_rate_base, emojicoin_0_exchange_rate_quote,
		emojicoin_1_exchange_rate_base, emojicoin_1_exchange_rate_quote,
		during_melee
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (transaction_version, event_index) DO NOTHING
`

const insertArenaVaultBalanceUpdateSQL = `
	INSERT INTO arena_vault_balance_update_events (
		transaction_version, event_index, sender, entry_function, transaction_timestamp,
		new_balance
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (transaction_version, event_index) DO NOTHING
`

// A melee row overwrites its competition parameters on conflict but only
// ever adds to rewards_remaining, because vault deposits can land before the
// insert replays.
const insertArenaInfoSQL = `
	INSERT INTO arena_info (
		melee_id, last_transaction_version, volume, rewards_remaining,
		emojicoin_0_locked, emojicoin_1_locked,
		emojicoin_0_market_address, emojicoin_1_market_address,
		emojicoin_0_market_id, emojicoin_1_market_id,
		emojicoin_0_symbols, emojicoin_1_symbols,
		start_time, duration, max_match_percentage, max_match_amount
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (melee_id) DO UPDATE SET
		last_transaction_version = EXCLUDED.last_transaction_version,
		rewards_remaining = arena_info.rewards_remaining + EXCLUDED.rewards_remaining,
		emojicoin_0_market_address = EXCLUDED.emojicoin_0_market_address,
		emojicoin_1_market_address = EXCLUDED.emojicoin_1_market_address,
		emojicoin_0_market_id = EXCLUDED.emojicoin_0_market_id,
		emojicoin_1_market_id = EXCLUDED.emojicoin_1_market_id,
		emojicoin_0_symbols = EXCLUDED.emojicoin_0_symbols,
		emojicoin_1_symbols = EXCLUDED.emojicoin_1_symbols,
		start_time = EXCLUDED.start_time,
		duration = EXCLUDED.duration,
		max_match_percentage = EXCLUDED.max_match_percentage,
		max_match_amount = EXCLUDED.max_match_amount
`

// Merged per-melee diffs apply additively.
const updateArenaInfoSQL = `
	INSERT INTO arena_info (
		melee_id, last_transaction_version, volume, rewards_remaining,
		emojicoin_0_locked, emojicoin_1_locked
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (melee_id) DO UPDATE SET
		last_transaction_version = EXCLUDED.last_transaction_version,
		volume = arena_info.volume + EXCLUDED.volume,
		rewards_remaining = arena_info.rewards_remaining + EXCLUDED.rewards_remaining,
		emojicoin_0_locked = arena_info.emojicoin_0_locked + EXCLUDED.emojicoin_0_locked,
		emojicoin_1_locked = arena_info.emojicoin_1_locked + EXCLUDED.emojicoin_1_locked
`

// Merged per-(user, melee) diffs: balances and amounts sum, open overwrites,
// and a null last_exit_0 keeps the stored value.
const upsertArenaPositionSQL = `
	INSERT INTO arena_position (
		"user", last_transaction_version, melee_id, open,
		emojicoin_0_balance, emojicoin_1_balance,
		withdrawals, deposits, match_amount, last_exit_0
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT ("user", melee_id) DO UPDATE SET
		last_transaction_version = EXCLUDED.last_transaction_version,
		open = EXCLUDED.open,
		emojicoin_0_balance = arena_position.emojicoin_0_balance + EXCLUDED.emojicoin_0_balance,
		emojicoin_1_balance = arena_position.emojicoin_1_balance + EXCLUDED.emojicoin_1_balance,
		withdrawals = arena_position.withdrawals + EXCLUDED.withdrawals,
		deposits = arena_position.deposits + EXCLUDED.deposits,
		match_amount = arena_position.match_amount + EXCLUDED.match_amount,
		last_exit_0 = COALESCE(EXCLUDED.last_exit_0, arena_position.last_exit_0)
`

// Candlestick upserts return the merged row so subscribers receive the
// candlestick as it now stands, not just this batch's contribution. A null
// open keeps the stored open; high/low fold the stored value in before
// comparing so a null stored price never wins.
const upsertCandlestickSQL = `
	INSERT INTO candlesticks (
		market_id, last_transaction_version, period, start_time,
		open_price, high_price, low_price, close_price, volume, symbol_emojis
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (market_id, period, start_time) DO UPDATE SET
		last_transaction_version = EXCLUDED.last_transaction_version,
		open_price = COALESCE(candlesticks.open_price, EXCLUDED.open_price),
		high_price = GREATEST(COALESCE(candlesticks.high_price, EXCLUDED.high_price), EXCLUDED.high_price),
		low_price = LEAST(COALESCE(candlesticks.low_price, EXCLUDED.low_price), EXCLUDED.low_price),
		close_price = EXCLUDED.close_price,
		volume = candlesticks.volume + EXCLUDED.volume
	RETURNING market_id, last_transaction_version, period, start_time,
		open_price, high_price, low_price, close_price, volume, symbol_emojis
`

const upsertArenaCandlestickSQL = `
	INSERT INTO arena_candlesticks (
		melee_id, last_transaction_version, period, start_time,
		open_price, high_price, low_price, close_price, volume, n_swaps
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (melee_id, period, start_time) DO UPDATE SET
		last_transaction_version = EXCLUDED.last_transaction_version,
		open_price = COALESCE(arena_candlesticks.open_price, EXCLUDED.open_price),
		high_price = GREATEST(COALESCE(arena_candlesticks.high_price, EXCLUDED.high_price), EXCLUDED.high_price),
		low_price = LEAST(COALESCE(arena_candlesticks.low_price, EXCLUDED.low_price), EXCLUDED.low_price),
		close_price = EXCLUDED.close_price,
		volume = arena_candlesticks.volume + EXCLUDED.volume,
		n_swaps = arena_candlesticks.n_swaps + EXCLUDED.n_swaps
	RETURNING melee_id, last_transaction_version, period, start_time,
		open_price, high_price, low_price, close_price, volume, n_swaps
`

const updateLeaderboardExitSQL = `
	UPDATE arena_leaderboard_history SET
		exited = true,
		last_transaction_version = $3,
		last_exit_0 = $4
	WHERE melee_id = $1 AND "user" = $2
`

// Snapshot of a finished melee's positions into the leaderboard history.
// Profits value the remaining balances at the melee's final prices;
// losses are the total deposits.
const insertLeaderboardSnapshotSQL = `
	INSERT INTO arena_leaderboard_history (
		"user", last_transaction_version, melee_id, profits, losses,
		emojicoin_0_balance, emojicoin_1_balance, exited, last_exit_0, withdrawals
	)
	SELECT
		"user",
		$4,
		melee_id,
		ROUND(withdrawals + emojicoin_0_balance * $2 + emojicoin_1_balance * $3, 0),
		deposits,
		emojicoin_0_balance,
		emojicoin_1_balance,
		NOT open,
		last_exit_0,
		withdrawals
	FROM arena_position
	WHERE melee_id = $1
	ON CONFLICT ("user", melee_id) DO NOTHING
`

// The watermark only moves forward. Backfill ranges can commit out of
// order; a stale range must not rewind the resume point for cmd/indexer.
const upsertWatermarkSQL = `
	INSERT INTO emojicoin_last_processed_transaction (id, version)
	VALUES (1, $1)
	ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version
	WHERE emojicoin_last_processed_transaction.version < EXCLUDED.version
`

const upsertProcessorStatusSQL = `
	INSERT INTO processor_status (processor, last_success_version, last_transaction_timestamp)
	VALUES ($1, $2, $3)
	ON CONFLICT (processor) DO UPDATE SET
		last_success_version = EXCLUDED.last_success_version,
		last_updated = now(),
		last_transaction_timestamp = EXCLUDED.last_transaction_timestamp
	WHERE processor_status.last_success_version < EXCLUDED.last_success_version
`
