package writer

import (
	"strings"
	"testing"
)

// Backfill ranges can commit out of order, so every conflict update that
// tracks a cursor or nonce must refuse to move backwards. A watermark that
// rewinds would make the next live run re-apply additive upserts.
func TestUpsertsGuardAgainstStaleWrites(t *testing.T) {
	tests := []struct {
		name  string
		query string
		guard string
	}{
		{
			name:  "watermark",
			query: upsertWatermarkSQL,
			guard: "WHERE emojicoin_last_processed_transaction.version < EXCLUDED.version",
		},
		{
			name:  "processor status",
			query: upsertProcessorStatusSQL,
			guard: "WHERE processor_status.last_success_version < EXCLUDED.last_success_version",
		},
		{
			name:  "market latest state",
			query: upsertLatestStateSQL,
			guard: "WHERE market_latest_state_event.market_nonce <= EXCLUDED.market_nonce",
		},
		{
			name:  "user liquidity pools",
			query: upsertUserPoolSQL,
			guard: "WHERE user_liquidity_pools.market_nonce <= EXCLUDED.market_nonce",
		},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.query, tt.guard) {
			t.Errorf("%s upsert lost its staleness guard %q", tt.name, tt.guard)
		}
	}
}
