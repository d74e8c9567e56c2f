// Package model defines the row models written to storage and the diff
// models that precede them.
//
// A diff model carries the incremental change one event contributes to an
// aggregate, not the aggregate's value after the event. Diffs of one kind
// merge associatively by natural key, so a batch writes at most one row per
// key and the merge result is independent of the order diffs were produced.
//
// Conventions:
//   - On-chain integer amounts (u64/u128) are decimal.Decimal
//   - Prices are decimal.Decimal, rounded half-even to 16 significant digits
//     before persisting
//   - Market/melee ids and nonces are uint64
//   - Timestamps are UTC time.Time
package model
