// Package metrics provides Prometheus collectors for the indexer pipeline.
//
// Key metrics:
//   - batches and transactions processed, rows written per table
//   - storage transaction duration and last committed version
//   - feed reconnects and detected version gaps
//   - derived-event publish volume and slow-subscriber drops
package metrics
