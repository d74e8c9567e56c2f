// Package writer persists processed batches to PostgreSQL.
//
// One processed batch maps to exactly one database transaction: the event
// table inserts, the diff-backed upserts and the advanced version watermark
// commit together or not at all. Candlestick upserts read back the merged
// rows so subscribers can be sent the full row, not just the delta.
package writer
