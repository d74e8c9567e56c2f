// Package event defines the typed protocol events emitted by the emojicoin
// and emojicoin arena Move modules, the classifier that maps raw on-chain
// (type tag, JSON payload) pairs onto them, and the per-transaction event
// grouping logic.
//
// Classification is a total function over a closed tag table: a tag that does
// not belong to the configured module addresses yields nil (the transaction
// stream carries unrelated traffic, so this is expected), while a matching
// tag with a payload that fails to parse is an error that aborts the whole
// batch — a matching tag guarantees a matching shape unless the protocol
// was upgraded.
package event
