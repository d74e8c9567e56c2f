// Package processor turns batches of raw feed transactions into the row set
// persisted for that batch. Each batch is processed sequentially: events are
// classified, grouped per (market, nonce), and reduced into diff models that
// merge order-independently before they reach the database.
package processor
