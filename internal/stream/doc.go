// Package stream pulls transaction batches from the upstream feed.
//
// The client keeps a strict version cursor: every delivered batch is
// contiguous with the last, and a detected gap ends the session and
// reconnects from the next expected version. Reconnects are bounded by a
// retry budget that resets after a sufficiently long healthy session.
package stream
