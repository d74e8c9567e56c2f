// Package pubsub carries derived events from the writer to subscribers.
//
// After a batch commits, every written or merged row becomes one DbEvent, a
// flat tagged union with one variant per storage table. Events are fanned
// out in-process to the WebSocket broker and, when configured, republished
// to NATS. Delivery to a slow subscriber is at-most-once: a full subscriber
// queue drops the event and increments that subscriber's drop counter.
package pubsub
