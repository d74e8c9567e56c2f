// Package broker serves the derived-event stream over WebSocket.
//
// Each connection owns one mutable subscription filter, updated by partial
// JSON messages from the client. The fan-out task matches every derived
// event against the filter; a connection that cannot keep up has events
// dropped from its queue rather than stalling the stream.
package broker
