// Package api serves the operational HTTP endpoints: /health with the last
// committed transaction version and broker counters, and Prometheus metrics.
package api
