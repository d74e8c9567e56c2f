// Package database provides the PostgreSQL connection pool and the read
// queries the pipeline needs at startup and during processing: the version
// watermark, the active melee, and melee market resolution.
package database
