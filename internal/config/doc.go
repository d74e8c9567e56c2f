// Package config loads and validates the YAML configuration for the indexer
// binaries. ${VAR} references in the file are expanded from the environment
// before parsing.
package config
