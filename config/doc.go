// Package config loads the process-wide Settings from environment variables,
// an optional .env file and an optional mortar.yaml config file. Settings are
// read-only once loaded.
package config
