// Package config defines the server configuration structure.
//
// Configuration is layered by internal/infra/confloader:
//
//  1. Default()
//  2. YAML config file
//  3. RESPKV_ environment variables
//  4. Command-line flags
//
// Verify runs once on the merged result.
package config
