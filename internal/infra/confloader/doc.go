// Package confloader provides configuration loading mechanism.
//
// It layers koanf sources onto a struct that already holds defaults.
//
// Priority (highest to lowest):
//
//  1. Override maps (command-line flags)
//  2. Environment variables (RESPKV_ prefix), including a dotenv file
//  3. YAML configuration file
//  4. Values already set in the target struct
//
// Watcher reports changes to the configuration file via fsnotify so
// selected settings can be reloaded without a restart.
package confloader
