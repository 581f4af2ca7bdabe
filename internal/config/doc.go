// Package config provides configuration loading and management.
//
// Values are resolved in layers, each overriding the previous:
//
//  1. built-in defaults
//  2. the user file (~/.tasktrack/tasktrack.toml or the OS config dir)
//  3. the project file (tasktrack.toml or .tasktrack.toml in the working dir)
//  4. TASKTRACK_* environment variables
//  5. command-line flags
//
// LoadWithSources records which layer supplied each key so `tasktrack doctor`
// can explain the effective configuration.
package config
