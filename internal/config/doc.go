// Package config loads the rewind configuration.
//
// # Architecture
//
// Settings are resolved in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Arguments  │  ← Highest priority (applied by cmd/rewind)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← REWIND_HISTORY_MAX_FRAMES, REWIND_LOG_LEVEL, ...
//	├─────────────────────────────┤
//	│  2. Configuration File      │  ← rewind.toml or rewind.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A missing configuration file is not an error; the defaults apply.
//
// # Example
//
//	[history]
//	max_frames = 100
//	record = true
//	auto_save = true
//
//	[logging]
//	level = "debug"
//	format = "json"
//
//	[script]
//	timeout_ms = 2000
//
//	[metrics]
//	addr = ":9100"
package config
