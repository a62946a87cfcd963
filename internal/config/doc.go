// Package config provides configuration management for the campvault CLI.
//
// # Configuration File
//
// The default configuration file location is
// <XDG_CONFIG_HOME>/campvault/config.yaml, with the current directory
// searched first so a campaign tree can carry its own settings. The file
// uses YAML format:
//
//	version: 1
//	live_root: "."
//	archive_root: ""          # empty: <live_root>/saves/archives
//	default_mode: move        # or copy
//	retention: keep_all       # or replace_previous
//	role_limit: 3
//	extra_patterns: []
//	exclude:
//	  basenames: [save_initial_template.md]
//	  dead_suffixes: ["_已死亡"]
//	  example_prefixes: ["示例角色"]
//
// Every key can be overridden through CAMPVAULT_* environment variables.
//
// # Loading Configuration
//
// Call [Init] once at startup, then [Load]:
//
//	config.Init()
//	cfg, err := config.Load(flagConfigPath)
//
// An empty path searches the default locations and falls back to defaults
// when no file exists; an explicit path must exist.
//
// # Validation
//
// Loaded configurations are checked with [Validate], which returns every
// problem found rather than stopping at the first:
//
//	if errs := config.Validate(cfg); len(errs) > 0 {
//	    for _, e := range errs {
//	        fmt.Println(e)
//	    }
//	}
package config
