/*
Package config loads dynaprompt settings from YAML, JSON or TOML files.

# Overview

Config wraps a decoded document and provides typed accessors that return a
default for missing keys and type mismatches. Settings is the typed view the
generator, the batch runner and the CLI consume.

# File Loading

	cfg, err := config.FromFile("dynaprompt.toml")
	if err != nil {
	    log.Fatal(err)
	}
	settings := config.SettingsFrom(cfg)

A settings file lists any subset of the keys; the rest take defaults:

	wildcard_dir = "scripts/wildcards"
	max_rounds = 20
	replace_underscores = false
	batch_size = 1
	concurrency = 4
	seed = -1

DYNAPROMPT_WILDCARD_DIR, when set, replaces wildcard_dir.

# Thread Safety

Config and Settings are safe for concurrent read access.
*/
package config
