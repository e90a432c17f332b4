// Package config provides configuration management for wikisync.
//
// Configuration is read from wikisync.yaml in a single directory. The
// default directory is ~/.config/wikisync; commands accept --config to
// point elsewhere. Values are layered, later layers winning:
//
//  1. built-in defaults (GetDefaultConfig)
//  2. the YAML file; unknown keys are rejected
//  3. WIKISYNC_* environment variables, e.g. WIKISYNC_TARGET_PASSWORD
//  4. command-line flags, applied by the cmd package
//
// A minimal file:
//
//	source:
//	  api: https://source.example.org/w/api.php
//	target:
//	  api: https://target.example.org/w/api.php
//	  username: Admin@SyncBot
//	  password: s3cr3t
//	excludeCategory: Private
//	import:
//	  interwikiPrefix: source
//
// Validate collects every problem into ValidationErrors instead of stopping
// at the first one, so a user can fix a file in one pass.
package config
