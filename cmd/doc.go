// Package cmd provides the command-line interface for stitch.
//
// Configuration System:
//
//	Settings are resolved with the following precedence:
//	1. Command-line flags (--dev, --watch, --log-level) - highest priority
//	2. Individual environment variables (STITCH_OUTPUT, STITCH_PARTS_DIR, ...)
//	3. The settings file: --config, else STITCH_CONFIG_FILE, else .stitch.yml
//	4. Built-in defaults - lowest priority
//
// # Available Commands
//
//   - stitch: build the prompt file once, or keep rebuilding with --watch
//   - validate: check the manifest and fragments without writing
//   - version: print build information
//
// # Command Examples
//
//	// Build once
//	stitch
//
//	// Build with part descriptions in the log
//	stitch --dev
//
//	// Rebuild on change, with debug logging
//	stitch --watch --log-level debug
//
//	// Validate a project using a custom settings file
//	stitch validate --config ./ci/stitch.yml --format json
//
// # Exit Status
//
// One-shot builds and validate exit non-zero when the manifest cannot be
// read, a fragment is missing, or the output cannot be written. Watch mode
// logs those failures and keeps running until interrupted.
package cmd
