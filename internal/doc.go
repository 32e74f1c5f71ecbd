// Package internal contains the implementation packages for stitch.
//
// # Package Organization
//
//   - partstore: read-only access to fragment files by relative id
//   - template: {{NAME}} placeholder substitution and automatic variables
//   - manifest: JSON/JSONC/YAML manifest decoding and shape checks
//   - validator: fail-fast existence checks for every part
//   - composer: assembles header, wrapper, parts, and footer into one text
//   - output: statistics and atomic writes of the composed text
//   - build: one full build per call, plus running metrics
//   - scheduler: debounced rebuilds with at most one build in flight
//   - watcher: fsnotify events filtered down to fragment changes
//   - config: tool settings via Viper
//   - errors: the stitch error kinds
//   - logging: slog-backed structured logging
//   - version: build metadata
//
// # Data Flow
//
// A build reads the manifest fresh, validates that every part exists,
// renders each section with its own variables, joins the sections, and
// writes the result atomically. In watch mode the watcher feeds the
// scheduler, which serialises builds and coalesces bursts of changes.
package internal
