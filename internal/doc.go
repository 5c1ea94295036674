// Package internal contains the implementation packages of hotsnip.
//
// # Package Organization
//
//   - textutil: delimiter extraction with ordinal and culture-aware comparison
//   - hotkey: key-combination grammar, the hotkey registry and OS backends
//   - snippet: template files parsed into keys, titles and bodies
//   - watcher: fsnotify events for the template folder, debounced into batches
//   - reconcile: the manager that keeps registered hotkeys in step with the folder
//   - scaffolding: creation of the template folder and new template files
//   - config: viper-backed settings and validation
//   - errors: the typed error taxonomy shared by every package
//   - logging: the slog-backed structured logger
//   - version: build information
//   - testutils: in-memory folders and a fake hotkey backend for tests
//
// Data flows one way: watcher batches trigger a reconcile pass, which parses
// each file with snippet and registers eligible templates through hotkey.
package internal
