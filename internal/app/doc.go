// Package app wires the engine together: it owns the logger, loads the
// block catalog and graph document through the format-specific loaders,
// registers the built-in block modules, and exposes the plan and execute
// operations the CLI drives.
package app
