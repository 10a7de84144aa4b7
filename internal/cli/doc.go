// Package cli parses command-line arguments into an app.Config and owns
// process-level concerns like usage output and exit codes. It knows nothing
// about graphs or execution; it only shapes user input for the app layer.
package cli
