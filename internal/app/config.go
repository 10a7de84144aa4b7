package app

import "errors"

// Config holds everything an App instance needs to run. GraphPath is
// required when planning; execution of an existing run dir needs only
// RunsDir.
type Config struct {
	GraphPath  string // graph document (.hcl file or directory)
	BlocksPath string // block catalog (.hcl and .yaml manifests)
	RunsDir    string // root directory run dirs are allocated under

	PlanOnly bool   // plan and persist artifacts, skip execution
	RunDir   string // execute this specific run dir instead of planning

	// Tick-rate overrides. Zero values leave the graph document's run
	// configuration untouched.
	Hz          int
	DurationSec int

	Viewer   bool // force live viewers open
	Headless bool // force live viewers closed, wins over Viewer

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// DisablePacing runs ticks back to back. Used by tests.
	DisablePacing bool
}

// Validate rejects configurations that cannot name any work to do.
func (c *Config) Validate() error {
	if c.GraphPath == "" && c.RunDir == "" && c.RunsDir == "" {
		return errors.New("nothing to do: provide a graph to plan or a runs directory to execute from")
	}
	if c.PlanOnly && c.GraphPath == "" {
		return errors.New("plan-only requires a graph path")
	}
	return nil
}
