// Package executor drives a planned graph through its tick loop: it
// instantiates blocks from the registry in plan order, routes connection
// wires through the latest-value bus, logs observed channels, tracks the
// primary run metric, and finalizes the run's metrics document no matter
// how the run ends.
package executor
