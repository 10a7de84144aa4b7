// Package runs owns the on-disk run-directory namespace and the artifact
// contract between planner, executor and downstream analysis tools.
//
// Every planned run lives under a uniquely numbered directory
// (runs/run_0001, run_0002, ...) holding:
//
//	graph.json            the normalized graph document
//	resolved_blocks.json  one record per node, defaults merged with overrides
//	plan.json             execution order, wiring table, scheduling mode
//	run_config.json       duration, rate, viewer flag, overrides, run id
//	logs/<channel>.jsonl  per-channel observation log, one record per line
//	metrics.json          run metrics written at finalization
//
// Directory numbers are allocated race-free: os.Mkdir either creates a new
// directory or fails because a concurrent planner took the number first, in
// which case the allocator retries with the next one.
package runs
