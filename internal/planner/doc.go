// Package planner turns a declared graph into a deterministic execution
// plan: an ordering of every block and the channel wiring table derived from
// the graph's connections.
//
// Ordering is resolved in three stages. A non-empty explicit execution order
// always wins. Otherwise the planner runs a deterministic Kahn topological
// sort over the connection-implied dependencies, breaking ties by node
// declaration order. When the sort cannot place every node, the usual case
// for closed-loop controller/simulator pairs, the planner falls back to
// declaration order and records a note recommending an explicit order.
//
// Validation is all-or-nothing: every connection endpoint must reference a
// declared block and a declared port, port type tags must agree where both
// ends carry one, and every required input must be connected. Any violation
// aborts planning before a plan or any persisted artifact exists.
package planner
