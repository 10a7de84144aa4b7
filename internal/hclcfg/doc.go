// Package hclcfg is the HCL implementation of the config.Loader interface.
// It understands two kinds of top-level blocks, which may be mixed freely in
// any .hcl file under the loaded paths:
//
//   - graph documents: `block "<type>" "<id>"`, `connection`, `run`,
//     `execution_order` and `version` declarations describing one run graph;
//   - catalog manifests: `blocktype "<type>"` declarations describing the
//     ports, parameter defaults and construction factory of a block type.
package hclcfg
