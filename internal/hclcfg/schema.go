package hclcfg

import "github.com/hashicorp/hcl/v2"

// paramsBlock captures the body of a `params` or `overrides` block so its
// attributes can be extracted after decoding.
type paramsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// blockDecl is a `block "<type>" "<id>"` declaration in a graph document.
type blockDecl struct {
	Type   string       `hcl:"block_type,label"`
	ID     string       `hcl:"instance_id,label"`
	Params *paramsBlock `hcl:"params,block"`
}

// connectionDecl is a `connection` declaration wiring two endpoints.
type connectionDecl struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// runDecl is the `run` configuration block of a graph document.
type runDecl struct {
	DurationSec int          `hcl:"duration_sec,optional"`
	Hz          int          `hcl:"hz,optional"`
	Viewer      bool         `hcl:"viewer,optional"`
	Overrides   *paramsBlock `hcl:"overrides,block"`
}

// portDecl declares one input or output port inside a blocktype manifest.
type portDecl struct {
	Name     string `hcl:"name,label"`
	Type     string `hcl:"type,optional"`
	Required bool   `hcl:"required,optional"`
}

// paramDecl declares one parameter and its default value.
type paramDecl struct {
	Name    string         `hcl:"name,label"`
	Default hcl.Expression `hcl:"default,optional"`
}

// runtimeDecl names the registered Go factory that constructs the block type.
type runtimeDecl struct {
	Factory string `hcl:"factory"`
}

// blocktypeDecl is one catalog manifest entry.
type blocktypeDecl struct {
	Type        string       `hcl:"type,label"`
	Description string       `hcl:"description,optional"`
	Category    string       `hcl:"category,optional"`
	Inputs      []*portDecl  `hcl:"input,block"`
	Outputs     []*portDecl  `hcl:"output,block"`
	Params      []*paramDecl `hcl:"param,block"`
	Runtime     *runtimeDecl `hcl:"runtime,block"`
}

// fileRoot decodes all block kinds this loader accepts from any one file.
type fileRoot struct {
	Version        string            `hcl:"version,optional"`
	ExecutionOrder []string          `hcl:"execution_order,optional"`
	Blocks         []*blockDecl      `hcl:"block,block"`
	Connections    []*connectionDecl `hcl:"connection,block"`
	Run            *runDecl          `hcl:"run,block"`
	BlockTypes     []*blocktypeDecl  `hcl:"blocktype,block"`
	Remain         hcl.Body          `hcl:",remain"`
}
