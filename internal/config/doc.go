// Package config defines the format-agnostic model for graph documents and
// block-type manifests, plus the Loader interface a concrete format adapter
// (HCL, YAML) implements to produce it. Everything downstream of loading
// (resolution, planning, execution) depends only on this model.
package config
