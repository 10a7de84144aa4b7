package block

import "fmt"

// Params is the merged parameter map a factory receives. Values come either
// from an HCL/YAML loader or from a persisted artifact read back from disk,
// so numbers are always float64 and nested structures are map[string]any.
// The typed accessors let factories build their parameter structs without
// repeating conversion boilerplate.
type Params map[string]any

// Float returns the named parameter as a float64, or def when the parameter
// is absent, nil, or not a number.
func (p Params) Float(name string, def float64) float64 {
	switch v := p[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// Int returns the named parameter as an int, or def.
func (p Params) Int(name string, def int) int {
	switch v := p[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// String returns the named parameter as a string, or def.
func (p Params) String(name string, def string) string {
	if v, ok := p[name].(string); ok {
		return v
	}
	return def
}

// Bool returns the named parameter as a bool, or def.
func (p Params) Bool(name string, def bool) bool {
	if v, ok := p[name].(bool); ok {
		return v
	}
	return def
}

// RequireString returns the named parameter as a non-empty string, or an
// error suitable for wrapping in a ConstructionRejectedError.
func (p Params) RequireString(name string) (string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("required parameter %q must be a non-empty string, got %T", name, v)
	}
	return s, nil
}
