package planner

import "strings"

// endpoint is a parsed "blockId.portName" connection reference.
type endpoint struct {
	Node string
	Port string
}

// parseEndpoint splits a connection reference on its first dot, so port
// names may themselves contain dots while block ids may not.
func parseEndpoint(ref string) (endpoint, error) {
	node, port, found := strings.Cut(ref, ".")
	if !found || node == "" || port == "" {
		return endpoint{}, &MalformedEndpointError{Ref: ref}
	}
	return endpoint{Node: node, Port: port}, nil
}
