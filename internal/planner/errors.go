package planner

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is implemented by every planning-time validation failure,
// so callers can distinguish a rejected graph from an infrastructure error.
type ValidationError interface {
	error
	validationError()
}

// IsValidationError reports whether any error in err's chain is a planning
// validation failure.
func IsValidationError(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// MalformedEndpointError reports a connection endpoint that is not in
// "blockId.portName" form.
type MalformedEndpointError struct {
	Ref string
}

func (e *MalformedEndpointError) Error() string {
	return fmt.Sprintf("invalid endpoint %q: expected 'blockId.portName'", e.Ref)
}

func (e *MalformedEndpointError) validationError() {}

// UnknownEndpointError reports a connection endpoint naming an undeclared
// block id.
type UnknownEndpointError struct {
	Ref    string
	NodeID string
}

func (e *UnknownEndpointError) Error() string {
	return fmt.Sprintf("connection endpoint %q references unknown block id %q", e.Ref, e.NodeID)
}

func (e *UnknownEndpointError) validationError() {}

// UndeclaredPortError reports a connection endpoint naming a port the block
// type does not declare in that direction.
type UndeclaredPortError struct {
	NodeID    string
	Port      string
	Direction string // "output" for sources, "input" for destinations
}

func (e *UndeclaredPortError) Error() string {
	return fmt.Sprintf("block %q has no %s port %q", e.NodeID, e.Direction, e.Port)
}

func (e *UndeclaredPortError) validationError() {}

// PortTypeMismatchError reports a connection whose two ends carry different
// message type tags.
type PortTypeMismatchError struct {
	From     string
	To       string
	FromType string
	ToType   string
}

func (e *PortTypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s (%s) -> %s (%s)", e.From, e.FromType, e.To, e.ToType)
}

func (e *PortTypeMismatchError) validationError() {}

// UnconnectedRequiredInputError reports a required input port that no
// connection feeds.
type UnconnectedRequiredInputError struct {
	NodeID string
	Port   string
}

func (e *UnconnectedRequiredInputError) Error() string {
	return fmt.Sprintf("missing required input: %s.%s", e.NodeID, e.Port)
}

func (e *UnconnectedRequiredInputError) validationError() {}

// UnknownOrderReferenceError reports an explicit execution order naming an
// undeclared block id.
type UnknownOrderReferenceError struct {
	NodeID string
}

func (e *UnknownOrderReferenceError) Error() string {
	return fmt.Sprintf("execution_order references unknown node id %q", e.NodeID)
}

func (e *UnknownOrderReferenceError) validationError() {}

// OrderPermutationError reports an explicit execution order that is not a
// permutation of the declared node ids.
type OrderPermutationError struct {
	Missing    []string
	Duplicates []string
}

func (e *OrderPermutationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing ids: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("duplicate ids: %s", strings.Join(e.Duplicates, ", ")))
	}
	return "execution_order is not a permutation of the declared nodes (" + strings.Join(parts, "; ") + ")"
}

func (e *OrderPermutationError) validationError() {}

// DuplicateNodeError reports two node declarations sharing one id.
type DuplicateNodeError struct {
	NodeID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate block id %q", e.NodeID)
}

func (e *DuplicateNodeError) validationError() {}
