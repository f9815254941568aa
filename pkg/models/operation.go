package models

import (
	"errors"
	"fmt"
	"strings"
)

// Operation is the kind of push a record is waiting for.
type Operation int

const (
	OpNone Operation = iota
	OpCreate
	OpUpdate
	OpDelete
)

// ErrUnknownOperation is returned by ParseOperation for unrecognised input.
var ErrUnknownOperation = errors.New("unknown operation")

func (o Operation) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation converts "create", "update", "delete" or "none" (any case).
func ParseOperation(text string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "none":
		return OpNone, nil
	case "create":
		return OpCreate, nil
	case "update":
		return OpUpdate, nil
	case "delete":
		return OpDelete, nil
	}
	return OpNone, fmt.Errorf("%w: %q", ErrUnknownOperation, text)
}
