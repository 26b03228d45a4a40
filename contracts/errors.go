package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrArtifactNotFound indicates neither a build artifact nor an embedded ABI exists.
	ErrArtifactNotFound = errors.New("contracts: artifact not found")

	// ErrNoBytecode indicates an artifact cannot be deployed because it carries only an ABI.
	ErrNoBytecode = errors.New("contracts: artifact has no bytecode")

	// ErrMethodNotFound indicates the ABI has no method of that name.
	ErrMethodNotFound = errors.New("contracts: method not found")

	// ErrEventNotFound indicates the ABI has no event of that name.
	ErrEventNotFound = errors.New("contracts: event not found")

	// ErrUnexpectedOutput indicates a call returned values of an unexpected shape.
	ErrUnexpectedOutput = errors.New("contracts: unexpected call output")
)

// ArgumentError indicates a command line argument could not be converted to
// its ABI type.
type ArgumentError struct {
	Method string
	Index  int
	Type   string
	Err    error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("contracts: argument %d (%s) for %q: %v", e.Index, e.Type, e.Method, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}
