package models

import "fmt"

// ErrorType represents different categories of build errors
type ErrorType int

const (
	ErrInvalidFormat ErrorType = iota
	ErrUnsupportedBitness
	ErrInvalidEndianness
	ErrUnsupportedVersion
	ErrUnknownMachine
	ErrExternalTool
	ErrStageCopy
	ErrConfigInconsistency
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrInvalidFormat:
		return "InvalidFormat"
	case ErrUnsupportedBitness:
		return "UnsupportedBitness"
	case ErrInvalidEndianness:
		return "InvalidEndianness"
	case ErrUnsupportedVersion:
		return "UnsupportedVersion"
	case ErrUnknownMachine:
		return "UnknownMachine"
	case ErrExternalTool:
		return "ExternalTool"
	case ErrStageCopy:
		return "StageCopy"
	case ErrConfigInconsistency:
		return "ConfigInconsistency"
	default:
		return "Unknown"
	}
}

// BuildError represents an error during package assembly
type BuildError struct {
	Type ErrorType
	Path string
	Err  error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *BuildError) Unwrap() error {
	return e.Err
}
