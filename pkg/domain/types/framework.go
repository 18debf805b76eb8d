package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// FrameworkCode represents a unique identifier for a compliance framework,
// e.g. "nca-ecc" or "iso-27001"
type FrameworkCode string

// Validate checks if the FrameworkCode is valid
func (c FrameworkCode) Validate() error {
	if c == "" {
		return goerr.New("framework code cannot be empty")
	}
	if !idPattern.MatchString(string(c)) {
		return goerr.New("framework code must be lowercase alphanumeric with hyphens", goerr.V("code", c))
	}
	return nil
}

// String returns the string representation of FrameworkCode
func (c FrameworkCode) String() string {
	return string(c)
}

// ControlID represents a unique identifier for a control within a framework
type ControlID string

// Validate checks if the ControlID is valid
func (c ControlID) Validate() error {
	if c == "" {
		return goerr.New("control ID cannot be empty")
	}
	if !idPattern.MatchString(string(c)) {
		return goerr.New("control ID must be lowercase alphanumeric with hyphens", goerr.V("id", c))
	}
	return nil
}

// String returns the string representation of ControlID
func (c ControlID) String() string {
	return string(c)
}
