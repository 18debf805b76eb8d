package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// Severity represents the severity level of a risk
type Severity string

const (
	SeverityNegligible Severity = "negligible"
	SeverityMinor      Severity = "minor"
	SeverityModerate   Severity = "moderate"
	SeverityMajor      Severity = "major"
	SeverityCritical   Severity = "critical"
)

// AllSeverities returns all valid severity levels in ordinal order
func AllSeverities() []Severity {
	return []Severity{
		SeverityNegligible,
		SeverityMinor,
		SeverityModerate,
		SeverityMajor,
		SeverityCritical,
	}
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNegligible,
		SeverityMinor,
		SeverityModerate,
		SeverityMajor,
		SeverityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity
func ParseSeverity(s string) (Severity, error) {
	severity := Severity(s)
	if !severity.IsValid() {
		return "", goerr.New("invalid severity", goerr.V("value", s))
	}
	return severity, nil
}
