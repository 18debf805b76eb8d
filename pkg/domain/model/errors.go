package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy shared across layers. Repositories, services and use cases
// wrap these sentinels so callers can classify failures with errors.Is.
var (
	ErrValidation          = goerr.New("validation failed")
	ErrNotFound            = goerr.New("not found")
	ErrInvalidTransition   = goerr.New("invalid state transition")
	ErrInvalidEnumValue    = goerr.New("invalid enum value")
	ErrFrameworkNotFound   = goerr.New("framework not found")
	ErrEvaluationFailed    = goerr.New("evaluation failed")
	ErrEvaluationTimeout   = goerr.New("evaluation timed out")
	ErrEvaluationCancelled = goerr.New("evaluation cancelled")
	ErrAuditIntegrity      = goerr.New("audit chain integrity violation")
)

// Context keys for error values
const (
	OrgIDKey        = "organization_id"
	FrameworkKey    = "framework_code"
	AssessmentIDKey = "assessment_id"
	RiskIDKey       = "risk_id"
	ControlIDKey    = "control_id"
	SubjectKey      = "subject"
	SequenceKey     = "sequence"
	StatusKey       = "status"
)
