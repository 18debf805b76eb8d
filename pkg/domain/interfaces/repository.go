package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Organization() OrganizationRepository
	Framework() FrameworkRepository
	Assessment() AssessmentRepository
	Risk() RiskRepository
	Audit() AuditLogRepository

	// Close releases underlying connections. Safe to call on backends
	// without connection state.
	Close() error
}
