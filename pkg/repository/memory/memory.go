package memory

import (
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	organization *organizationRepository
	framework    *frameworkRepository
	assessment   *assessmentRepository
	risk         *riskRepository
	audit        *auditRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		organization: newOrganizationRepository(),
		framework:    newFrameworkRepository(),
		assessment:   newAssessmentRepository(),
		risk:         newRiskRepository(),
		audit:        newAuditRepository(),
	}
}

func (m *Memory) Organization() interfaces.OrganizationRepository {
	return m.organization
}

func (m *Memory) Framework() interfaces.FrameworkRepository {
	return m.framework
}

func (m *Memory) Assessment() interfaces.AssessmentRepository {
	return m.assessment
}

func (m *Memory) Risk() interfaces.RiskRepository {
	return m.risk
}

func (m *Memory) Audit() interfaces.AuditLogRepository {
	return m.audit
}

func (m *Memory) Close() error {
	return nil
}
