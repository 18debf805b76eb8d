package http

import (
	"encoding/json"
	"time"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

// Wire representations of domain entities. The domain models carry no JSON
// tags, so the HTTP layer owns the serialized field names.

type organizationResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector,omitempty"`
	Regional  bool      `json:"regional"`
	CreatedAt time.Time `json:"created_at"`
}

func toOrganizationResponse(org *model.Organization) organizationResponse {
	return organizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		Sector:    org.Sector,
		Regional:  org.Regional,
		CreatedAt: org.CreatedAt,
	}
}

type controlResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
}

type frameworkResponse struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Regional bool              `json:"regional"`
	Version  int               `json:"version"`
	Controls []controlResponse `json:"controls"`
}

func toFrameworkResponse(fw *model.Framework) frameworkResponse {
	controls := make([]controlResponse, 0, len(fw.Controls))
	for _, c := range fw.Controls {
		controls = append(controls, controlResponse{
			ID:          c.ID.String(),
			Description: c.Description,
			Weight:      c.Weight,
		})
	}
	return frameworkResponse{
		Code:     fw.Code.String(),
		Name:     fw.Name,
		Regional: fw.Regional,
		Version:  fw.Version,
		Controls: controls,
	}
}

type frameworkSummaryResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Regional bool   `json:"regional"`
	Version  int    `json:"version"`
	Controls int    `json:"controls"`
}

func toFrameworkSummaryResponse(fw *model.Framework) frameworkSummaryResponse {
	return frameworkSummaryResponse{
		Code:     fw.Code.String(),
		Name:     fw.Name,
		Regional: fw.Regional,
		Version:  fw.Version,
		Controls: len(fw.Controls),
	}
}

type assessmentResponse struct {
	ID             int64      `json:"id"`
	OrgID          int64      `json:"organization_id"`
	FrameworkCode  string     `json:"framework_code"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	AutomatedScore *float64   `json:"automated_score,omitempty"`
	FinalScore     *float64   `json:"final_score,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func toAssessmentResponse(a *model.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:             a.ID,
		OrgID:          a.OrgID,
		FrameworkCode:  a.FrameworkCode.String(),
		Type:           a.Type.String(),
		Status:         a.Status.String(),
		AutomatedScore: a.AutomatedScore,
		FinalScore:     a.FinalScore,
		CreatedAt:      a.CreatedAt,
		CompletedAt:    a.CompletedAt,
	}
}

type riskResponse struct {
	ID            int64     `json:"id"`
	OrgID         int64     `json:"organization_id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Severity      string    `json:"severity"`
	Likelihood    string    `json:"likelihood"`
	Owner         string    `json:"owner,omitempty"`
	InherentScore int       `json:"inherent_score"`
	RiskLevel     string    `json:"risk_level"`
	CreatedAt     time.Time `json:"created_at"`
}

func toRiskResponse(risk *model.ScoredRisk) riskResponse {
	return riskResponse{
		ID:            risk.ID,
		OrgID:         risk.OrgID,
		Title:         risk.Title,
		Category:      risk.Category.String(),
		Severity:      risk.Severity.String(),
		Likelihood:    risk.Likelihood.String(),
		Owner:         risk.Owner,
		InherentScore: risk.InherentScore,
		RiskLevel:     risk.Level.String(),
		CreatedAt:     risk.CreatedAt,
	}
}

type auditEntryResponse struct {
	EntryID     string          `json:"entry_id"`
	Subject     string          `json:"subject"`
	Sequence    int64           `json:"sequence"`
	Actor       string          `json:"actor"`
	Action      string          `json:"action"`
	Payload     json.RawMessage `json:"payload"`
	PayloadHash string          `json:"payload_hash"`
	PrevHash    string          `json:"prev_hash"`
	EntryHash   string          `json:"entry_hash"`
	Timestamp   time.Time       `json:"timestamp"`
}

func toAuditEntryResponse(entry *model.AuditLogEntry) auditEntryResponse {
	return auditEntryResponse{
		EntryID:     entry.EntryID,
		Subject:     entry.Subject.String(),
		Sequence:    entry.Sequence,
		Actor:       entry.Actor,
		Action:      entry.Action,
		Payload:     entry.Payload,
		PayloadHash: entry.PayloadHash,
		PrevHash:    entry.PrevHash,
		EntryHash:   entry.EntryHash,
		Timestamp:   entry.Timestamp,
	}
}

type chainVerificationResponse struct {
	Subject           string `json:"subject"`
	Entries           int    `json:"entries"`
	OK                bool   `json:"ok"`
	OffendingSequence *int64 `json:"offending_sequence,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

func toChainVerificationResponse(result *model.ChainVerification) chainVerificationResponse {
	return chainVerificationResponse{
		Subject:           result.Subject.String(),
		Entries:           result.Entries,
		OK:                result.OK,
		OffendingSequence: result.OffendingSequence,
		Reason:            result.Reason,
	}
}
