package model

import (
	"time"

	"github.com/secmon-lab/themis/pkg/domain/types"
)

// RiskLevelCount is one bucket of the dashboard risk distribution
type RiskLevelCount struct {
	Level types.RiskLevel
	Count int
}

// DashboardStats aggregates counts for the dashboard view. RiskDistribution
// always contains one bucket per risk level, ordered lowest to highest, with
// zero counts included.
type DashboardStats struct {
	OrgCount         int
	AssessmentCount  int
	OpenRiskCount    int
	FrameworkCount   int
	RiskDistribution []RiskLevelCount
}

// TrendPoint is one calendar-day bucket of completed assessment scores.
// AverageScore is nil for days without completions, which keeps "no data"
// distinguishable from an average of zero.
type TrendPoint struct {
	Date         time.Time
	AverageScore *float64
	Completed    int
}
