package controls

import (
	"context"
	"sync"

	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Static is a ControlStatusProvider backed by an in-memory table. The table
// is loaded from configuration at startup; entries absent from the table
// count as unsatisfied.
type Static struct {
	mu        sync.RWMutex
	satisfied map[int64]map[types.ControlID]bool
}

var _ interfaces.ControlStatusProvider = &Static{}

func NewStatic() *Static {
	return &Static{
		satisfied: make(map[int64]map[types.ControlID]bool),
	}
}

// Set records whether the organization satisfies the control
func (s *Static) Set(orgID int64, controlID types.ControlID, satisfied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.satisfied[orgID]
	if !ok {
		table = make(map[types.ControlID]bool)
		s.satisfied[orgID] = table
	}
	table[controlID] = satisfied
}

// SetAll marks every listed control as satisfied for the organization
func (s *Static) SetAll(orgID int64, controlIDs []types.ControlID) {
	for _, id := range controlIDs {
		s.Set(orgID, id, true)
	}
}

func (s *Static) IsControlSatisfied(ctx context.Context, orgID int64, controlID types.ControlID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.satisfied[orgID]
	if !ok {
		return false, nil
	}
	return table[controlID], nil
}
