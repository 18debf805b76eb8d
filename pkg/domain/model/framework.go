package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Control represents a single requirement within a compliance framework
type Control struct {
	ID          types.ControlID
	Description string
	Weight      float64
}

// Framework represents a regulatory standard with an ordered set of controls.
// Frameworks are reference data: the engine reads them but never edits them.
// Version increases whenever the control set or weights change; cached
// evaluation results are keyed on it.
type Framework struct {
	Code     types.FrameworkCode
	Name     string
	Regional bool
	Version  int
	Controls []Control
}

// Clone returns a deep copy of the framework including its controls
func (f *Framework) Clone() *Framework {
	cloned := *f
	cloned.Controls = make([]Control, len(f.Controls))
	copy(cloned.Controls, f.Controls)
	return &cloned
}

// TotalWeight returns the sum of all control weights
func (f *Framework) TotalWeight() float64 {
	var total float64
	for _, c := range f.Controls {
		total += c.Weight
	}
	return total
}

// Validate checks structural integrity of the framework definition
func (f *Framework) Validate() error {
	if err := f.Code.Validate(); err != nil {
		return goerr.Wrap(ErrValidation, "invalid framework code", goerr.V(FrameworkKey, f.Code))
	}
	if f.Name == "" {
		return goerr.Wrap(ErrValidation, "framework name is required", goerr.V(FrameworkKey, f.Code))
	}
	if f.Version < 1 {
		return goerr.Wrap(ErrValidation, "framework version must be 1 or greater",
			goerr.V(FrameworkKey, f.Code), goerr.V("version", f.Version))
	}

	seen := make(map[types.ControlID]bool)
	for _, c := range f.Controls {
		if err := c.ID.Validate(); err != nil {
			return goerr.Wrap(ErrValidation, "invalid control ID",
				goerr.V(FrameworkKey, f.Code), goerr.V(ControlIDKey, c.ID))
		}
		if seen[c.ID] {
			return goerr.Wrap(ErrValidation, "duplicate control ID",
				goerr.V(FrameworkKey, f.Code), goerr.V(ControlIDKey, c.ID))
		}
		seen[c.ID] = true
		if c.Weight <= 0 {
			return goerr.Wrap(ErrValidation, "control weight must be positive",
				goerr.V(FrameworkKey, f.Code), goerr.V(ControlIDKey, c.ID), goerr.V("weight", c.Weight))
		}
	}

	return nil
}
