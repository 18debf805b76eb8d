package model

import "time"

// Organization represents an entity under compliance evaluation. Organizations
// are registered by an external flow and are immutable once referenced by an
// assessment, so there is no update operation anywhere in the engine.
type Organization struct {
	ID        int64
	Name      string
	Sector    string
	Regional  bool
	CreatedAt time.Time
}

// Clone returns a copy of the organization
func (o *Organization) Clone() *Organization {
	cloned := *o
	return &cloned
}
