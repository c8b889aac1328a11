// Package model contains domain models passed between layers.
package model

import "github.com/google/uuid"

// SubjectID identifies a ranked subject. It is stable for the subject's lifetime.
type SubjectID = uuid.UUID

// Subject is an entity being ranked. Equality is by ID; the name is display only.
type Subject struct {
	ID   SubjectID
	Name string
}

// Same reports whether s and o identify the same subject.
func (s Subject) Same(o Subject) bool { return s.ID == o.ID }
