package testutil

import (
	"time"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// Epoch is the reference time used by fixtures.
var Epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// NewTestCard creates a Card with sensible defaults for tests.
// Use functional options to override specific fields.
func NewTestCard(id core.CardID, stage core.StageID, opts ...func(*core.Card)) core.Card {
	subject := "subject-" + string(id)
	c := core.Card{
		ID:        id,
		SubjectID: &subject,
		StageID:   stage,
		Priority:  core.PriorityNormal,
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// AtPosition sets the card position.
func AtPosition(p int) func(*core.Card) {
	return func(c *core.Card) { c.Position = p }
}

// WithNotes sets the card notes.
func WithNotes(notes string) func(*core.Card) {
	return func(c *core.Card) { c.Notes = notes }
}

// WithResponsible sets the responsible party.
func WithResponsible(id string) func(*core.Card) {
	return func(c *core.Card) { c.ResponsibleID = &id }
}

// WithoutSubject clears the subject reference.
func WithoutSubject() func(*core.Card) {
	return func(c *core.Card) { c.SubjectID = nil }
}
