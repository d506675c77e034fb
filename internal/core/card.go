package core

import (
	"strings"
	"time"
)

// CardID uniquely identifies a workflow card.
type CardID string

// Priority is the urgency of a card.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority parses a priority, accepting the legacy Portuguese labels.
// An empty string yields PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityNormal, nil
	case "low", "baixa":
		return PriorityLow, nil
	case "normal", "media", "média":
		return PriorityNormal, nil
	case "high", "alta":
		return PriorityHigh, nil
	}
	return "", ErrValidation(CodeInvalidPriority, "priority must be one of: low, normal, high").
		WithDetail("priority", s)
}

// Card is one subject's progress through a pipeline.
// Position is a display hint within the stage; values may collide and are
// ordered by creation time when they do.
type Card struct {
	ID            CardID    `json:"id"`
	SubjectID     *string   `json:"subject_id,omitempty"`
	StageID       StageID   `json:"stage_id"`
	Position      int       `json:"position"`
	Priority      Priority  `json:"priority"`
	Notes         string    `json:"notes"`
	HasEquipment  bool      `json:"has_equipment"`
	HasAccess     bool      `json:"has_access"`
	HasDocuments  bool      `json:"has_documents"`
	ResponsibleID *string   `json:"responsible_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	if c.SubjectID != nil {
		v := *c.SubjectID
		out.SubjectID = &v
	}
	if c.ResponsibleID != nil {
		v := *c.ResponsibleID
		out.ResponsibleID = &v
	}
	return out
}

// CardFields is a partial update of a card's non-placement fields.
// Nil members are left untouched.
type CardFields struct {
	Priority      *Priority `json:"priority,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	HasEquipment  *bool     `json:"has_equipment,omitempty"`
	HasAccess     *bool     `json:"has_access,omitempty"`
	HasDocuments  *bool     `json:"has_documents,omitempty"`
	ResponsibleID *string   `json:"responsible_id,omitempty"`
}

// Empty reports whether the update carries no fields.
func (f CardFields) Empty() bool {
	return f.Priority == nil && f.Notes == nil && f.HasEquipment == nil &&
		f.HasAccess == nil && f.HasDocuments == nil && f.ResponsibleID == nil
}
