package core

import "time"

// HistoryRecord is one stage transition of a card. Append-only.
type HistoryRecord struct {
	ID          string    `json:"id"`
	CardID      CardID    `json:"card_id"`
	FromStageID StageID   `json:"from_stage_id"`
	ToStageID   StageID   `json:"to_stage_id"`
	MovedBy     string    `json:"moved_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Comment is a note attached to a card. System comments are generated by
// moves; the rest are written by people. Append-only.
type Comment struct {
	ID         string    `json:"id"`
	CardID     CardID    `json:"card_id"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	System     bool      `json:"system"`
	CreatedAt  time.Time `json:"created_at"`
}

// Actor identifies who performed an operation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// OrDefault fills each empty field of a from fallback.
func (a Actor) OrDefault(fallback Actor) Actor {
	if a.ID == "" {
		a.ID = fallback.ID
	}
	if a.Name == "" {
		a.Name = fallback.Name
	}
	return a
}
