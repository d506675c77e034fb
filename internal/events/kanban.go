package events

// Kanban event type constants.
const (
	TypeCardMoved        = "card_moved"
	TypeCardMovePending  = "card_move_pending"
	TypeCardMoveReverted = "card_move_reverted"
	TypeCardCreated      = "card_created"
	TypeCardUpdated      = "card_updated"
	TypeCommentAdded     = "comment_added"
	TypeAuditWriteFailed = "audit_write_failed"
)

// Audit kinds reported by AuditWriteFailedEvent.
const (
	AuditKindHistory = "history"
	AuditKindComment = "comment"
)

// CardMovedEvent is emitted after a card's placement has been persisted.
type CardMovedEvent struct {
	BaseEvent
	FromStage   string `json:"from_stage"`
	ToStage     string `json:"to_stage"`
	NewPosition int    `json:"new_position"`
	MovedBy     string `json:"moved_by"`
}

// NewCardMovedEvent creates a new card moved event.
func NewCardMovedEvent(cardID, fromStage, toStage string, newPosition int, movedBy string) CardMovedEvent {
	return CardMovedEvent{
		BaseEvent:   NewBaseEvent(TypeCardMoved, cardID),
		FromStage:   fromStage,
		ToStage:     toStage,
		NewPosition: newPosition,
		MovedBy:     movedBy,
	}
}

// CardMovePendingEvent is emitted when the board applies a move locally,
// before the store confirms it.
type CardMovePendingEvent struct {
	BaseEvent
	ToStage        string `json:"to_stage"`
	TargetPosition int    `json:"target_position"`
}

// NewCardMovePendingEvent creates a new pending move event.
func NewCardMovePendingEvent(cardID, toStage string, targetPosition int) CardMovePendingEvent {
	return CardMovePendingEvent{
		BaseEvent:      NewBaseEvent(TypeCardMovePending, cardID),
		ToStage:        toStage,
		TargetPosition: targetPosition,
	}
}

// CardMoveRevertedEvent is emitted when the board discards an optimistic move.
type CardMoveRevertedEvent struct {
	BaseEvent
	Error string `json:"error"`
}

// NewCardMoveRevertedEvent creates a new reverted move event.
func NewCardMoveRevertedEvent(cardID, errMsg string) CardMoveRevertedEvent {
	return CardMoveRevertedEvent{
		BaseEvent: NewBaseEvent(TypeCardMoveReverted, cardID),
		Error:     errMsg,
	}
}

// CardCreatedEvent is emitted when a card is added to a stage.
type CardCreatedEvent struct {
	BaseEvent
	Stage    string `json:"stage"`
	Position int    `json:"position"`
}

// NewCardCreatedEvent creates a new card created event.
func NewCardCreatedEvent(cardID, stage string, position int) CardCreatedEvent {
	return CardCreatedEvent{
		BaseEvent: NewBaseEvent(TypeCardCreated, cardID),
		Stage:     stage,
		Position:  position,
	}
}

// CardUpdatedEvent is emitted after a direct field update.
type CardUpdatedEvent struct {
	BaseEvent
	Fields []string `json:"fields"`
}

// NewCardUpdatedEvent creates a new card updated event.
func NewCardUpdatedEvent(cardID string, fields []string) CardUpdatedEvent {
	return CardUpdatedEvent{
		BaseEvent: NewBaseEvent(TypeCardUpdated, cardID),
		Fields:    fields,
	}
}

// CommentAddedEvent is emitted when a comment is stored.
type CommentAddedEvent struct {
	BaseEvent
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
	System    bool   `json:"system"`
}

// NewCommentAddedEvent creates a new comment added event.
func NewCommentAddedEvent(cardID, commentID, authorID string, system bool) CommentAddedEvent {
	return CommentAddedEvent{
		BaseEvent: NewBaseEvent(TypeCommentAdded, cardID),
		CommentID: commentID,
		AuthorID:  authorID,
		System:    system,
	}
}

// AuditWriteFailedEvent reports a history or comment write that failed
// during a move. The move itself succeeded.
type AuditWriteFailedEvent struct {
	BaseEvent
	Kind      string `json:"kind"`
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
	Error     string `json:"error"`
}

// NewAuditWriteFailedEvent creates a new audit write failed event.
func NewAuditWriteFailedEvent(cardID, kind, fromStage, toStage, errMsg string) AuditWriteFailedEvent {
	return AuditWriteFailedEvent{
		BaseEvent: NewBaseEvent(TypeAuditWriteFailed, cardID),
		Kind:      kind,
		FromStage: fromStage,
		ToStage:   toStage,
		Error:     errMsg,
	}
}
