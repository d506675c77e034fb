package kanban

import (
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// Column names. Every table uses the same snake_case convention; typed
// records are translated to and from rows only in this file.
const (
	colID            = "id"
	colName          = "name"
	colProcessType   = "process_type"
	colPipeline      = "pipeline"
	colPosition      = "position"
	colSubjectID     = "subject_id"
	colStageID       = "stage_id"
	colPriority      = "priority"
	colNotes         = "notes"
	colHasEquipment  = "has_equipment"
	colHasAccess     = "has_access"
	colHasDocuments  = "has_documents"
	colResponsibleID = "responsible_id"
	colCreatedAt     = "created_at"
	colUpdatedAt     = "updated_at"
	colCardID        = "card_id"
	colFromStageID   = "from_stage_id"
	colToStageID     = "to_stage_id"
	colMovedBy       = "moved_by"
	colBody          = "body"
	colAuthorID      = "author_id"
	colAuthorName    = "author_name"
	colSystem        = "system"
)

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func cardToRow(c core.Card) core.Row {
	return core.Row{
		colID:            string(c.ID),
		colSubjectID:     nullable(c.SubjectID),
		colStageID:       string(c.StageID),
		colPosition:      int64(c.Position),
		colPriority:      string(c.Priority),
		colNotes:         c.Notes,
		colHasEquipment:  boolInt(c.HasEquipment),
		colHasAccess:     boolInt(c.HasAccess),
		colHasDocuments:  boolInt(c.HasDocuments),
		colResponsibleID: nullable(c.ResponsibleID),
		colCreatedAt:     formatTime(c.CreatedAt),
		colUpdatedAt:     formatTime(c.UpdatedAt),
	}
}

func cardFromRow(r core.Row) (core.Card, error) {
	var c core.Card
	var err error
	c.ID = core.CardID(stringCol(r, colID))
	c.SubjectID = optionalCol(r, colSubjectID)
	c.StageID = core.StageID(stringCol(r, colStageID))
	if c.Position, err = intCol(r, colPosition); err != nil {
		return c, corrupt(core.TableCards, string(c.ID), err)
	}
	c.Priority = core.Priority(stringCol(r, colPriority))
	if !c.Priority.Valid() {
		c.Priority = core.PriorityNormal
	}
	c.Notes = stringCol(r, colNotes)
	if c.HasEquipment, err = boolCol(r, colHasEquipment); err != nil {
		return c, corrupt(core.TableCards, string(c.ID), err)
	}
	if c.HasAccess, err = boolCol(r, colHasAccess); err != nil {
		return c, corrupt(core.TableCards, string(c.ID), err)
	}
	if c.HasDocuments, err = boolCol(r, colHasDocuments); err != nil {
		return c, corrupt(core.TableCards, string(c.ID), err)
	}
	c.ResponsibleID = optionalCol(r, colResponsibleID)
	if c.CreatedAt, err = timeCol(r, colCreatedAt); err != nil {
		return c, corrupt(core.TableCards, string(c.ID), err)
	}
	if c.UpdatedAt, err = timeCol(r, colUpdatedAt); err != nil {
		return c, corrupt(core.TableCards, string(c.ID), err)
	}
	return c, nil
}

func cardsFromRows(rows []core.Row) ([]core.Card, error) {
	out := make([]core.Card, 0, len(rows))
	for _, r := range rows {
		c, err := cardFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func stageToRow(s core.Stage) core.Row {
	return core.Row{
		colID:          string(s.ID),
		colName:        s.Name,
		colProcessType: s.ProcessType,
		colPipeline:    string(s.Pipeline),
		colPosition:    int64(s.Position),
	}
}

func stageFromRow(r core.Row) (core.Stage, error) {
	s := core.Stage{
		ID:          core.StageID(stringCol(r, colID)),
		Name:        stringCol(r, colName),
		ProcessType: stringCol(r, colProcessType),
		Pipeline:    core.Pipeline(stringCol(r, colPipeline)),
	}
	pos, err := intCol(r, colPosition)
	if err != nil {
		return s, corrupt(core.TableStages, string(s.ID), err)
	}
	s.Position = pos
	return s, nil
}

func historyToRow(h core.HistoryRecord) core.Row {
	return core.Row{
		colID:          h.ID,
		colCardID:      string(h.CardID),
		colFromStageID: string(h.FromStageID),
		colToStageID:   string(h.ToStageID),
		colMovedBy:     h.MovedBy,
		colCreatedAt:   formatTime(h.CreatedAt),
	}
}

func historyFromRow(r core.Row) (core.HistoryRecord, error) {
	h := core.HistoryRecord{
		ID:          stringCol(r, colID),
		CardID:      core.CardID(stringCol(r, colCardID)),
		FromStageID: core.StageID(stringCol(r, colFromStageID)),
		ToStageID:   core.StageID(stringCol(r, colToStageID)),
		MovedBy:     stringCol(r, colMovedBy),
	}
	created, err := timeCol(r, colCreatedAt)
	if err != nil {
		return h, corrupt(core.TableHistory, h.ID, err)
	}
	h.CreatedAt = created
	return h, nil
}

// commentToRow omits author_name when the comment carries none so that
// tables without the column accept the row.
func commentToRow(c core.Comment) core.Row {
	row := core.Row{
		colID:        c.ID,
		colCardID:    string(c.CardID),
		colBody:      c.Body,
		colAuthorID:  c.AuthorID,
		colSystem:    boolInt(c.System),
		colCreatedAt: formatTime(c.CreatedAt),
	}
	if c.AuthorName != "" {
		row[colAuthorName] = c.AuthorName
	}
	return row
}

func commentFromRow(r core.Row) (core.Comment, error) {
	c := core.Comment{
		ID:         stringCol(r, colID),
		CardID:     core.CardID(stringCol(r, colCardID)),
		Body:       stringCol(r, colBody),
		AuthorID:   stringCol(r, colAuthorID),
		AuthorName: stringCol(r, colAuthorName),
	}
	var err error
	if c.System, err = boolCol(r, colSystem); err != nil {
		return c, corrupt(core.TableComments, c.ID, err)
	}
	if c.CreatedAt, err = timeCol(r, colCreatedAt); err != nil {
		return c, corrupt(core.TableComments, c.ID, err)
	}
	return c, nil
}

func corrupt(table, id string, err error) error {
	return &core.DomainError{
		Category: core.ErrCatState,
		Code:     core.CodeCorruptRow,
		Message:  fmt.Sprintf("%s row %s cannot be decoded", table, id),
		Cause:    err,
	}
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func stringCol(r core.Row, col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func optionalCol(r core.Row, col string) *string {
	if r[col] == nil {
		return nil
	}
	s := stringCol(r, col)
	return &s
}

func intCol(r core.Row, col string) (int, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

func boolCol(r core.Row, col string) (bool, error) {
	switch v := r[col].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

func timeCol(r core.Row, col string) (time.Time, error) {
	switch v := r[col].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v.UTC(), nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(timeLayout, v)
		if err != nil {
			t, err = time.Parse(time.RFC3339Nano, v)
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("column %s: %w", col, err)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}
