package kanban

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// StageInput describes a stage to create.
type StageInput struct {
	// ID is optional; a UUID is generated when empty.
	ID          core.StageID `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string       `json:"name" yaml:"name"`
	ProcessType string       `json:"process_type" yaml:"process_type"`
	// Pipeline overrides classification of ProcessType when set.
	Pipeline core.Pipeline `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	// Position is the column order; nil appends after the last stage.
	Position *int `json:"position,omitempty" yaml:"position,omitempty"`
}

// Stages is the stage catalogue.
type Stages struct {
	gw   core.Gateway
	opts options
}

// NewStages creates a stage catalogue on gw.
func NewStages(gw core.Gateway, opts ...Option) *Stages {
	return &Stages{gw: gw, opts: buildOptions(opts)}
}

// List returns every stage in column order.
func (s *Stages) List(ctx context.Context) ([]core.Stage, error) {
	rows, err := s.gw.Select(ctx, core.TableStages, nil, core.Asc(colPosition), core.Asc(colName))
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	out := make([]core.Stage, 0, len(rows))
	for _, r := range rows {
		st, err := stageFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Get returns one stage.
func (s *Stages) Get(ctx context.Context, id core.StageID) (*core.Stage, error) {
	row, err := s.gw.SelectOne(ctx, core.TableStages, core.Where(core.Eq(colID, string(id))))
	if errors.Is(err, core.ErrRowNotFound) {
		return nil, core.ErrStageNotFound(string(id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading stage %s: %w", id, err)
	}
	st, err := stageFromRow(row)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Create stores a new stage. The pipeline tag is fixed here: an explicit
// Pipeline wins, otherwise ProcessType is classified.
func (s *Stages) Create(ctx context.Context, in StageInput) (*core.Stage, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, core.ErrValidation(core.CodeEmptyStageName, "stage name is required")
	}

	pipeline := in.Pipeline
	switch pipeline {
	case core.PipelineNone:
		pipeline = core.ClassifyProcessType(in.ProcessType)
	case core.PipelineEntry, core.PipelineExit:
	default:
		parsed, err := core.ParsePipeline(string(pipeline))
		if err != nil {
			return nil, err
		}
		pipeline = parsed
	}

	stage := core.Stage{
		ID:          in.ID,
		Name:        name,
		ProcessType: strings.TrimSpace(in.ProcessType),
		Pipeline:    pipeline,
	}
	if stage.ID == "" {
		stage.ID = core.StageID(s.opts.newID())
	}

	if in.Position != nil {
		stage.Position = *in.Position
	} else {
		existing, err := s.gw.Select(ctx, core.TableStages, nil)
		if err != nil {
			return nil, fmt.Errorf("counting stages: %w", err)
		}
		stage.Position = len(existing)
	}

	row, err := s.gw.Insert(ctx, core.TableStages, stageToRow(stage))
	if errors.Is(err, core.ErrAccessDenied) {
		return nil, core.ErrPermissionDenied(core.TableStages).WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting stage: %w", err)
	}
	stored, err := stageFromRow(row)
	if err != nil {
		return nil, err
	}

	s.opts.logger.Info("stage created",
		"stage_id", stored.ID,
		"name", stored.Name,
		"pipeline", stored.Pipeline,
	)
	return &stored, nil
}

// IDsFor returns the ids of the stages belonging to pipeline.
// Stages that classify into neither pipeline are never returned.
func (s *Stages) IDsFor(ctx context.Context, pipeline core.Pipeline) ([]core.StageID, error) {
	stages, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []core.StageID
	for _, st := range stages {
		if p := st.ResolvedPipeline(); p != core.PipelineNone && p == pipeline {
			ids = append(ids, st.ID)
		}
	}
	return ids, nil
}

// Name returns the display name of a stage, or its id when the stage cannot
// be loaded.
func (s *Stages) Name(ctx context.Context, id core.StageID) (string, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return string(id), err
	}
	if st.Name == "" {
		return string(id), nil
	}
	return st.Name, nil
}
