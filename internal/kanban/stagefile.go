package kanban

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// StageFile is the YAML seed format for a stage catalogue:
//
//	stages:
//	  - id: novo
//	    name: Novo colaborador
//	    process_type: "🟢 Ligamento"
type StageFile struct {
	Stages []StageInput `yaml:"stages"`
}

// ParseStageFile decodes a stage seed file. Unknown keys are rejected.
func ParseStageFile(r io.Reader) ([]StageInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f StageFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.ErrValidation(core.CodeInvalidStageFile, "stage file is empty")
		}
		return nil, core.ErrValidation(core.CodeInvalidStageFile, "stage file is not valid YAML").WithCause(err)
	}
	if len(f.Stages) == 0 {
		return nil, core.ErrValidation(core.CodeInvalidStageFile, "stage file lists no stages")
	}

	seen := make(map[core.StageID]bool, len(f.Stages))
	for i, in := range f.Stages {
		if in.ID == "" {
			continue
		}
		if seen[in.ID] {
			return nil, core.ErrValidation(core.CodeInvalidStageFile,
				fmt.Sprintf("stage %d repeats id %q", i+1, in.ID))
		}
		seen[in.ID] = true
	}
	return f.Stages, nil
}

// ImportResult reports which stages an import created and skipped.
type ImportResult struct {
	Created []core.Stage
	Skipped []core.StageID
}

// Import creates the stages in order. Stages whose id already exists are
// skipped; the first failing create stops the import.
func (s *Stages) Import(ctx context.Context, inputs []StageInput) (*ImportResult, error) {
	res := &ImportResult{}
	for _, in := range inputs {
		if in.ID != "" {
			_, err := s.Get(ctx, in.ID)
			if err == nil {
				res.Skipped = append(res.Skipped, in.ID)
				continue
			}
			if !core.IsCategory(err, core.ErrCatNotFound) {
				return res, err
			}
		}
		st, err := s.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("importing stage %q: %w", in.Name, err)
		}
		res.Created = append(res.Created, *st)
	}
	return res, nil
}

// Resolve finds a stage by id, by name ignoring case and accents, or by the
// best fuzzy match on its name.
func (s *Stages) Resolve(ctx context.Context, query string) (*core.Stage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.ErrValidation(core.CodeEmptyStageID, "stage is required")
	}
	stages, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	want := core.NormalizeLabel(query)
	names := make([]string, len(stages))
	for i := range stages {
		if string(stages[i].ID) == query {
			return &stages[i], nil
		}
		names[i] = core.NormalizeLabel(stages[i].Name)
	}
	for i := range stages {
		if names[i] == want {
			return &stages[i], nil
		}
	}

	matches := fuzzy.Find(want, names)
	if len(matches) == 0 {
		return nil, core.ErrStageNotFound(query)
	}
	return &stages[matches[0].Index], nil
}
