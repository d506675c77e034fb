package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StageID uniquely identifies a stage column.
type StageID string

// Pipeline is the process a stage belongs to.
type Pipeline string

const (
	PipelineNone  Pipeline = ""
	PipelineEntry Pipeline = "entry"
	PipelineExit  Pipeline = "exit"
)

// Stage is a named step of a pipeline.
// ProcessType keeps the raw classifier text as entered; Pipeline is the tag
// derived from it when the stage was created.
type Stage struct {
	ID          StageID  `json:"id"`
	Name        string   `json:"name"`
	ProcessType string   `json:"process_type"`
	Pipeline    Pipeline `json:"pipeline"`
	Position    int      `json:"position"`
}

// ResolvedPipeline returns the stored tag, classifying the raw process type
// for rows written before the tag existed.
func (s Stage) ResolvedPipeline() Pipeline {
	if s.Pipeline != PipelineNone {
		return s.Pipeline
	}
	return ClassifyProcessType(s.ProcessType)
}

// ParsePipeline parses a process-type request tag. The empty string means
// "no pipeline filter" and returns PipelineNone.
func ParsePipeline(s string) (Pipeline, error) {
	switch NormalizeLabel(s) {
	case "":
		return PipelineNone, nil
	case "entry", "entrada", "onboarding", "admissao":
		return PipelineEntry, nil
	case "exit", "saida", "offboarding", "desligamento":
		return PipelineExit, nil
	}
	return PipelineNone, ErrValidation(CodeInvalidPipeline,
		"process type must be one of: entry, exit").WithDetail("process", s)
}

// ClassifyProcessType maps a free-text stage classifier onto a pipeline.
// Entry labels must not mention desligado anywhere; stages matching neither
// family return PipelineNone.
func ClassifyProcessType(raw string) Pipeline {
	label := NormalizeLabel(raw)
	switch {
	case strings.HasPrefix(label, "desligado"), strings.Contains(label, "desligamento"):
		return PipelineExit
	case strings.Contains(label, "desligado"):
		return PipelineNone
	case strings.HasPrefix(label, "ligado"), strings.Contains(label, "ligamento"):
		return PipelineEntry
	}
	return PipelineNone
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// NormalizeLabel folds a label for comparison: diacritics and symbols
// (emoji included) are removed, runs of space collapse, and the result is
// lower-cased.
func NormalizeLabel(s string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			space = true
		}
	}
	return b.String()
}
