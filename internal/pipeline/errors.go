package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifies which step of a generation run failed. Callers show
// different guidance for a generation failure (nothing produced) versus a
// persistence failure (produced but not saved), so the tag is part of the
// contract, not decoration.
type Stage string

const (
	StageResolveProject Stage = "resolve_project"
	StageHydrate        Stage = "hydrate_artifacts"
	StageGenerate       Stage = "generate"
	StagePersist        Stage = "persist_output"
)

// ErrNoProject means stage 1 found neither a bound project nor any project
// owned by the user.
var ErrNoProject = errors.New("no project available for generation")

// StageError tags a failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("generation %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf extracts the stage tag, or "" when err is not stage-tagged.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
