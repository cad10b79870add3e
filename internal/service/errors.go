package service

import (
	"errors"
	"fmt"

	"github.com/makeasinger/mashup/internal/model"
)

var (
	// ErrNoTracks is returned when the search left no audio on disk
	ErrNoTracks = errors.New("no tracks were found for this artist")
	// ErrEmptyOutput is returned when an external step did not produce its file
	ErrEmptyOutput = errors.New("expected output file is missing or empty")
	// ErrBusy is returned while another mashup job holds the lock
	ErrBusy = errors.New("a mashup is already being generated")
	// ErrJobNotFound is returned for unknown job ids
	ErrJobNotFound = errors.New("job not found")
)

// StageError ties a pipeline failure to the stage it happened in
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage model.Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage an error came from, or StageIdle.
func FailedStage(err error) model.Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return model.StageIdle
}

// FailureMessage renders a job failure for the requester.
func FailureMessage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return fmt.Sprintf("Something went wrong: %v", se.Err)
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}
