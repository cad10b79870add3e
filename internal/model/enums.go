package model

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// IsFinished reports whether the status is terminal.
func (s JobStatus) IsFinished() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Stage is the pipeline step a job is in.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageAcquiring  Stage = "acquiring"
	StageBuilding   Stage = "building"
	StagePackaging  Stage = "packaging"
	StageDelivering Stage = "delivering"
	StageCleaning   Stage = "cleaning"
)

// Request limits and defaults for the mashup form
const (
	MinClipCount           = 11
	MinClipDurationSeconds = 21
	DefaultClipCount       = 15
	DefaultClipDuration    = 30
)
