package model

import "time"

// Job represents one mashup generation run
type Job struct {
	ID          string        `json:"id"`
	Status      JobStatus     `json:"status"`
	Stage       Stage         `json:"stage"`
	Progress    int           `json:"progress"`
	CurrentStep string        `json:"currentStep,omitempty"`
	Artist      string        `json:"artist"`
	Email       string        `json:"email"`
	Error       *string       `json:"error,omitempty"`
	Warning     string        `json:"warning,omitempty"`
	Result      *MashupResult `json:"result,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}
