package jobs

import "time"

// Kind identifies what a job does.
type Kind string

const (
	KindCreateProject Kind = "create_project"
	KindRender        Kind = "render"
	KindResume        Kind = "resume"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the job has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one persisted job record.
type Job struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	Project       string    `json:"project"`
	RenderVersion string    `json:"render_version,omitempty"`
	Shot          string    `json:"shot,omitempty"`
	Status        Status    `json:"status"`
	FramesTotal   int       `json:"frames_total"`
	FramesDone    int       `json:"frames_done"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
