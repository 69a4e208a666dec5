package api

import (
	"dccpipe/internal/jobs"
	"dccpipe/internal/metadata"
	"dccpipe/internal/project"
	"dccpipe/internal/workflow"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool                   `json:"running"`
	PID          int                    `json:"pid"`
	RootDir      string                 `json:"root_dir"`
	JobsDBPath   string                 `json:"jobs_db_path"`
	LockFilePath string                 `json:"lock_file_path"`
	Workflow     workflow.StatusSummary `json:"workflow"`
}

// ProjectListResponse lists project names.
type ProjectListResponse struct {
	Projects []string `json:"projects"`
}

// ProjectResponse carries the manifest and its browsable outline.
type ProjectResponse struct {
	Project           *metadata.Document `json:"project"`
	Tree              project.Tree       `json:"tree"`
	MalformedVersions []string           `json:"malformed_versions,omitempty"`
	ShotIssues        []string           `json:"shot_issues,omitempty"`
}

// ShotRequest adds a shot. Range ("10-20" or "7") takes precedence over
// Start and End.
type ShotRequest struct {
	Name  string `json:"name"`
	Range string `json:"range,omitempty"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

// ShotResponse returns the stored shot.
type ShotResponse struct {
	Shot metadata.Shot `json:"shot"`
}

// RenderListResponse lists render version ids in order.
type RenderListResponse struct {
	Versions []string `json:"versions"`
	Latest   string   `json:"latest,omitempty"`
}

// RenderVersionResponse describes one render version.
type RenderVersionResponse struct {
	ID          string                `json:"id"`
	Record      metadata.RenderRecord `json:"record"`
	FramesTotal int                   `json:"frames_total"`
	Complete    bool                  `json:"complete"`
}

// JobResponse wraps one job record.
type JobResponse struct {
	Job *jobs.Job `json:"job"`
}

// JobListResponse wraps a collection of job records.
type JobListResponse struct {
	Jobs []*jobs.Job `json:"jobs"`
}
