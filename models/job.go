package models

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// ImportJob tracks an asynchronous import from upload to result.
type ImportJob struct {
	ID        string         `json:"id"`
	Module    string         `json:"module"`
	ActorID   string         `json:"actor_id"`
	FileKey   string         `json:"file_key"`
	FileName  string         `json:"file_name"`
	Options   ImportOptions  `json:"options"`
	Status    JobStatus      `json:"status"`
	Error     string         `json:"error,omitempty"`
	Progress  *ChunkProgress `json:"progress,omitempty"`
	Result    *ImportResult  `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ImportCompletedEvent is published after every finished import.
type ImportCompletedEvent struct {
	Type       string    `json:"type"`
	Module     string    `json:"module"`
	ActorID    string    `json:"actor_id"`
	JobID      string    `json:"job_id,omitempty"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Cancelled  bool      `json:"cancelled"`
	FinishedAt time.Time `json:"finished_at"`
}

const EventImportCompleted = "import.completed"
