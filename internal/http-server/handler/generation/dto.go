package generation

import "time"

type EnqueueRequest struct {
	Categories []string `json:"categories" validate:"omitempty,dive,required"`
	Covers     *bool    `json:"covers"`
}

type RunRequest struct {
	ID string `validate:"required,uuid"`
}

type TaskResponse struct {
	ID          string    `json:"id"`
	Categories  []string  `json:"categories"`
	Covers      bool      `json:"covers"`
	RequestedAt time.Time `json:"requested_at"`
}

type RunResponse struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id,omitempty"`
	Status     string    `json:"status"`
	Records    int       `json:"records"`
	Skipped    int       `json:"skipped"`
	Covers     int       `json:"covers"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}
