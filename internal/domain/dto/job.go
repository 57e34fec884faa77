package dto

import (
	"time"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// RunAccepted is returned by POST /api/v1/pipelines/:name/runs.
type RunAccepted struct {
	JobID    string `json:"job_id" example:"5f0c7d1e-8a7e-4b59-9d1d-6b1f0c3b2a11"`
	Pipeline string `json:"pipeline" example:"segment"`
	Status   string `json:"status" example:"started"`
}

// JobResponse is returned by GET /api/v1/jobs/:id.
type JobResponse struct {
	JobID       string    `json:"job_id"`
	Pipeline    string    `json:"pipeline"`
	Percent     float64   `json:"percent"`
	CurrentItem string    `json:"current_item"`
	Done        bool      `json:"done"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewJobResponse maps stored progress onto the API shape.
func NewJobResponse(p models.Progress) JobResponse {
	return JobResponse{
		JobID:       p.JobID,
		Pipeline:    p.Pipeline,
		Percent:     p.Percent,
		CurrentItem: p.CurrentItem,
		Done:        p.Done,
		UpdatedAt:   p.UpdatedAt,
	}
}
