package models

import "time"

// Progress is the last reported state of a pipeline run.
//
// swagger:model Progress
type Progress struct {
	JobID       string    `json:"job_id" example:"5f0c7d1e-8a7e-4b59-9d1d-6b1f0c3b2a11"`
	Pipeline    string    `json:"pipeline" example:"segment"`
	Percent     float64   `json:"percent" example:"42.5"`
	CurrentItem string    `json:"current_item" example:"batch 3/8: raw/20240102/DT20240102.csv"`
	Done        bool      `json:"done"`
	UpdatedAt   time.Time `json:"updated_at"`
}
