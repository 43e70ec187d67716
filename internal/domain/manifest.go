package domain

import "time"

// Manifest announces a freshly written dashboard artifact.
type Manifest struct {
	RunID        string    `json:"run_id"`
	Region       string    `json:"region"`
	Times        []string  `json:"times"`
	Variables    []string  `json:"variables"`
	Shape        [3]int    `json:"shape"`
	Path         string    `json:"path"`
	Bytes        int64     `json:"bytes"`
	SHA256       string    `json:"sha256"`
	Masked       bool      `json:"masked"`
	BoundaryPath string    `json:"boundary_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
