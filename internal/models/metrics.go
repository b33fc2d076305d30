package models

import "time"

// SystemMetrics is a point-in-time summary of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DiffRuns                 uint64    `json:"diff_runs"`
	Challenges               uint64    `json:"challenges"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
