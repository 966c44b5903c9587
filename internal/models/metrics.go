package models

import "time"

// MetricsSnapshot summarises process counters for the stats endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	LoginSuccess             uint64    `json:"login_success"`
	LoginFailure             uint64    `json:"login_failure"`
	ChatCalls                uint64    `json:"chat_calls"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
