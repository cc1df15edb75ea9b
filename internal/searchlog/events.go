// Package searchlog implements the fire-and-forget search-event log: a
// buffered collector publishing events to Kafka and a consumer that upserts
// per-day, per-term counts into PostgreSQL. Failures anywhere in this
// pipeline are logged and swallowed; they never surface to the searcher.
package searchlog

import "time"

// Event records one search interaction.
type Event struct {
	Term           string    `json:"term"`
	NormalizedTerm string    `json:"normalized_term"`
	ResultCount    int       `json:"result_count"`
	IsFuzzy        bool      `json:"is_fuzzy"`
	Unavailable    bool      `json:"unavailable"`
	LatencyMs      int64     `json:"latency_ms"`
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id,omitempty"`
}

// LogRow is one aggregated row of the search_log table.
type LogRow struct {
	LogDate         string    `json:"log_date"`
	Term            string    `json:"term"`
	SearchCount     int       `json:"search_count"`
	LastResultCount int       `json:"last_result_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}
