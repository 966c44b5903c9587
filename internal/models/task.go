package models

import "time"

// TaskRequest submits a background task with free-form arguments.
type TaskRequest struct {
	Args   []interface{}          `json:"args"`
	Kwargs map[string]interface{} `json:"kwargs"`
}

// TaskAck acknowledges an accepted task.
type TaskAck struct {
	ID      string                 `json:"id"`
	Message string                 `json:"message"`
	Args    []interface{}          `json:"args"`
	Kwargs  map[string]interface{} `json:"kwargs"`
	At      time.Time              `json:"at"`
}
