package models

import "time"

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether no further transitions can happen from s
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task represents one submitted document's compliance check
type Task struct {
	ID           string      `json:"id"`
	Status       TaskStatus  `json:"status"`
	Filename     string      `json:"filename"`
	Report       *TaskReport `json:"report,omitempty"`
	OriginalText string      `json:"original_text,omitempty"`
	NotifyEmail  string      `json:"notify_email,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TaskReport holds whatever a terminal task carries in its report slot:
// the compliance report on success, an error payload on failure.
type TaskReport struct {
	Compliance *ComplianceReport
	Error      *ErrorReport
}

// ErrorReport is stored on failed tasks
type ErrorReport struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// NewErrorReport builds the payload stored on a failed task
func NewErrorReport(err error) *ErrorReport {
	return &ErrorReport{
		Error:   "Failed to process document.",
		Details: err.Error(),
	}
}
