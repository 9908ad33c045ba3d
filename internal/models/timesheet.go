package models

import "time"

// TimesheetStatus tracks the lifecycle of a timesheet entry.
type TimesheetStatus string

const (
	TimesheetStatusNone      TimesheetStatus = "NONE"
	TimesheetStatusSaved     TimesheetStatus = "SAVED"
	TimesheetStatusSubmitted TimesheetStatus = "SUBMITTED"
	TimesheetStatusApproved  TimesheetStatus = "APPROVED"
	TimesheetStatusRejected  TimesheetStatus = "REJECTED"
)

// Valid returns true when the status is a supported value.
func (s TimesheetStatus) Valid() bool {
	switch s {
	case TimesheetStatusNone, TimesheetStatusSaved, TimesheetStatusSubmitted,
		TimesheetStatusApproved, TimesheetStatusRejected:
		return true
	default:
		return false
	}
}

// TimesheetEntry is the hours a user logged against one task on one
// calendar date. Entries are never deleted; a save with zero hours
// resets the status to NONE instead. One row per (user, task, date).
type TimesheetEntry struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	TaskID          string          `db:"task_id" json:"task_id"`
	Date            time.Time       `db:"date" json:"date"`
	Hours           int             `db:"hours" json:"hours"`
	Status          TimesheetStatus `db:"status" json:"status"`
	ManagerComments *string         `db:"manager_comments" json:"manager_comments,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// TimesheetRecord extends an entry with task and project metadata for
// listings and notification payloads.
type TimesheetRecord struct {
	TimesheetEntry
	TaskTitle    string `db:"task_title" json:"task_title"`
	ProjectID    string `db:"project_id" json:"project_id"`
	ProjectTitle string `db:"project_title" json:"project_title"`
}

// TimesheetFilter scopes listing queries.
type TimesheetFilter struct {
	UserID    string
	ProjectID string
	TaskID    string
	Status    *TimesheetStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ConversationReference is the stored Teams conversation handle for a
// user. Users without one simply never receive proactive messages.
type ConversationReference struct {
	UserID         string    `db:"user_id" json:"user_id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	ServiceURL     string    `db:"service_url" json:"service_url"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
