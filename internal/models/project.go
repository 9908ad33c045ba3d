package models

import "time"

// Project defines the validity window within which timesheet entries
// for its tasks may be recorded. Owned by its creating manager.
type Project struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Task bounds the valid date range for entries against it. The task
// window must fall within the parent project's window.
type Task struct {
	ID              string    `db:"id" json:"id"`
	ProjectID       string    `db:"project_id" json:"project_id"`
	Title           string    `db:"title" json:"title"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	EndDate         time.Time `db:"end_date" json:"end_date"`
	IsAddedByMember bool      `db:"is_added_by_member" json:"is_added_by_member"`
	MemberMappingID *string   `db:"member_mapping_id" json:"member_mapping_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Member associates a user with a project. Removed members keep their
// row with IsRemoved set so historical entries stay attributable.
type Member struct {
	ID         string    `db:"id" json:"id"`
	ProjectID  string    `db:"project_id" json:"project_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	IsBillable bool      `db:"is_billable" json:"is_billable"`
	IsRemoved  bool      `db:"is_removed" json:"is_removed"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectDetail bundles a project with its tasks and members.
type ProjectDetail struct {
	Project
	Tasks   []Task   `json:"tasks"`
	Members []Member `json:"members"`
}

// ProjectFilter scopes project listing queries.
type ProjectFilter struct {
	CreatedBy string
	MemberID  string
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	Page      int
	PageSize  int
}
