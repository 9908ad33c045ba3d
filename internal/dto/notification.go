package dto

// NotificationCard summarises one contiguous run of reviewed dates for
// a (user, project) pair. One card is dispatched per run.
type NotificationCard struct {
	UserID          string `json:"user_id"`
	ProjectID       string `json:"project_id"`
	ProjectTitle    string `json:"project_title"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	DateRange       string `json:"date_range"`
	TotalHours      int    `json:"total_hours"`
	Status          string `json:"status"`
	ManagerComments string `json:"manager_comments,omitempty"`
}
