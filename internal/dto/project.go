package dto

// CreateProjectRequest creates a project with its initial tasks and
// members. Task windows must fall inside the project window.
type CreateProjectRequest struct {
	Title     string              `json:"title" validate:"required"`
	StartDate string              `json:"start_date" validate:"required"`
	EndDate   string              `json:"end_date" validate:"required"`
	Tasks     []CreateTaskRequest `json:"tasks" validate:"dive"`
	Members   []AddMemberRequest  `json:"members" validate:"dive"`
}

// UpdateProjectRequest updates project metadata.
type UpdateProjectRequest struct {
	Title     string `json:"title" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// CreateTaskRequest adds a task to a project.
type CreateTaskRequest struct {
	Title     string `json:"title" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// AddMemberRequest associates a user with a project.
type AddMemberRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	IsBillable bool   `json:"is_billable"`
}
