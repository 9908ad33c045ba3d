package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
)

type projectStore interface {
	GetByID(ctx context.Context, id string) (*models.ProjectDetail, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	Create(ctx context.Context, project *models.Project, tasks []models.Task, members []models.Member) error
	Update(ctx context.Context, project *models.Project) error
	AddTask(ctx context.Context, task *models.Task) error
	AddMember(ctx context.Context, member *models.Member) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	ListForUserInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Project, error)
}

// ProjectService manages projects, their tasks and memberships. Task
// windows are validated against the owning project's window before
// anything is stored.
type ProjectService struct {
	repo     projectStore
	audit    auditLogger
	logger   *zap.Logger
	validate *validator.Validate
}

// NewProjectService constructs the service.
func NewProjectService(repo projectStore, audit auditLogger, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		repo:     repo,
		audit:    audit,
		logger:   logger,
		validate: validator.New(),
	}
}

// Get loads a project with its tasks and members.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.ProjectDetail, error) {
	detail, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, err
	}
	return detail, nil
}

// List returns projects matching the filter.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	return s.repo.List(ctx, filter)
}

// ListForUser returns the projects the user can book time on inside
// the given range.
func (s *ProjectService) ListForUser(ctx context.Context, userID string, from, to time.Time) ([]models.Project, error) {
	return s.repo.ListForUserInRange(ctx, userID, from, to)
}

// Create stores a project with its initial tasks and members.
func (s *ProjectService) Create(ctx context.Context, creatorID string, req dto.CreateProjectRequest) (*models.ProjectDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project end date precedes start date")
	}

	project := models.Project{
		Title:     req.Title,
		StartDate: start,
		EndDate:   end,
		CreatedBy: creatorID,
	}

	tasks := make([]models.Task, 0, len(req.Tasks))
	for _, taskReq := range req.Tasks {
		task, err := buildTask(taskReq, start, end)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	members := make([]models.Member, 0, len(req.Members))
	for _, memberReq := range req.Members {
		members = append(members, models.Member{
			UserID:     memberReq.UserID,
			IsBillable: memberReq.IsBillable,
		})
	}

	if err := s.repo.Create(ctx, &project, tasks, members); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, creatorID, models.AuditActionProjectCreate, project.ID)
	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.Int("tasks", len(tasks)),
		zap.Int("members", len(members)))

	return s.Get(ctx, project.ID)
}

// Update rewrites project metadata. Shrinking the window below an
// existing task's window is rejected.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, req dto.UpdateProjectRequest) (*models.ProjectDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project end date precedes start date")
	}

	detail, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, task := range detail.Tasks {
		if task.StartDate.Before(start) || task.EndDate.After(end) {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("task %q falls outside the new project window", task.Title))
		}
	}

	project := detail.Project
	project.Title = req.Title
	project.StartDate = start
	project.EndDate = end
	if err := s.repo.Update(ctx, &project); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, err
	}

	s.recordAudit(ctx, userID, models.AuditActionProjectUpdate, projectID)
	return s.Get(ctx, projectID)
}

// AddTask appends a task whose window must fit the project window.
func (s *ProjectService) AddTask(ctx context.Context, projectID string, req dto.CreateTaskRequest) (*models.Task, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	detail, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	task, err := buildTask(req, detail.StartDate, detail.EndDate)
	if err != nil {
		return nil, err
	}
	task.ProjectID = projectID
	if err := s.repo.AddTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// AddMember associates a user with the project.
func (s *ProjectService) AddMember(ctx context.Context, projectID string, req dto.AddMemberRequest) (*models.Member, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}

	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}

	member := models.Member{
		ProjectID:  projectID,
		UserID:     req.UserID,
		IsBillable: req.IsBillable,
	}
	if err := s.repo.AddMember(ctx, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember flags the membership as removed.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID string) error {
	if err := s.repo.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "membership not found")
		}
		return err
	}
	return nil
}

// IsMember reports whether the user has an active membership.
func (s *ProjectService) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	return s.repo.IsMember(ctx, projectID, userID)
}

func buildTask(req dto.CreateTaskRequest, projectStart, projectEnd time.Time) (*models.Task, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("task %q end date precedes start date", req.Title))
	}
	if start.Before(projectStart) || end.After(projectEnd) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("task %q window falls outside the project window", req.Title))
	}
	return &models.Task{
		Title:     req.Title,
		StartDate: start,
		EndDate:   end,
	}, nil
}

func (s *ProjectService) recordAudit(ctx context.Context, userID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "project",
		ResourceID: &resourceID,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log failed", zap.Error(err))
	}
}
