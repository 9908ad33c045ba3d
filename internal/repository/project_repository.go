package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/worklane/timesheet-api/internal/models"
)

// TaskWindow carries the validity window an entry date must fall into,
// joined with the owning project's window and title.
type TaskWindow struct {
	TaskID       string    `db:"task_id"`
	ProjectID    string    `db:"project_id"`
	ProjectTitle string    `db:"project_title"`
	TaskStart    time.Time `db:"task_start"`
	TaskEnd      time.Time `db:"task_end"`
	ProjectStart time.Time `db:"project_start"`
	ProjectEnd   time.Time `db:"project_end"`
}

// Contains reports whether date lies inside both the task window and
// the owning project window.
func (w TaskWindow) Contains(date time.Time) bool {
	if date.Before(w.TaskStart) || date.After(w.TaskEnd) {
		return false
	}
	if date.Before(w.ProjectStart) || date.After(w.ProjectEnd) {
		return false
	}
	return true
}

// ProjectRepository handles persistence for projects, tasks, members.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ListTaskWindows resolves the validity windows for the given tasks.
func (r *ProjectRepository) ListTaskWindows(ctx context.Context, taskIDs []string) ([]TaskWindow, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT tk.id AS task_id, p.id AS project_id, p.title AS project_title,
	tk.start_date AS task_start, tk.end_date AS task_end,
	p.start_date AS project_start, p.end_date AS project_end
FROM tasks tk
JOIN projects p ON p.id = tk.project_id
WHERE tk.id = ANY($1)`
	var rows []TaskWindow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(taskIDs)); err != nil {
		return nil, fmt.Errorf("list task windows: %w", err)
	}
	return rows, nil
}

// ListForUserInRange returns projects the user is an active member of
// whose window overlaps [from, to].
func (r *ProjectRepository) ListForUserInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Project, error) {
	const query = `SELECT p.id, p.title, p.start_date, p.end_date, p.created_by, p.created_at, p.updated_at
FROM projects p
JOIN members m ON m.project_id = p.id
WHERE m.user_id = $1 AND m.is_removed = FALSE AND p.start_date <= $3 AND p.end_date >= $2
ORDER BY p.start_date`
	var rows []models.Project
	if err := r.db.SelectContext(ctx, &rows, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("list projects for user in range: %w", err)
	}
	return rows, nil
}

// GetByID loads a project with its tasks and members.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.ProjectDetail, error) {
	const projectQuery = `SELECT id, title, start_date, end_date, created_by, created_at, updated_at FROM projects WHERE id = $1 LIMIT 1`
	var detail models.ProjectDetail
	if err := r.db.GetContext(ctx, &detail.Project, projectQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	const taskQuery = `SELECT id, project_id, title, start_date, end_date, is_added_by_member, member_mapping_id, created_at, updated_at
FROM tasks WHERE project_id = $1 ORDER BY start_date`
	if err := r.db.SelectContext(ctx, &detail.Tasks, taskQuery, id); err != nil {
		return nil, fmt.Errorf("get project tasks: %w", err)
	}

	const memberQuery = `SELECT id, project_id, user_id, is_billable, is_removed, created_at, updated_at
FROM members WHERE project_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &detail.Members, memberQuery, id); err != nil {
		return nil, fmt.Errorf("get project members: %w", err)
	}
	return &detail, nil
}

// List returns projects matching the filter with a total count.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	base := `FROM projects p`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("p.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.MemberID != "" {
		base += ` JOIN members m ON m.project_id = p.id`
		where = append(where, fmt.Sprintf("m.user_id = $%d AND m.is_removed = FALSE", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("p.end_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("p.start_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("LOWER(p.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 25
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.title, p.start_date, p.end_date, p.created_by, p.created_at, p.updated_at
%s WHERE %s ORDER BY p.start_date DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var rows []models.Project
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return rows, total, nil
}

// Create persists a project with its initial tasks and members in one
// transaction.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project, tasks []models.Task, members []models.Member) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.CreatedAt = now
	project.UpdatedAt = now
	const projectQuery = `INSERT INTO projects (id, title, start_date, end_date, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, projectQuery, project.ID, project.Title, project.StartDate, project.EndDate, project.CreatedBy, project.CreatedAt, project.UpdatedAt); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	const taskQuery = `INSERT INTO tasks (id, project_id, title, start_date, end_date, is_added_by_member, member_mapping_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range tasks {
		task := &tasks[i]
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		task.ProjectID = project.ID
		task.CreatedAt = now
		task.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, taskQuery, task.ID, task.ProjectID, task.Title, task.StartDate, task.EndDate, task.IsAddedByMember, task.MemberMappingID, task.CreatedAt, task.UpdatedAt); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
	}

	const memberQuery = `INSERT INTO members (id, project_id, user_id, is_billable, is_removed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range members {
		member := &members[i]
		if member.ID == "" {
			member.ID = uuid.NewString()
		}
		member.ProjectID = project.ID
		member.CreatedAt = now
		member.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, memberQuery, member.ID, member.ProjectID, member.UserID, member.IsBillable, member.IsRemoved, member.CreatedAt, member.UpdatedAt); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create project: %w", err)
	}
	committed = true
	return nil
}

// Update rewrites project metadata.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects SET title = $2, start_date = $3, end_date = $4, updated_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, project.ID, project.Title, project.StartDate, project.EndDate, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddTask appends a task to an existing project.
func (r *ProjectRepository) AddTask(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	const query = `INSERT INTO tasks (id, project_id, title, start_date, end_date, is_added_by_member, member_mapping_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query, task.ID, task.ProjectID, task.Title, task.StartDate, task.EndDate, task.IsAddedByMember, task.MemberMappingID, task.CreatedAt, task.UpdatedAt); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// AddMember associates a user with a project, reviving a previously
// removed membership when one exists.
func (r *ProjectRepository) AddMember(ctx context.Context, member *models.Member) error {
	now := time.Now().UTC()
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	member.CreatedAt = now
	member.UpdatedAt = now
	const query = `INSERT INTO members (id, project_id, user_id, is_billable, is_removed, created_at, updated_at)
VALUES ($1, $2, $3, $4, FALSE, $5, $6)
ON CONFLICT (project_id, user_id)
DO UPDATE SET is_billable = EXCLUDED.is_billable, is_removed = FALSE, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, member.ID, member.ProjectID, member.UserID, member.IsBillable, member.CreatedAt, member.UpdatedAt); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember flags the membership as removed without deleting it.
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	const query = `UPDATE members SET is_removed = TRUE, updated_at = $3 WHERE project_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, projectID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsMember reports whether the user has an active membership.
func (r *ProjectRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM members WHERE project_id = $1 AND user_id = $2 AND is_removed = FALSE)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, projectID, userID); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}
