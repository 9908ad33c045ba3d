package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/worklane/timesheet-api/internal/models"
)

const timesheetRecordColumns = `t.id, t.user_id, t.task_id, t.date, t.hours, t.status, t.manager_comments, t.created_at, t.updated_at,
	tk.title AS task_title, p.id AS project_id, p.title AS project_title`

const timesheetRecordJoins = `FROM timesheets t
JOIN tasks tk ON tk.id = t.task_id
JOIN projects p ON p.id = tk.project_id`

// TimesheetWriter is the mutation surface handed to callers inside a
// transaction. The rule engine plans its whole batch in memory and then
// applies it through this interface; a failed call rolls the batch back.
type TimesheetWriter interface {
	Insert(ctx context.Context, entry *models.TimesheetEntry) error
	Update(ctx context.Context, entry *models.TimesheetEntry) error
	UpdateStatus(ctx context.Context, id string, status models.TimesheetStatus, managerComments *string) error
}

// TimesheetRepository handles persistence for timesheet entries.
type TimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository constructs the repository.
func NewTimesheetRepository(db *sqlx.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// ListInRange returns a user's entries with date in [from, to].
func (r *TimesheetRepository) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]models.TimesheetEntry, error) {
	const query = `SELECT id, user_id, task_id, date, hours, status, manager_comments, created_at, updated_at
FROM timesheets WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`
	var rows []models.TimesheetEntry
	if err := r.db.SelectContext(ctx, &rows, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("list timesheets in range: %w", err)
	}
	return rows, nil
}

// ListForDate returns a user's entries on one calendar date.
func (r *TimesheetRepository) ListForDate(ctx context.Context, userID string, date time.Time) ([]models.TimesheetEntry, error) {
	const query = `SELECT id, user_id, task_id, date, hours, status, manager_comments, created_at, updated_at
FROM timesheets WHERE user_id = $1 AND date = $2`
	var rows []models.TimesheetEntry
	if err := r.db.SelectContext(ctx, &rows, query, userID, date); err != nil {
		return nil, fmt.Errorf("list timesheets for date: %w", err)
	}
	return rows, nil
}

// ListByStatus returns all of a user's entries with the given status.
func (r *TimesheetRepository) ListByStatus(ctx context.Context, userID string, status models.TimesheetStatus) ([]models.TimesheetEntry, error) {
	const query = `SELECT id, user_id, task_id, date, hours, status, manager_comments, created_at, updated_at
FROM timesheets WHERE user_id = $1 AND status = $2 ORDER BY date`
	var rows []models.TimesheetEntry
	if err := r.db.SelectContext(ctx, &rows, query, userID, status); err != nil {
		return nil, fmt.Errorf("list timesheets by status: %w", err)
	}
	return rows, nil
}

// ListSubmittedByIDs loads submitted entries with task/project metadata
// for the approval flow.
func (r *TimesheetRepository) ListSubmittedByIDs(ctx context.Context, ids []string) ([]models.TimesheetRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s %s WHERE t.id = ANY($1) AND t.status = $2`, timesheetRecordColumns, timesheetRecordJoins)
	var rows []models.TimesheetRecord
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids), models.TimesheetStatusSubmitted); err != nil {
		return nil, fmt.Errorf("list submitted timesheets: %w", err)
	}
	return rows, nil
}

// ListPendingForManager returns submitted entries belonging to the
// manager's reportees.
func (r *TimesheetRepository) ListPendingForManager(ctx context.Context, managerID string, filter models.TimesheetFilter) ([]models.TimesheetRecord, int, error) {
	base := timesheetRecordJoins + `
JOIN users u ON u.id = t.user_id`
	where := []string{"u.manager_id = $1", "t.status = $2"}
	args := []interface{}{managerID, models.TimesheetStatusSubmitted}

	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("t.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.ProjectID != "" {
		where = append(where, fmt.Sprintf("p.id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("t.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("t.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY t.user_id, t.date LIMIT %d OFFSET %d`,
		timesheetRecordColumns, base, whereClause, size, offset)

	var rows []models.TimesheetRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending timesheets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count pending timesheets: %w", err)
	}
	return rows, total, nil
}

// ListRecords returns entries with project/task metadata for listings
// and exports.
func (r *TimesheetRepository) ListRecords(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetRecord, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("t.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.ProjectID != "" {
		where = append(where, fmt.Sprintf("p.id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	if filter.TaskID != "" {
		where = append(where, fmt.Sprintf("t.task_id = $%d", len(args)+1))
		args = append(args, filter.TaskID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("t.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("t.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	sortColumn := "t.date"
	if filter.SortBy == "updated_at" {
		sortColumn = "t.updated_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		timesheetRecordColumns, timesheetRecordJoins, whereClause, sortColumn, order, size, offset)

	var rows []models.TimesheetRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timesheet records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", timesheetRecordJoins, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timesheet records: %w", err)
	}
	return rows, total, nil
}

// WithinTx runs fn against a transactional writer. The transaction is
// committed only when fn returns nil; any error rolls the whole batch
// back.
func (r *TimesheetRepository) WithinTx(ctx context.Context, fn func(tx TimesheetWriter) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timesheet tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&timesheetTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timesheet tx: %w", err)
	}
	committed = true
	return nil
}

type timesheetTx struct {
	tx *sqlx.Tx
}

func (w *timesheetTx) Insert(ctx context.Context, entry *models.TimesheetEntry) error {
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO timesheets (id, user_id, task_id, date, hours, status, manager_comments, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := w.tx.ExecContext(ctx, query, entry.ID, entry.UserID, entry.TaskID, entry.Date, entry.Hours, entry.Status, entry.ManagerComments, entry.CreatedAt, entry.UpdatedAt); err != nil {
		return fmt.Errorf("insert timesheet: %w", err)
	}
	return nil
}

func (w *timesheetTx) Update(ctx context.Context, entry *models.TimesheetEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timesheets SET hours = $2, status = $3, manager_comments = $4, updated_at = $5 WHERE id = $1`
	if _, err := w.tx.ExecContext(ctx, query, entry.ID, entry.Hours, entry.Status, entry.ManagerComments, entry.UpdatedAt); err != nil {
		return fmt.Errorf("update timesheet: %w", err)
	}
	return nil
}

func (w *timesheetTx) UpdateStatus(ctx context.Context, id string, status models.TimesheetStatus, managerComments *string) error {
	const query = `UPDATE timesheets SET status = $2, manager_comments = $3, updated_at = $4 WHERE id = $1`
	if _, err := w.tx.ExecContext(ctx, query, id, status, managerComments, time.Now().UTC()); err != nil {
		return fmt.Errorf("update timesheet status: %w", err)
	}
	return nil
}
