package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/internal/repository"
	"github.com/worklane/timesheet-api/pkg/config"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
)

type timesheetStore interface {
	ListInRange(ctx context.Context, userID string, from, to time.Time) ([]models.TimesheetEntry, error)
	ListForDate(ctx context.Context, userID string, date time.Time) ([]models.TimesheetEntry, error)
	ListByStatus(ctx context.Context, userID string, status models.TimesheetStatus) ([]models.TimesheetEntry, error)
	ListRecords(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetRecord, int, error)
	WithinTx(ctx context.Context, fn func(tx repository.TimesheetWriter) error) error
}

type taskWindowStore interface {
	ListTaskWindows(ctx context.Context, taskIDs []string) ([]repository.TaskWindow, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// TimesheetService runs the save, submit and duplicate flows. Dates
// failing a business rule are skipped and reported per date; only
// infrastructure failures abort a batch.
type TimesheetService struct {
	repo     timesheetStore
	projects taskWindowStore
	audit    auditLogger
	metrics  *MetricsService
	cfg      config.TimesheetConfig
	logger   *zap.Logger
	validate *validator.Validate
}

// NewTimesheetService constructs the service. Metrics may be nil.
func NewTimesheetService(repo timesheetStore, projects taskWindowStore, audit auditLogger, metrics *MetricsService, cfg config.TimesheetConfig, logger *zap.Logger) *TimesheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimesheetService{
		repo:     repo,
		projects: projects,
		audit:    audit,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
	}
}

type entryKey struct {
	taskID string
	date   time.Time
}

// Save stores a batch of draft efforts. Frozen dates, dates outside a
// task's validity window and dates that would break an effort limit
// are skipped individually; the surviving dates are written in a
// single transaction. Updating an effort to zero hours resets the
// entry's status to NONE instead of deleting it.
func (s *TimesheetService) Save(ctx context.Context, userID string, req dto.SaveTimesheetRequest) (*dto.SaveTimesheetResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save request")
	}

	clientDate, err := parseDate(req.ClientDate)
	if err != nil {
		return nil, err
	}

	batch := make(map[time.Time][]dto.EffortItem, len(req.Entries))
	dates := make([]time.Time, 0, len(req.Entries))
	taskIDs := make([]string, 0)
	seenTasks := make(map[string]struct{})
	for _, entry := range req.Entries {
		date, err := parseDate(entry.Date)
		if err != nil {
			return nil, err
		}
		if _, dup := batch[date]; !dup {
			dates = append(dates, date)
		}
		batch[date] = append(batch[date], entry.Efforts...)
		for _, effort := range entry.Efforts {
			if _, seen := seenTasks[effort.TaskID]; !seen {
				seenTasks[effort.TaskID] = struct{}{}
				taskIDs = append(taskIDs, effort.TaskID)
			}
		}
	}

	windows, err := s.taskWindows(ctx, taskIDs)
	if err != nil {
		return nil, err
	}

	open := make(map[time.Time]struct{})
	for _, d := range NotYetFrozenDates(dates, clientDate, s.cfg.FreezeDayOfMonth) {
		open[d] = struct{}{}
	}

	ledger, existing, err := s.snapshot(ctx, userID, dates)
	if err != nil {
		return nil, err
	}

	resp := &dto.SaveTimesheetResponse{Saved: make([]string, 0, len(dates))}
	var plan []plannedWrite
	for _, date := range dates {
		efforts := batch[date]
		if outcome := s.checkDate(date, efforts, windows, open, ledger, true); outcome != nil {
			resp.Skipped = append(resp.Skipped, *outcome)
			s.metrics.RecordDateSkipped(string(outcome.Reason))
			continue
		}

		for _, effort := range efforts {
			plan = append(plan, plannedWrite{
				date:     date,
				taskID:   effort.TaskID,
				hours:    effort.Hours,
				existing: existing[entryKey{taskID: effort.TaskID, date: date}],
			})
		}
		resp.Saved = append(resp.Saved, date.Format(dto.DateLayout))
	}

	if err := s.applyPlan(ctx, userID, plan); err != nil {
		return nil, err
	}
	s.metrics.RecordEntriesSaved(len(plan))

	s.logger.Info("timesheet saved",
		zap.String("user_id", userID),
		zap.Int("saved_dates", len(resp.Saved)),
		zap.Int("skipped_dates", len(resp.Skipped)))
	return resp, nil
}

// Submit moves every still-open SAVED entry to SUBMITTED. Saved
// entries on frozen dates stay saved; when nothing remains to submit
// the call fails with ErrNothingToSubmit.
func (s *TimesheetService) Submit(ctx context.Context, userID string, req dto.SubmitTimesheetRequest) (*dto.SubmitTimesheetResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit request")
	}

	clientDate, err := parseDate(req.ClientDate)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.ListByStatus(ctx, userID, models.TimesheetStatusSaved)
	if err != nil {
		return nil, err
	}

	open := make(map[time.Time]struct{})
	savedDates := make([]time.Time, 0, len(saved))
	for _, entry := range saved {
		savedDates = append(savedDates, entry.Date)
	}
	for _, d := range NotYetFrozenDates(savedDates, clientDate, s.cfg.FreezeDayOfMonth) {
		open[d] = struct{}{}
	}

	var submittable []models.TimesheetEntry
	for _, entry := range saved {
		if _, ok := open[startOfDay(entry.Date)]; ok {
			submittable = append(submittable, entry)
		}
	}
	if len(submittable) == 0 {
		return nil, appErrors.ErrNothingToSubmit
	}

	err = s.repo.WithinTx(ctx, func(tx repository.TimesheetWriter) error {
		for _, entry := range submittable {
			if err := tx.UpdateStatus(ctx, entry.ID, models.TimesheetStatusSubmitted, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, userID, models.AuditActionTimesheetSubmit, fmt.Sprintf("%d entries", len(submittable)))

	s.logger.Info("timesheet submitted",
		zap.String("user_id", userID),
		zap.Int("entries", len(submittable)))
	return &dto.SubmitTimesheetResponse{Submitted: len(submittable)}, nil
}

// Duplicate copies the source date's efforts onto each target date.
// Targets are filtered by the freeze window, the task validity windows
// and the weekly limit; the daily limit is deliberately not rechecked
// here, matching the save-time validation the source efforts already
// passed.
func (s *TimesheetService) Duplicate(ctx context.Context, userID string, req dto.DuplicateEffortsRequest) (*dto.DuplicateEffortsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid duplicate request")
	}

	clientDate, err := parseDate(req.ClientDate)
	if err != nil {
		return nil, err
	}
	sourceDate, err := parseDate(req.SourceDate)
	if err != nil {
		return nil, err
	}

	sourceEntries, err := s.repo.ListForDate(ctx, userID, sourceDate)
	if err != nil {
		return nil, err
	}
	var source []models.TimesheetEntry
	for _, entry := range sourceEntries {
		if entry.Hours > 0 {
			source = append(source, entry)
		}
	}
	if len(source) == 0 {
		return nil, appErrors.ErrNoSourceEfforts
	}

	targets := make([]time.Time, 0, len(req.TargetDates))
	for _, raw := range req.TargetDates {
		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, date)
	}

	taskIDs := make([]string, 0, len(source))
	efforts := make([]dto.EffortItem, 0, len(source))
	for _, entry := range source {
		taskIDs = append(taskIDs, entry.TaskID)
		efforts = append(efforts, dto.EffortItem{TaskID: entry.TaskID, Hours: entry.Hours})
	}
	windows, err := s.taskWindows(ctx, taskIDs)
	if err != nil {
		return nil, err
	}

	open := make(map[time.Time]struct{})
	for _, d := range NotYetFrozenDates(targets, clientDate, s.cfg.FreezeDayOfMonth) {
		open[d] = struct{}{}
	}

	ledger, existing, err := s.snapshot(ctx, userID, targets)
	if err != nil {
		return nil, err
	}

	resp := &dto.DuplicateEffortsResponse{Duplicated: make([]string, 0, len(targets))}
	var plan []plannedWrite
	for _, target := range targets {
		if target.Equal(sourceDate) {
			outcome := dto.DateOutcome{
				Date:   target.Format(dto.DateLayout),
				Result: dto.ResultSkipped,
				Reason: dto.SkipReasonSourceDate,
			}
			resp.Skipped = append(resp.Skipped, outcome)
			s.metrics.RecordDateSkipped(string(outcome.Reason))
			continue
		}
		if outcome := s.checkDate(target, efforts, windows, open, ledger, false); outcome != nil {
			resp.Skipped = append(resp.Skipped, *outcome)
			s.metrics.RecordDateSkipped(string(outcome.Reason))
			continue
		}

		for _, effort := range efforts {
			plan = append(plan, plannedWrite{
				date:     target,
				taskID:   effort.TaskID,
				hours:    effort.Hours,
				existing: existing[entryKey{taskID: effort.TaskID, date: target}],
			})
		}
		resp.Duplicated = append(resp.Duplicated, target.Format(dto.DateLayout))
	}

	if err := s.applyPlan(ctx, userID, plan); err != nil {
		return nil, err
	}
	s.metrics.RecordEntriesSaved(len(plan))

	s.logger.Info("timesheet duplicated",
		zap.String("user_id", userID),
		zap.String("source_date", req.SourceDate),
		zap.Int("duplicated_dates", len(resp.Duplicated)),
		zap.Int("skipped_dates", len(resp.Skipped)))
	return resp, nil
}

// ListRecords exposes filtered timesheet listings for the API surface.
func (s *TimesheetService) ListRecords(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetRecord, int, error) {
	return s.repo.ListRecords(ctx, filter)
}

type plannedWrite struct {
	date     time.Time
	taskID   string
	hours    int
	existing *models.TimesheetEntry
}

// checkDate applies the per-date business rules in freeze, window,
// daily, weekly order and returns a skip outcome or nil.
func (s *TimesheetService) checkDate(date time.Time, efforts []dto.EffortItem, windows map[string]repository.TaskWindow, open map[time.Time]struct{}, ledger *effortLedger, checkDaily bool) *dto.DateOutcome {
	skip := func(reason dto.SkipReason) *dto.DateOutcome {
		return &dto.DateOutcome{
			Date:   date.Format(dto.DateLayout),
			Result: dto.ResultSkipped,
			Reason: reason,
		}
	}

	if _, ok := open[date]; !ok {
		return skip(dto.SkipReasonFrozen)
	}

	proposed := 0
	for _, effort := range efforts {
		window, known := windows[effort.TaskID]
		if !known || !window.Contains(date) {
			return skip(dto.SkipReasonOutsideWindow)
		}
		proposed += effort.Hours
	}

	if checkDaily && ledger.exceedsDailyLimit(date, proposed, s.cfg.DailyEffortsLimit) {
		return skip(dto.SkipReasonDailyLimit)
	}
	if ledger.exceedsWeeklyLimit(date, proposed, s.cfg.WeeklyEffortsLimit) {
		return skip(dto.SkipReasonWeeklyLimit)
	}
	return nil
}

// snapshot reads the user's persisted hours across the weeks touched
// by the candidate dates. All limit checks in a batch run against this
// one read, not against intermediate batch state.
func (s *TimesheetService) snapshot(ctx context.Context, userID string, dates []time.Time) (*effortLedger, map[entryKey]*models.TimesheetEntry, error) {
	ledger := newEffortLedger()
	existing := make(map[entryKey]*models.TimesheetEntry)
	if len(dates) == 0 {
		return ledger, existing, nil
	}

	from, _ := weekBounds(dates[0])
	_, to := weekBounds(dates[0])
	for _, date := range dates[1:] {
		start, end := weekBounds(date)
		if start.Before(from) {
			from = start
		}
		if end.After(to) {
			to = end
		}
	}

	entries, err := s.repo.ListInRange(ctx, userID, from, to)
	if err != nil {
		return nil, nil, err
	}
	for i := range entries {
		entry := entries[i]
		ledger.add(entry.Date, entry.Hours)
		existing[entryKey{taskID: entry.TaskID, date: startOfDay(entry.Date)}] = &entries[i]
	}
	return ledger, existing, nil
}

// applyPlan writes the accepted efforts in one transaction. An effort
// matching an existing row updates it in place; others insert fresh
// SAVED rows. Zero hours on an existing row resets it to NONE, zero
// hours without a row stores nothing.
func (s *TimesheetService) applyPlan(ctx context.Context, userID string, plan []plannedWrite) error {
	if len(plan) == 0 {
		return nil
	}
	return s.repo.WithinTx(ctx, func(tx repository.TimesheetWriter) error {
		for _, write := range plan {
			if write.existing != nil {
				entry := *write.existing
				entry.Hours = write.hours
				entry.Status = models.TimesheetStatusSaved
				if write.hours == 0 {
					entry.Status = models.TimesheetStatusNone
				}
				entry.ManagerComments = nil
				if err := tx.Update(ctx, &entry); err != nil {
					return err
				}
				continue
			}
			if write.hours == 0 {
				continue
			}
			entry := models.TimesheetEntry{
				UserID: userID,
				TaskID: write.taskID,
				Date:   write.date,
				Hours:  write.hours,
				Status: models.TimesheetStatusSaved,
			}
			if err := tx.Insert(ctx, &entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TimesheetService) taskWindows(ctx context.Context, taskIDs []string) (map[string]repository.TaskWindow, error) {
	rows, err := s.projects.ListTaskWindows(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	windows := make(map[string]repository.TaskWindow, len(rows))
	for _, row := range rows {
		windows[row.TaskID] = row
	}
	return windows, nil
}

func (s *TimesheetService) recordAudit(ctx context.Context, userID, action, detail string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "timesheet",
		NewValues:  []byte(fmt.Sprintf(`{"detail":%q}`, detail)),
		CreatedAt:  time.Now().UTC(),
		ResourceID: nil,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log failed", zap.Error(err))
	}
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return startOfDay(parsed), nil
}
