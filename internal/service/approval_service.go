package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/internal/repository"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
)

type approvalStore interface {
	ListSubmittedByIDs(ctx context.Context, ids []string) ([]models.TimesheetRecord, error)
	ListPendingForManager(ctx context.Context, managerID string, filter models.TimesheetFilter) ([]models.TimesheetRecord, int, error)
	WithinTx(ctx context.Context, fn func(tx repository.TimesheetWriter) error) error
}

type reporteeStore interface {
	ListReportees(ctx context.Context, managerID string) ([]models.User, error)
}

// ReviewNotifier receives the reviewed entries after the decisions are
// committed. Delivery is best effort and never fails the review.
type ReviewNotifier interface {
	NotifyReviewed(ctx context.Context, entries []models.TimesheetRecord)
}

// ApprovalService applies manager decisions on submitted timesheets.
type ApprovalService struct {
	repo     approvalStore
	users    reporteeStore
	audit    auditLogger
	notifier ReviewNotifier
	metrics  *MetricsService
	logger   *zap.Logger
	validate *validator.Validate
}

// NewApprovalService constructs the service. The notifier may be nil
// when notifications are disabled; metrics may be nil.
func NewApprovalService(repo approvalStore, users reporteeStore, audit auditLogger, notifier ReviewNotifier, metrics *MetricsService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		repo:     repo,
		users:    users,
		audit:    audit,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		validate: validator.New(),
	}
}

// ListPending returns the submitted entries awaiting the manager.
func (s *ApprovalService) ListPending(ctx context.Context, managerID string, filter models.TimesheetFilter) ([]models.TimesheetRecord, int, error) {
	return s.repo.ListPendingForManager(ctx, managerID, filter)
}

// Review applies a batch of approval decisions atomically. Every
// decision must resolve to a currently submitted entry belonging to
// one of the manager's reportees, and every loaded entry must carry
// exactly one decision; any mismatch rejects the whole batch. Approval
// clears manager comments, rejection stores them.
func (s *ApprovalService) Review(ctx context.Context, managerID string, req dto.ReviewTimesheetRequest) (*dto.ReviewTimesheetResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review request")
	}

	decisions := make(map[string]dto.ApprovalDecision, len(req.Decisions))
	ids := make([]string, 0, len(req.Decisions))
	for _, decision := range req.Decisions {
		status := models.TimesheetStatus(decision.Status)
		if status != models.TimesheetStatusApproved && status != models.TimesheetStatusRejected {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported decision status %q", decision.Status))
		}
		if _, dup := decisions[decision.TimesheetID]; dup {
			return nil, appErrors.ErrDecisionMismatch
		}
		decisions[decision.TimesheetID] = decision
		ids = append(ids, decision.TimesheetID)
	}

	records, err := s.repo.ListSubmittedByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(records) != len(decisions) {
		return nil, appErrors.ErrDecisionMismatch
	}

	reportees, err := s.users.ListReportees(ctx, managerID)
	if err != nil {
		return nil, err
	}
	managed := make(map[string]struct{}, len(reportees))
	for _, user := range reportees {
		managed[user.ID] = struct{}{}
	}
	for _, record := range records {
		if _, ok := managed[record.UserID]; !ok {
			return nil, appErrors.ErrForbidden
		}
	}

	reviewed := make([]models.TimesheetRecord, 0, len(records))
	err = s.repo.WithinTx(ctx, func(tx repository.TimesheetWriter) error {
		for _, record := range records {
			decision := decisions[record.ID]
			status := models.TimesheetStatus(decision.Status)

			var comments *string
			if status == models.TimesheetStatusRejected && decision.ManagerComments != "" {
				c := decision.ManagerComments
				comments = &c
			}
			if err := tx.UpdateStatus(ctx, record.ID, status, comments); err != nil {
				return err
			}

			record.Status = status
			record.ManagerComments = comments
			reviewed = append(reviewed, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[models.TimesheetStatus]int, 2)
	for _, record := range reviewed {
		counts[record.Status]++
	}
	for status, count := range counts {
		s.metrics.RecordEntriesReviewed(string(status), count)
	}

	s.recordAudit(ctx, managerID, len(reviewed))
	if s.notifier != nil {
		s.notifier.NotifyReviewed(ctx, reviewed)
	}

	s.logger.Info("timesheets reviewed",
		zap.String("manager_id", managerID),
		zap.Int("entries", len(reviewed)))
	return &dto.ReviewTimesheetResponse{Reviewed: len(reviewed)}, nil
}

func (s *ApprovalService) recordAudit(ctx context.Context, managerID string, count int) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:    &managerID,
		Action:    models.AuditActionTimesheetReview,
		Resource:  "timesheet",
		NewValues: []byte(fmt.Sprintf(`{"reviewed":%d}`, count)),
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log failed", zap.Error(err))
	}
}
