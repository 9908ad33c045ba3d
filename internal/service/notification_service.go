package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/pkg/jobs"
	"github.com/worklane/timesheet-api/pkg/notify"
)

type conversationStore interface {
	GetMany(ctx context.Context, userIDs []string) ([]models.ConversationReference, error)
}

type cardSender interface {
	SendActivity(ctx context.Context, serviceURL, conversationID string, activity notify.Activity) error
}

type notificationJob struct {
	Card           dto.NotificationCard
	ConversationID string
	ServiceURL     string
}

// NotificationService turns reviewed timesheet entries into Teams
// cards and dispatches them through a background queue. Users without
// a stored conversation reference are silently skipped; delivery
// failures are retried by the queue and never surface to the review
// flow.
type NotificationService struct {
	conversations conversationStore
	sender        cardSender
	queue         *jobs.Queue[notificationJob]
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewNotificationService constructs the service and its dispatch
// queue. Metrics may be nil.
func NewNotificationService(conversations conversationStore, sender cardSender, metrics *MetricsService, queueCfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		conversations: conversations,
		sender:        sender,
		metrics:       metrics,
		logger:        logger,
	}
	s.queue = jobs.NewQueue[notificationJob]("notifications", s.deliver, queueCfg)
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyReviewed groups the reviewed entries into per-run cards and
// enqueues one delivery per card.
func (s *NotificationService) NotifyReviewed(ctx context.Context, entries []models.TimesheetRecord) {
	cards := GroupReviewedEntries(entries)
	if len(cards) == 0 {
		return
	}

	userIDs := make([]string, 0, len(cards))
	seen := make(map[string]struct{})
	for _, card := range cards {
		if _, ok := seen[card.UserID]; !ok {
			seen[card.UserID] = struct{}{}
			userIDs = append(userIDs, card.UserID)
		}
	}

	refs, err := s.conversations.GetMany(ctx, userIDs)
	if err != nil {
		s.logger.Error("load conversation references failed", zap.Error(err))
		return
	}
	byUser := make(map[string]models.ConversationReference, len(refs))
	for _, ref := range refs {
		byUser[ref.UserID] = ref
	}

	for _, card := range cards {
		ref, ok := byUser[card.UserID]
		if !ok {
			s.logger.Debug("no conversation reference, skipping notification",
				zap.String("user_id", card.UserID))
			continue
		}
		job := jobs.Job[notificationJob]{
			ID: uuid.NewString(),
			Payload: notificationJob{
				Card:           card,
				ConversationID: ref.ConversationID,
				ServiceURL:     ref.ServiceURL,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("enqueue notification failed",
				zap.String("user_id", card.UserID), zap.Error(err))
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job[notificationJob]) error {
	activity := buildReviewActivity(job.Payload.Card)
	if err := s.sender.SendActivity(ctx, job.Payload.ServiceURL, job.Payload.ConversationID, activity); err != nil {
		s.metrics.RecordCardFailed()
		return err
	}
	s.metrics.RecordCardSent()
	return nil
}

// buildReviewActivity renders one notification card as an adaptive
// card activity.
func buildReviewActivity(card dto.NotificationCard) notify.Activity {
	title := fmt.Sprintf("Timesheet %s", card.Status)
	body := []map[string]interface{}{
		{
			"type":   "TextBlock",
			"text":   title,
			"weight": "Bolder",
			"size":   "Medium",
		},
		{
			"type": "FactSet",
			"facts": []map[string]string{
				{"title": "Project", "value": card.ProjectTitle},
				{"title": "Dates", "value": card.DateRange},
				{"title": "Hours", "value": fmt.Sprintf("%d", card.TotalHours)},
			},
		},
	}
	if card.ManagerComments != "" {
		body = append(body, map[string]interface{}{
			"type": "TextBlock",
			"text": fmt.Sprintf("Comments: %s", card.ManagerComments),
			"wrap": true,
		})
	}

	return notify.Activity{
		Type: "message",
		Attachments: []notify.Attachment{
			{
				ContentType: notify.AdaptiveCardContentType,
				Content: map[string]interface{}{
					"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
					"type":    "AdaptiveCard",
					"version": "1.4",
					"body":    body,
				},
			},
		},
	}
}
