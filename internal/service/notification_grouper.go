package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
)

// GroupReviewedEntries partitions already-committed approved/rejected
// entries into notification cards: one card per maximal contiguous run
// of dates within a (user, project) pair. A one-day gap continues a
// run; anything larger starts a new one. Dates [1,2,4,6,7,8] produce
// the runs [1,2], [4], [6,7,8].
func GroupReviewedEntries(entries []models.TimesheetRecord) []dto.NotificationCard {
	type groupKey struct {
		userID    string
		projectID string
	}

	groups := make(map[groupKey][]models.TimesheetRecord)
	order := make([]groupKey, 0)
	for _, entry := range entries {
		key := groupKey{userID: entry.UserID, projectID: entry.ProjectID}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	cards := make([]dto.NotificationCard, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})

		runStart := 0
		for i := 1; i <= len(group); i++ {
			if i < len(group) && withinOneDay(group[i-1].Date, group[i].Date) {
				continue
			}
			cards = append(cards, buildCard(group[runStart:i]))
			runStart = i
		}
	}
	return cards
}

// withinOneDay reports whether next continues a contiguous run started
// at prev. Multiple entries can share a date (one per task).
func withinOneDay(prev, next time.Time) bool {
	gap := startOfDay(next).Sub(startOfDay(prev))
	return gap <= 24*time.Hour
}

func buildCard(run []models.TimesheetRecord) dto.NotificationCard {
	first := run[0]
	last := run[len(run)-1]

	total := 0
	for _, entry := range run {
		total += entry.Hours
	}

	startDate := startOfDay(first.Date).Format(dto.DateLayout)
	endDate := startOfDay(last.Date).Format(dto.DateLayout)
	dateRange := startDate
	if endDate != startDate {
		dateRange = fmt.Sprintf("%s – %s", startDate, endDate)
	}

	card := dto.NotificationCard{
		UserID:       first.UserID,
		ProjectID:    first.ProjectID,
		ProjectTitle: first.ProjectTitle,
		StartDate:    startDate,
		EndDate:      endDate,
		DateRange:    dateRange,
		TotalHours:   total,
		Status:       string(first.Status),
	}
	if first.Status == models.TimesheetStatusRejected && first.ManagerComments != nil {
		card.ManagerComments = *first.ManagerComments
	}
	return card
}
