package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timesheet-api/internal/models"
)

func reviewedEntry(userID, projectID string, date time.Time, hours int, status models.TimesheetStatus) models.TimesheetRecord {
	return models.TimesheetRecord{
		TimesheetEntry: models.TimesheetEntry{
			UserID: userID,
			Date:   date,
			Hours:  hours,
			Status: status,
		},
		ProjectID:    projectID,
		ProjectTitle: "Project " + projectID,
	}
}

func TestGroupReviewedEntriesSplitsOnGaps(t *testing.T) {
	entries := make([]models.TimesheetRecord, 0, 6)
	for _, d := range []int{1, 2, 4, 6, 7, 8} {
		entries = append(entries, reviewedEntry("u1", "p1", day(2025, time.June, d), 8, models.TimesheetStatusApproved))
	}

	cards := GroupReviewedEntries(entries)
	require.Len(t, cards, 3)

	assert.Equal(t, "2025-06-01", cards[0].StartDate)
	assert.Equal(t, "2025-06-02", cards[0].EndDate)
	assert.Equal(t, 16, cards[0].TotalHours)

	assert.Equal(t, "2025-06-04", cards[1].StartDate)
	assert.Equal(t, "2025-06-04", cards[1].EndDate)
	assert.Equal(t, "2025-06-04", cards[1].DateRange)

	assert.Equal(t, "2025-06-06", cards[2].StartDate)
	assert.Equal(t, "2025-06-08", cards[2].EndDate)
	assert.Equal(t, 24, cards[2].TotalHours)
}

func TestGroupReviewedEntriesUnsortedInput(t *testing.T) {
	entries := []models.TimesheetRecord{
		reviewedEntry("u1", "p1", day(2025, time.June, 3), 4, models.TimesheetStatusApproved),
		reviewedEntry("u1", "p1", day(2025, time.June, 1), 8, models.TimesheetStatusApproved),
		reviewedEntry("u1", "p1", day(2025, time.June, 2), 6, models.TimesheetStatusApproved),
	}

	cards := GroupReviewedEntries(entries)
	require.Len(t, cards, 1)
	assert.Equal(t, "2025-06-01", cards[0].StartDate)
	assert.Equal(t, "2025-06-03", cards[0].EndDate)
	assert.Equal(t, 18, cards[0].TotalHours)
}

func TestGroupReviewedEntriesSeparatesUsersAndProjects(t *testing.T) {
	entries := []models.TimesheetRecord{
		reviewedEntry("u1", "p1", day(2025, time.June, 2), 8, models.TimesheetStatusApproved),
		reviewedEntry("u1", "p2", day(2025, time.June, 2), 8, models.TimesheetStatusApproved),
		reviewedEntry("u2", "p1", day(2025, time.June, 2), 8, models.TimesheetStatusApproved),
	}

	cards := GroupReviewedEntries(entries)
	require.Len(t, cards, 3)
	assert.Equal(t, "u1", cards[0].UserID)
	assert.Equal(t, "p1", cards[0].ProjectID)
	assert.Equal(t, "p2", cards[1].ProjectID)
	assert.Equal(t, "u2", cards[2].UserID)
}

func TestGroupReviewedEntriesSameDateMultipleTasks(t *testing.T) {
	// Two tasks on the same date belong to one run and sum their hours.
	entries := []models.TimesheetRecord{
		reviewedEntry("u1", "p1", day(2025, time.June, 2), 3, models.TimesheetStatusApproved),
		reviewedEntry("u1", "p1", day(2025, time.June, 2), 5, models.TimesheetStatusApproved),
		reviewedEntry("u1", "p1", day(2025, time.June, 3), 4, models.TimesheetStatusApproved),
	}

	cards := GroupReviewedEntries(entries)
	require.Len(t, cards, 1)
	assert.Equal(t, 12, cards[0].TotalHours)
	assert.Equal(t, "2025-06-02", cards[0].StartDate)
	assert.Equal(t, "2025-06-03", cards[0].EndDate)
}

func TestGroupReviewedEntriesRejectionCarriesComments(t *testing.T) {
	comments := "please split across tasks"
	entry := reviewedEntry("u1", "p1", day(2025, time.June, 2), 8, models.TimesheetStatusRejected)
	entry.ManagerComments = &comments

	cards := GroupReviewedEntries([]models.TimesheetRecord{entry})
	require.Len(t, cards, 1)
	assert.Equal(t, string(models.TimesheetStatusRejected), cards[0].Status)
	assert.Equal(t, comments, cards[0].ManagerComments)

	approved := GroupReviewedEntries([]models.TimesheetRecord{
		reviewedEntry("u1", "p1", day(2025, time.June, 2), 8, models.TimesheetStatusApproved),
	})
	require.Len(t, approved, 1)
	assert.Empty(t, approved[0].ManagerComments)
}
