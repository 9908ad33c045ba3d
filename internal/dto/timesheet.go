package dto

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// EffortItem is one task/hours pair inside a save request.
type EffortItem struct {
	TaskID string `json:"task_id" validate:"required"`
	Hours  int    `json:"hours" validate:"min=0,max=24"`
}

// DateEfforts groups the efforts a user wants stored for one date.
type DateEfforts struct {
	Date    string       `json:"date" validate:"required"`
	Efforts []EffortItem `json:"efforts" validate:"required,min=1,dive"`
}

// SaveTimesheetRequest persists draft efforts for a batch of dates.
// ClientDate is the user's local date and anchors the freeze window.
type SaveTimesheetRequest struct {
	ClientDate string        `json:"client_date" validate:"required"`
	Entries    []DateEfforts `json:"entries" validate:"required,min=1,dive"`
}

// SubmitTimesheetRequest finalises all saved efforts for review.
type SubmitTimesheetRequest struct {
	ClientDate string `json:"client_date" validate:"required"`
}

// DuplicateEffortsRequest copies one date's efforts onto target dates.
type DuplicateEffortsRequest struct {
	ClientDate  string   `json:"client_date" validate:"required"`
	SourceDate  string   `json:"source_date" validate:"required"`
	TargetDates []string `json:"target_dates" validate:"required,min=1"`
}

// ApprovalDecision is a manager's verdict on one submitted entry.
type ApprovalDecision struct {
	TimesheetID     string `json:"timesheet_id" validate:"required"`
	Status          string `json:"status" validate:"required"`
	ManagerComments string `json:"manager_comments"`
}

// ReviewTimesheetRequest carries a batch of approval decisions.
type ReviewTimesheetRequest struct {
	Decisions []ApprovalDecision `json:"decisions" validate:"required,min=1,dive"`
}

// DateResult distinguishes accepted dates from skipped ones.
type DateResult string

const (
	ResultAccepted DateResult = "ACCEPTED"
	ResultSkipped  DateResult = "SKIPPED"
)

// SkipReason explains why a date was excluded from a batch.
type SkipReason string

const (
	SkipReasonFrozen        SkipReason = "FROZEN"
	SkipReasonDailyLimit    SkipReason = "DAILY_LIMIT_EXCEEDED"
	SkipReasonWeeklyLimit   SkipReason = "WEEKLY_LIMIT_EXCEEDED"
	SkipReasonOutsideWindow SkipReason = "OUTSIDE_TASK_WINDOW"
	SkipReasonSourceDate    SkipReason = "SOURCE_DATE"
)

// DateOutcome reports what happened to a single date in a batch.
// Business-rule skips are expected and never fail the whole request.
type DateOutcome struct {
	Date   string     `json:"date"`
	Result DateResult `json:"result"`
	Reason SkipReason `json:"reason,omitempty"`
}

// SaveTimesheetResponse lists the dates that were stored plus the
// per-date skips. Callers comparing request and response payloads see
// exactly which dates survived the rule checks.
type SaveTimesheetResponse struct {
	Saved   []string      `json:"saved"`
	Skipped []DateOutcome `json:"skipped,omitempty"`
}

// SubmitTimesheetResponse reports how many entries were submitted.
type SubmitTimesheetResponse struct {
	Submitted int `json:"submitted"`
}

// DuplicateEffortsResponse mirrors SaveTimesheetResponse for the
// duplicate flow.
type DuplicateEffortsResponse struct {
	Duplicated []string      `json:"duplicated"`
	Skipped    []DateOutcome `json:"skipped,omitempty"`
}

// ReviewTimesheetResponse reports the reviewed entry count.
type ReviewTimesheetResponse struct {
	Reviewed int `json:"reviewed"`
}
