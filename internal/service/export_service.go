package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/pkg/export"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
)

// ExportFormat selects the report encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

type recordLister interface {
	ListRecords(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetRecord, int, error)
}

// ExportService renders timesheet listings as downloadable reports.
type ExportService struct {
	repo   recordLister
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(repo recordLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ExportResult is a rendered report plus delivery metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

var timesheetReportHeaders = []string{"Date", "Project", "Task", "Hours", "Status", "Comments"}

// TimesheetReport renders the matching entries in the requested
// format.
func (s *ExportService) TimesheetReport(ctx context.Context, filter models.TimesheetFilter, format ExportFormat) (*ExportResult, error) {
	filter.Page = 1
	filter.PageSize = 200
	records, _, err := s.repo.ListRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	table := export.Table{Headers: timesheetReportHeaders}
	for _, record := range records {
		comments := ""
		if record.ManagerComments != nil {
			comments = *record.ManagerComments
		}
		table.Rows = append(table.Rows, []string{
			record.Date.Format(dto.DateLayout),
			record.ProjectTitle,
			record.TaskTitle,
			strconv.Itoa(record.Hours),
			string(record.Status),
			comments,
		})
	}

	stamp := time.Now().UTC().Format("20060102T150405")
	switch format {
	case FormatCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("timesheet-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(table, "Timesheet Report")
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("timesheet-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
