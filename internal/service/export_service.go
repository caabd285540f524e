package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

// ResultLister lists the stored results of an activity.
type ResultLister interface {
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]model.ActivityResult, error)
}

// ExportService builds gradebook workbooks.
type ExportService struct {
	results ResultLister
	log     zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(results ResultLister, log zerolog.Logger) *ExportService {
	return &ExportService{
		results: results,
		log:     log.With().Str("component", "export_service").Logger(),
	}
}

// ExportResults writes every learner result of an activity to an XLSX workbook.
func (s *ExportService) ExportResults(ctx context.Context, activity *model.Activity) ([]byte, error) {
	results, err := s.results.ListByActivity(ctx, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headers := []string{
		"User ID", "Activity Ref", "Status", "Answer", "Score", "Submitted At", "Updated At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for rowIndex, res := range results {
		status := "Partial"
		if res.Final {
			status = "Submitted"
		}
		submittedAt := ""
		if res.SubmittedAt != nil {
			submittedAt = res.SubmittedAt.Format("2006-01-02 15:04:05")
		}

		row := []interface{}{
			res.UserID,
			res.ActivityRef,
			status,
			res.Answer,
			res.Score,
			submittedAt,
			res.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.log.Debug().
		Str("activity_id", activity.ID.String()).
		Int("rows", len(results)).
		Msg("Results exported")
	return buf.Bytes(), nil
}
