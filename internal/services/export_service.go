package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

var exportHeaders = []string{
	"Student ID", "Username", "Email", "Submitted At", "Auto Score", "Score", "Graded", "Grade Count",
}

type exportService struct {
	papers      PaperService
	submissions SubmissionService
	logger      *slog.Logger
}

func NewExportService(papers PaperService, submissions SubmissionService, logger *slog.Logger) ExportService {
	return &exportService{
		papers:      papers,
		submissions: submissions,
		logger:      logger,
	}
}

// ExportSubmissions writes the paper's submissions as an xlsx workbook.
func (s *exportService) ExportSubmissions(ctx context.Context, paperID uint, w io.Writer) error {
	s.logger.Info("Starting submissions export", "paper_id", paperID)

	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return err
	}
	submissions, err := s.submissions.ListByPaper(ctx, paperID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(resultsSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(resultsSheet)
	if err != nil {
		return fmt.Errorf("failed to locate Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.SetDocProps(&excelize.DocProperties{Title: paper.Title, Subject: paper.Subject}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	for i, header := range exportHeaders {
		if err := setCell(f, i+1, 1, header); err != nil {
			return err
		}
	}

	for rowIndex, sub := range submissions {
		username, email := "", ""
		if sub.Student != nil {
			username, email = sub.Student.Username, sub.Student.Email
		}
		graded := "No"
		if sub.IsGraded {
			graded = "Yes"
		}

		row := []interface{}{
			sub.StudentID,
			username,
			email,
			sub.CreatedAt.Format("2006-01-02 15:04:05"),
			sub.AutoScore,
			sub.Score,
			graded,
			sub.GradeCount,
		}
		for colIndex, value := range row {
			if err := setCell(f, colIndex+1, rowIndex+2, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Submissions exported successfully", "paper_id", paperID, "rows", len(submissions))
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to address cell: %w", err)
	}
	if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
