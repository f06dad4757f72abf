package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/metrics"
	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/SAP-F-2025/exam-paper-service/internal/validator"
	"gorm.io/datatypes"
)

type submissionService struct {
	repo      repositories.Repository
	papers    PaperService
	engine    GradingEngine
	directory StudentDirectory
	notifier  NotificationEventService
	validator *validator.Validator
	logger    *slog.Logger
	audit     *ServiceLogger
	now       func() time.Time
}

func NewSubmissionService(
	repo repositories.Repository,
	papers PaperService,
	engine GradingEngine,
	directory StudentDirectory,
	notifier NotificationEventService,
	validator *validator.Validator,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		papers:    papers,
		engine:    engine,
		directory: directory,
		notifier:  notifier,
		validator: validator,
		logger:    logger,
		audit:     NewServiceLogger(logger, LogConfig{Service: "submission", Component: "grading"}),
		now:       time.Now,
	}
}

// Submit records the student's only submission for the paper with its auto score
// as the tentative score. The submission stays ungraded.
func (s *submissionService) Submit(ctx context.Context, paperID uint, studentID string, req *SubmitAnswersRequest) (*SubmitAnswersResponse, error) {
	s.logger.Info("Starting answer submission", "paper_id", paperID, "student_id", studentID)

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, NewValidationError("student_id", "is required", studentID)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !paper.IsPublished {
		metrics.ObserveSubmission("unpublished")
		return nil, ErrPaperNotPublished
	}

	report := s.evaluate(paper, req.Answers)

	answers := make(datatypes.JSONMap, len(req.Answers))
	for k, v := range req.Answers {
		answers[k] = v
	}

	submission := &models.Submission{
		PaperID:   paperID,
		StudentID: studentID,
		Answers:   answers,
		AutoScore: report.AutoScore,
		Score:     report.AutoScore,
		IsGraded:  false,
	}

	if err := s.repo.Submission().CreateIfAbsent(ctx, submission); err != nil {
		if repositories.IsDuplicateError(err) {
			metrics.ObserveSubmission("duplicate")
			s.logger.Warn("Duplicate submission rejected", "paper_id", paperID, "student_id", studentID)
			return nil, ErrDuplicateSubmission
		}
		metrics.ObserveSubmission("error")
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	metrics.ObserveSubmission("accepted")
	metrics.ObserveAutoScore(report.AutoScore, report.AutoGradedItems)

	if err := s.notifier.NotifySubmissionSubmitted(ctx, submission, report); err != nil {
		s.logger.Error("Failed to send submission notification", "submission_id", submission.ID, "error", err)
	}
	if err := s.notifier.NotifyManualGradingRequired(ctx, submission, report.ManualItems); err != nil {
		s.logger.Error("Failed to send manual grading notification", "submission_id", submission.ID, "error", err)
	}

	s.logger.Info("Answers submitted successfully",
		"submission_id", submission.ID,
		"auto_score", report.AutoScore,
		"auto_graded_items", report.AutoGradedItems)

	return &SubmitAnswersResponse{
		SubmissionID: submission.ID,
		AutoScore:    report.AutoScore,
		Total:        report.AutoGradedItems,
	}, nil
}

// Grade moves a pending submission to graded. A graded submission is rejected;
// corrections go through Regrade.
func (s *submissionService) Grade(ctx context.Context, submissionID uint, graderID string, req *GradeRequest) (*GradeResponse, error) {
	if req == nil {
		req = &GradeRequest{}
	}
	return s.transition(ctx, "grade_submission", submissionID, graderID, req, nil)
}

// Regrade overwrites the score of a graded submission and records the reason.
func (s *submissionService) Regrade(ctx context.Context, submissionID uint, graderID string, req *RegradeRequest) (*GradeResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	return s.transition(ctx, "regrade_submission", submissionID, graderID, &req.GradeRequest, &reason)
}

func (s *submissionService) transition(ctx context.Context, operation string, submissionID uint, graderID string, req *GradeRequest, reason *string) (*GradeResponse, error) {
	op := s.audit.WithOperation(ctx, operation, graderID)
	regrade := reason != nil
	kind := "grade"
	if regrade {
		kind = "regrade"
	}

	resp, err := s.applyGrade(ctx, submissionID, graderID, req, reason)
	op.LogResult(submissionID, "submission", err)
	if err != nil {
		metrics.ObserveGrading(kind, gradingOutcome(err))
		return nil, err
	}
	metrics.ObserveGrading(kind, "graded")
	op.LogAudit(AuditEventUpdate, submissionID, "submission", nil, resp.Score, map[string]interface{}{
		"grade_count": resp.GradeCount,
	})
	return resp, nil
}

func (s *submissionService) applyGrade(ctx context.Context, submissionID uint, graderID string, req *GradeRequest, reason *string) (*GradeResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	submission, paper, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	report := s.evaluate(paper, submission.Answers)
	score, err := s.engine.FinalScore(report, req)
	if err != nil {
		return nil, err
	}

	regrade := reason != nil
	gradedAt := s.now()

	updated, err := s.repo.Submission().UpdateLocked(ctx, submissionID, func(sub *models.Submission) error {
		if !regrade && sub.IsGraded {
			return ErrSubmissionAlreadyGraded
		}
		if regrade && !sub.IsGraded {
			return ErrSubmissionNotGraded
		}

		sub.Score = score
		sub.IsGraded = true
		sub.GradedAt = &gradedAt
		sub.GradeCount++
		if graderID != "" {
			grader := graderID
			sub.GradedBy = &grader
		}
		sub.GradeNote = reason
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSubmissionAlreadyGraded), errors.Is(err, ErrSubmissionNotGraded):
			return nil, err
		case repositories.IsNotFoundError(err):
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	if err := s.notifier.NotifySubmissionGraded(ctx, updated, report.MaxScore, regrade); err != nil {
		s.logger.Error("Failed to send graded notification", "submission_id", submissionID, "error", err)
	}

	return &GradeResponse{
		SubmissionID: updated.ID,
		Score:        updated.Score,
		MaxScore:     report.MaxScore,
		IsGraded:     updated.IsGraded,
		GradeCount:   updated.GradeCount,
		GradedAt:     updated.GradedAt,
	}, nil
}

func gradingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSubmissionAlreadyGraded):
		return "already_graded"
	case errors.Is(err, ErrSubmissionNotGraded):
		return "not_graded"
	case IsNotFound(err):
		return "not_found"
	case IsValidation(err):
		return "invalid"
	}
	return "error"
}

// Report returns the per-item breakdown used by the manual grading view.
func (s *submissionService) Report(ctx context.Context, submissionID uint) (*GradeReport, error) {
	submission, paper, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	report := s.evaluate(paper, submission.Answers)
	report.SubmissionID = submission.ID
	return report, nil
}

// ListByPaper returns the paper's submissions with student identities attached
// when the directory can resolve them.
func (s *submissionService) ListByPaper(ctx context.Context, paperID uint) ([]*models.Submission, error) {
	if _, err := s.repo.Paper().GetByID(ctx, paperID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}

	submissions, err := s.repo.Submission().ListByPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	if len(submissions) == 0 || s.directory == nil {
		return submissions, nil
	}

	ids := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		ids = append(ids, sub.StudentID)
	}
	profiles, err := s.directory.Lookup(ctx, ids)
	if err != nil {
		// keep whatever resolved
		s.logger.Warn("Student lookup failed", "paper_id", paperID, "resolved", len(profiles), "error", err)
	}
	for _, sub := range submissions {
		if p, ok := profiles[sub.StudentID]; ok {
			sub.Student = p
		}
	}
	return submissions, nil
}

func (s *submissionService) load(ctx context.Context, submissionID uint) (*models.Submission, *models.Paper, error) {
	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrSubmissionNotFound
		}
		return nil, nil, fmt.Errorf("failed to get submission: %w", err)
	}

	paper, err := s.papers.Get(ctx, submission.PaperID)
	if err != nil {
		return nil, nil, err
	}
	return submission, paper, nil
}

func (s *submissionService) evaluate(paper *models.Paper, answers map[string]interface{}) *GradeReport {
	report := s.engine.Evaluate(paper.Questions, answers)
	report.PaperID = paper.ID

	if len(paper.Questions) < len(paper.QuestionIDs) {
		resolved := make(map[uint]struct{}, len(paper.Questions))
		for _, q := range paper.Questions {
			resolved[q.ID] = struct{}{}
		}
		for _, id := range paper.QuestionIDs {
			if _, ok := resolved[id]; !ok {
				report.MissingItems = append(report.MissingItems, id)
			}
		}
	}
	return report
}
