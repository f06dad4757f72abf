package services

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/normalizer"
)

// reviewService asks a Reviewer for advisory marks on subjective items.
// It never changes a submission.
type reviewService struct {
	submissions SubmissionService
	reviewer    Reviewer
	logger      *slog.Logger
}

func NewReviewService(submissions SubmissionService, reviewer Reviewer, logger *slog.Logger) ReviewService {
	return &reviewService{
		submissions: submissions,
		reviewer:    reviewer,
		logger:      logger,
	}
}

func (s *reviewService) Suggest(ctx context.Context, submissionID uint) ([]*MarkSuggestion, error) {
	if s.reviewer == nil {
		return nil, ErrReviewUnavailable
	}

	report, err := s.submissions.Report(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Starting answer review", "submission_id", submissionID, "items", report.ManualItems)

	suggestions := make([]*MarkSuggestion, 0, report.ManualItems)
	for _, item := range report.Items {
		if !item.Manual {
			continue
		}

		answer := strings.TrimSpace(normalizer.ToText(item.StudentAnswer))
		if answer == "" {
			suggestions = append(suggestions, &MarkSuggestion{
				QuestionID: item.QuestionID,
				MaxMarks:   item.Weight,
				Feedback:   "No answer given.",
			})
			continue
		}

		question := &models.Question{
			ID:            item.QuestionID,
			Text:          item.Text,
			Type:          item.Type,
			CorrectAnswer: item.CorrectAnswer,
		}
		suggestion, err := s.reviewer.SuggestMarks(ctx, question, answer, item.Weight)
		if err != nil {
			s.logger.Warn("Answer review failed", "submission_id", submissionID, "question_id", item.QuestionID, "error", err)
			suggestions = append(suggestions, &MarkSuggestion{
				QuestionID: item.QuestionID,
				MaxMarks:   item.Weight,
				Error:      err.Error(),
			})
			continue
		}

		suggestion.QuestionID = item.QuestionID
		suggestion.MaxMarks = item.Weight
		suggestion.Marks = math.Max(0, math.Min(suggestion.Marks, item.Weight))
		suggestions = append(suggestions, suggestion)
	}

	s.logger.Info("Answer review completed successfully", "submission_id", submissionID, "suggestions", len(suggestions))
	return suggestions, nil
}
