package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-paper-service/internal/events"
	"github.com/SAP-F-2025/exam-paper-service/internal/models"
)

// NotificationEventService announces paper and submission lifecycle changes
// on the event bus.
type NotificationEventService interface {
	// Paper notifications
	NotifyPaperPublished(ctx context.Context, paper *models.Paper) error
	NotifyPaperDeleted(ctx context.Context, result *DeletePaperResponse) error

	// Submission notifications
	NotifySubmissionSubmitted(ctx context.Context, submission *models.Submission, report *GradeReport) error
	NotifySubmissionGraded(ctx context.Context, submission *models.Submission, maxScore float64, regrade bool) error
	NotifyManualGradingRequired(ctx context.Context, submission *models.Submission, itemCount int) error
}

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewNotificationEventService(eventPublisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// ===== PAPER NOTIFICATIONS =====

func (s *notificationEventService) NotifyPaperPublished(ctx context.Context, paper *models.Paper) error {
	s.logger.Info("Publishing paper published event", "paper_id", paper.ID)

	event := events.NewPaperPublishedEvent(
		paper.ID,
		paper.Title,
		paper.Subject,
		paper.Duration,
		len(paper.QuestionIDs),
	)
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyPaperDeleted(ctx context.Context, result *DeletePaperResponse) error {
	s.logger.Info("Publishing paper deleted event", "paper_id", result.PaperID)

	event := events.NewPaperDeletedEvent(result.PaperID, result.DeletedSubmissions, result.DeletedQuestions)
	return s.publish(ctx, event)
}

// ===== SUBMISSION NOTIFICATIONS =====

func (s *notificationEventService) NotifySubmissionSubmitted(ctx context.Context, submission *models.Submission, report *GradeReport) error {
	s.logger.Info("Publishing submission submitted event",
		"submission_id", submission.ID,
		"paper_id", submission.PaperID)

	event := events.NewSubmissionSubmittedEvent(
		submission.ID,
		submission.PaperID,
		submission.StudentID,
		submission.AutoScore,
		report.ManualItems,
	)
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifySubmissionGraded(ctx context.Context, submission *models.Submission, maxScore float64, regrade bool) error {
	s.logger.Info("Publishing submission graded event",
		"submission_id", submission.ID,
		"regrade", regrade)

	gradedBy := ""
	if submission.GradedBy != nil {
		gradedBy = *submission.GradedBy
	}

	event := events.NewSubmissionGradedEvent(
		submission.ID,
		submission.PaperID,
		submission.StudentID,
		submission.Score,
		maxScore,
		gradedBy,
		regrade,
	)
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyManualGradingRequired(ctx context.Context, submission *models.Submission, itemCount int) error {
	if itemCount == 0 {
		return nil
	}
	s.logger.Info("Publishing manual grading required event",
		"submission_id", submission.ID,
		"item_count", itemCount)

	return s.publish(ctx, events.NewManualGradingNeededEvent(submission.ID, submission.PaperID, itemCount))
}

func (s *notificationEventService) publish(ctx context.Context, event *events.NotificationEvent) error {
	if err := s.eventPublisher.PublishNotificationEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}
