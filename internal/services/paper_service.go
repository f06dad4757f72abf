package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/cache"
	"github.com/SAP-F-2025/exam-paper-service/internal/metrics"
	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/SAP-F-2025/exam-paper-service/internal/validator"
)

type PaperServiceConfig struct {
	CacheTTL        time.Duration
	DeleteQuestions bool
}

type paperService struct {
	repo      repositories.Repository
	assembler Assembler
	cache     cache.CacheService
	notifier  NotificationEventService
	validator *validator.Validator
	logger    *slog.Logger
	audit     *ServiceLogger
	config    PaperServiceConfig
	now       func() time.Time
}

func NewPaperService(
	repo repositories.Repository,
	assembler Assembler,
	cacheService cache.CacheService,
	notifier NotificationEventService,
	validator *validator.Validator,
	logger *slog.Logger,
	config PaperServiceConfig,
) PaperService {
	return &paperService{
		repo:      repo,
		assembler: assembler,
		cache:     cacheService,
		notifier:  notifier,
		validator: validator,
		logger:    logger,
		audit:     NewServiceLogger(logger, LogConfig{Service: "paper", Component: "lifecycle"}),
		config:    config,
		now:       time.Now,
	}
}

func paperCacheKey(id uint) string { return fmt.Sprintf("paper:%d", id) }

// Assemble draws the question set and persists it as an unpublished paper.
// Nothing is written when assembly fails.
func (s *paperService) Assemble(ctx context.Context, req *AssemblePaperRequest) (*AssemblePaperResponse, error) {
	s.logger.Info("Starting paper creation", "title", req.Title, "subject", req.Subject, "mode", req.Mode)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assembly, err := s.assembler.Assemble(ctx, req.Subject, req.Mode, req.Quotas, req.Seed)
	if err != nil {
		metrics.ObserveAssembly(string(req.Mode), assemblyOutcome(err))
		return nil, err
	}
	for _, b := range assembly.Buckets {
		metrics.ObserveShortfall(b.Bucket, b.Requested-b.Selected)
	}

	paper := &models.Paper{
		Title:       strings.TrimSpace(req.Title),
		Subject:     strings.TrimSpace(req.Subject),
		Mode:        req.Mode,
		Duration:    req.Duration.Int(),
		QuestionIDs: assembly.QuestionIDs,
		IsPublished: false,
	}
	if err := s.repo.Paper().Create(ctx, paper); err != nil {
		metrics.ObserveAssembly(string(req.Mode), "error")
		return nil, fmt.Errorf("failed to create paper: %w", err)
	}
	metrics.ObserveAssembly(string(req.Mode), "created")

	s.logger.Info("Paper created successfully",
		"paper_id", paper.ID,
		"total_questions", len(paper.QuestionIDs),
		"shortfall", assembly.HasShortfall())

	return &AssemblePaperResponse{
		PaperID:        paper.ID,
		TotalQuestions: len(paper.QuestionIDs),
		Buckets:        assembly.Buckets,
		Paper:          paper,
	}, nil
}

func assemblyOutcome(err error) string {
	switch {
	case errors.Is(err, ErrNoQuestionsAvailable):
		return "no_questions"
	case errors.Is(err, ErrQuestionShortfall):
		return "shortfall"
	case IsValidation(err):
		return "invalid"
	}
	return "error"
}

func (s *paperService) List(ctx context.Context, filters repositories.PaperFilters) ([]*models.Paper, error) {
	papers, err := s.repo.Paper().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	return papers, nil
}

func (s *paperService) ListPublished(ctx context.Context) ([]*models.Paper, error) {
	return s.List(ctx, repositories.PaperFilters{PublishedOnly: true})
}

// Get reads through the cache and resolves the question list in stored order.
func (s *paperService) Get(ctx context.Context, id uint) (*models.Paper, error) {
	var cached models.Paper
	err := s.cache.Get(ctx, paperCacheKey(id), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Paper cache read failed", "paper_id", id, "error", err)
	}

	paper, err := s.repo.Paper().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}

	questions, err := s.repo.Question().GetByIDs(ctx, paper.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paper questions: %w", err)
	}
	paper.Questions = questions
	if len(questions) < len(paper.QuestionIDs) {
		s.logger.Warn("Paper references deleted questions",
			"paper_id", id,
			"referenced", len(paper.QuestionIDs),
			"resolved", len(questions))
	}

	if err := s.cache.Set(ctx, paperCacheKey(id), paper, s.config.CacheTTL); err != nil {
		s.logger.Warn("Paper cache write failed", "paper_id", id, "error", err)
	}
	return paper, nil
}

// GetForStudent hides unpublished papers and strips correct answers.
func (s *paperService) GetForStudent(ctx context.Context, id uint) (*models.Paper, error) {
	paper, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !paper.IsPublished {
		return nil, ErrPaperNotFound
	}
	return paper.ForStudent(), nil
}

// Publish flips is_published once. Publishing a published paper returns it unchanged.
func (s *paperService) Publish(ctx context.Context, id uint) (*models.Paper, error) {
	s.logger.Info("Starting paper publish", "paper_id", id)

	paper, changed, err := s.repo.Paper().MarkPublished(ctx, id, s.now())
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to publish paper: %w", err)
	}

	if !changed {
		s.logger.Info("Paper already published", "paper_id", id)
		return paper, nil
	}

	s.invalidate(ctx, id)
	if err := s.notifier.NotifyPaperPublished(ctx, paper); err != nil {
		s.logger.Error("Failed to send paper published notification", "paper_id", id, "error", err)
	}

	s.logger.Info("Paper published successfully", "paper_id", id)
	return paper, nil
}

// Delete removes the paper with its submissions, and its questions when configured to.
func (s *paperService) Delete(ctx context.Context, id uint) (*DeletePaperResponse, error) {
	op := s.audit.WithOperation(ctx, "delete_paper", "")

	result, err := s.repo.Paper().Delete(ctx, id, repositories.DeletePaperOptions{
		DeleteQuestions: s.config.DeleteQuestions,
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrPaperNotFound
		} else {
			err = fmt.Errorf("failed to delete paper: %w", err)
		}
		op.LogResult(id, "paper", err)
		return nil, err
	}

	resp := &DeletePaperResponse{
		PaperID:            id,
		DeletedSubmissions: result.DeletedSubmissions,
		DeletedQuestions:   result.DeletedQuestions,
	}

	s.invalidate(ctx, id)
	if result.DeletedQuestions > 0 {
		// other cached papers may reference the removed questions
		if err := s.cache.DeletePattern(ctx, "paper:*"); err != nil {
			s.logger.Warn("Paper cache flush failed", "error", err)
		}
	}
	op.LogResult(id, "paper", nil)
	op.LogAudit(AuditEventDelete, id, "paper", result.Paper, nil, map[string]interface{}{
		"deleted_submissions": result.DeletedSubmissions,
		"deleted_questions":   result.DeletedQuestions,
	})

	if err := s.notifier.NotifyPaperDeleted(ctx, resp); err != nil {
		s.logger.Error("Failed to send paper deleted notification", "paper_id", id, "error", err)
	}
	return resp, nil
}

func (s *paperService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, paperCacheKey(id)); err != nil {
		s.logger.Warn("Paper cache invalidation failed", "paper_id", id, "error", err)
	}
}
