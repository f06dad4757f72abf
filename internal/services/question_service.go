package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/normalizer"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/SAP-F-2025/exam-paper-service/internal/validator"
)

const maxBatchSize = 500

type questionService struct {
	repo      repositories.Repository
	validator *validator.Validator
	generator QuestionGenerator
	logger    *slog.Logger
	audit     *ServiceLogger
}

func NewQuestionService(repo repositories.Repository, validator *validator.Validator, generator QuestionGenerator, logger *slog.Logger) QuestionService {
	return &questionService{
		repo:      repo,
		validator: validator,
		generator: generator,
		logger:    logger,
		audit:     NewServiceLogger(logger, LogConfig{Service: "question", Component: "bank"}),
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error) {
	s.logger.Info("Starting question creation", "subject", req.Subject, "type", req.Type)
	op := s.audit.WithOperation(ctx, "create_question", "")

	question, errs := s.build(req)
	if len(errs) > 0 {
		op.LogResult(0, "question", errs)
		return nil, errs
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		err = fmt.Errorf("failed to create question: %w", err)
		op.LogResult(0, "question", err)
		return nil, err
	}

	op.LogResult(question.ID, "question", nil)
	op.LogAudit(AuditEventCreate, question.ID, "question", nil, question, nil)
	s.logger.Info("Question created successfully", "question_id", question.ID)
	return question, nil
}

// CreateBatch stores every question or none of them.
func (s *questionService) CreateBatch(ctx context.Context, reqs []*CreateQuestionRequest) ([]*models.Question, error) {
	s.logger.Info("Starting question batch creation", "count", len(reqs))

	if len(reqs) == 0 {
		return nil, NewValidationError("questions", "must not be empty", 0)
	}
	if len(reqs) > maxBatchSize {
		return nil, NewValidationError("questions", fmt.Sprintf("must have at most %d entries", maxBatchSize), len(reqs))
	}

	var all ValidationErrors
	questions := make([]*models.Question, 0, len(reqs))
	for i, req := range reqs {
		if req == nil {
			all = append(all, ValidationError{Field: fmt.Sprintf("questions[%d]", i), Message: "is required", Rule: "required"})
			continue
		}
		question, errs := s.build(req)
		for _, e := range errs {
			e.Field = fmt.Sprintf("questions[%d].%s", i, e.Field)
			all = append(all, e)
		}
		questions = append(questions, question)
	}
	if len(all) > 0 {
		return nil, all
	}

	if err := s.repo.Question().CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("failed to create questions: %w", err)
	}

	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	s.audit.WithOperation(ctx, "create_questions", "").
		LogAudit(AuditEventCreate, 0, "question", nil, nil, map[string]interface{}{"question_ids": ids})

	s.logger.Info("Question batch created successfully", "count", len(questions))
	return questions, nil
}

// Generate drafts mcq questions with the configured generator and stores them
// as one batch. Drafts that fail bank validation fail the whole call.
func (s *questionService) Generate(ctx context.Context, req *GenerateQuestionsRequest) ([]*models.Question, error) {
	if s.generator == nil {
		return nil, ErrGenerationUnavailable
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.logger.Info("Starting question generation",
		"topic", req.Topic,
		"subject", req.Subject,
		"difficulty", req.Difficulty,
		"count", req.Count.Int())

	drafts, err := s.generator.GenerateQuestions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: no questions returned", ErrGenerationFailed)
	}
	if len(drafts) > req.Count.Int() {
		drafts = drafts[:req.Count.Int()]
	}
	for _, d := range drafts {
		if d == nil {
			continue
		}
		d.Subject = req.Subject
		d.Section = req.Section
		d.Difficulty = req.Difficulty
		d.Type = string(models.QuestionMCQ)
	}

	questions, err := s.CreateBatch(ctx, drafts)
	if err != nil {
		if IsValidation(err) {
			return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, err.Error())
		}
		return nil, err
	}

	s.logger.Info("Questions generated successfully", "count", len(questions))
	return questions, nil
}

func (s *questionService) List(ctx context.Context, req *ListQuestionsRequest) (*QuestionListResponse, error) {
	filters := repositories.QuestionFilters{
		Subject: strings.TrimSpace(req.Subject),
		Limit:   req.Limit,
		Offset:  req.Offset,
	}
	if req.Type != "" {
		t, ok := models.ParseQuestionType(req.Type)
		if !ok {
			return nil, NewValidationError("type", "must be mcq, short or long", req.Type)
		}
		filters.Type = &t
	}
	if req.Difficulty != "" {
		d, ok := models.ParseDifficulty(req.Difficulty)
		if !ok {
			return nil, NewValidationError("difficulty", "must be Easy, Medium or Hard", req.Difficulty)
		}
		filters.Difficulty = &d
	}

	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return &QuestionListResponse{Questions: questions, Total: total}, nil
}

// build converts raw labels into the closed variants and checks the bank invariants.
func (s *questionService) build(req *CreateQuestionRequest) (*models.Question, ValidationErrors) {
	if err := s.validator.Validate(req); err != nil {
		if ve, ok := err.(ValidationErrors); ok {
			return nil, ve
		}
		return nil, ValidationErrors{{Field: "question", Message: err.Error()}}
	}

	qtype, _ := models.ParseQuestionType(req.Type)
	difficulty, _ := models.ParseDifficulty(req.Difficulty)

	section := strings.TrimSpace(req.Section)
	if section == "" {
		section = models.DefaultSection
	}

	options := make([]string, 0, len(req.Options))
	for _, opt := range req.Options {
		options = append(options, strings.TrimSpace(opt))
	}

	answer := strings.TrimSpace(req.CorrectAnswer)
	if qtype == models.QuestionMCQ {
		// store the option text rather than an option key
		answer = normalizer.Resolve(options, answer)
	}

	question := &models.Question{
		Text:          strings.TrimSpace(req.Text),
		Subject:       strings.TrimSpace(req.Subject),
		Section:       section,
		Difficulty:    difficulty,
		Type:          qtype,
		Options:       options,
		CorrectAnswer: answer,
	}

	if errs := s.validator.Question().ValidateQuestion(question); len(errs) > 0 {
		return nil, errs
	}
	return question, nil
}
