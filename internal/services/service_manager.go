package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/cache"
	"github.com/SAP-F-2025/exam-paper-service/internal/events"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/SAP-F-2025/exam-paper-service/internal/validator"
)

// ServiceManager exposes the services to the transport layer.
type ServiceManager interface {
	Paper() PaperService
	Question() QuestionService
	Submission() SubmissionService
	Review() ReviewService
	Export() ExportService
	Analytics() AnalyticsService
	Grading() GradingEngine
}

type ServiceConfig struct {
	StrictAssembly  bool
	Weights         Weights
	CacheTTL        time.Duration
	DeleteQuestions bool
}

// Dependencies are the collaborators the services need. Cache, Directory,
// Reviewer and Generator are optional.
type Dependencies struct {
	Repo      repositories.Repository
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Directory StudentDirectory
	Reviewer  Reviewer
	Generator QuestionGenerator
	Validator *validator.Validator
	Logger    *slog.Logger
}

type serviceManager struct {
	paper      PaperService
	question   QuestionService
	submission SubmissionService
	review     ReviewService
	export     ExportService
	analytics  AnalyticsService
	grading    GradingEngine
}

func NewServiceManager(deps Dependencies, cfg ServiceConfig) ServiceManager {
	c := deps.Cache
	if c == nil {
		c = cache.NewNoopCache()
	}
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}
	weights := cfg.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}

	notifier := NewNotificationEventService(deps.Publisher, deps.Logger)
	engine := NewGradingEngine(weights)
	assembler := NewAssembler(deps.Repo.Question(), cfg.StrictAssembly, deps.Logger)

	paper := NewPaperService(deps.Repo, assembler, c, notifier, v, deps.Logger, PaperServiceConfig{
		CacheTTL:        cfg.CacheTTL,
		DeleteQuestions: cfg.DeleteQuestions,
	})
	submission := NewSubmissionService(deps.Repo, paper, engine, deps.Directory, notifier, v, deps.Logger)

	return &serviceManager{
		paper:      paper,
		question:   NewQuestionService(deps.Repo, v, deps.Generator, deps.Logger),
		submission: submission,
		review:     NewReviewService(submission, deps.Reviewer, deps.Logger),
		export:     NewExportService(paper, submission, deps.Logger),
		analytics:  NewAnalyticsService(deps.Repo, paper, engine, deps.Logger),
		grading:    engine,
	}
}

func (m *serviceManager) Paper() PaperService           { return m.paper }
func (m *serviceManager) Question() QuestionService     { return m.question }
func (m *serviceManager) Submission() SubmissionService { return m.submission }
func (m *serviceManager) Review() ReviewService         { return m.review }
func (m *serviceManager) Export() ExportService         { return m.export }
func (m *serviceManager) Analytics() AnalyticsService   { return m.analytics }
func (m *serviceManager) Grading() GradingEngine        { return m.grading }
