package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/exam-paper-service/internal/cache"
	"github.com/SAP-F-2025/exam-paper-service/internal/events"
	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-paper-service/internal/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store       *memory.Store
	publisher   *events.MockEventPublisher
	engine      GradingEngine
	papers      PaperService
	questions   QuestionService
	submissions SubmissionService
	directory   *mockDirectory
}

type envOptions struct {
	strict          bool
	deleteQuestions bool
	cache           cache.CacheService
	directory       *mockDirectory
	generator       QuestionGenerator
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	logger := discardLogger()
	store := memory.NewStore()
	publisher := events.NewMockEventPublisher(logger)
	notifier := NewNotificationEventService(publisher, logger)
	v := validator.New()
	engine := NewGradingEngine(DefaultWeights())

	c := opts.cache
	if c == nil {
		c = cache.NewNoopCache()
	}

	papers := NewPaperService(store, NewAssembler(store.Question(), opts.strict, logger), c, notifier, v, logger,
		PaperServiceConfig{DeleteQuestions: opts.deleteQuestions})

	var directory StudentDirectory
	if opts.directory != nil {
		directory = opts.directory
	}

	return &testEnv{
		store:       store,
		publisher:   publisher,
		engine:      engine,
		papers:      papers,
		questions:   NewQuestionService(store, v, opts.generator, logger),
		submissions: NewSubmissionService(store, papers, engine, directory, notifier, v, logger),
		directory:   opts.directory,
	}
}

// seed stores n questions of one kind and returns them.
func (e *testEnv) seed(t *testing.T, subject string, qtype models.QuestionType, difficulty models.DifficultyLevel, n int) []*models.Question {
	t.Helper()
	out := make([]*models.Question, 0, n)
	for i := 0; i < n; i++ {
		q := &models.Question{
			Text:       "question",
			Subject:    subject,
			Type:       qtype,
			Difficulty: difficulty,
		}
		if qtype == models.QuestionMCQ {
			q.Options = []string{"a", "b", "c", "d"}
			q.CorrectAnswer = "a"
		}
		require.NoError(t, e.store.Question().Create(context.Background(), q))
		out = append(out, q)
	}
	return out
}

// publishedPaper stores a published paper over the given questions.
func (e *testEnv) publishedPaper(t *testing.T, questions ...*models.Question) *models.Paper {
	t.Helper()
	ctx := context.Background()
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	paper := &models.Paper{Title: "Paper", Subject: "DBMS", Mode: models.ModeMixed, QuestionIDs: ids}
	require.NoError(t, e.store.Paper().Create(ctx, paper))
	published, err := e.papers.Publish(ctx, paper.ID)
	require.NoError(t, err)
	return published
}

func ptr[T any](v T) *T { return &v }

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Lookup(ctx context.Context, ids []string) (map[string]*models.StudentProfile, error) {
	args := m.Called(ctx, ids)
	if v := args.Get(0); v != nil {
		return v.(map[string]*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockReviewer struct {
	mock.Mock
}

func (m *mockReviewer) SuggestMarks(ctx context.Context, question *models.Question, answer string, maxMarks float64) (*MarkSuggestion, error) {
	args := m.Called(ctx, question.ID, answer, maxMarks)
	if v := args.Get(0); v != nil {
		return v.(*MarkSuggestion), args.Error(1)
	}
	return nil, args.Error(1)
}
