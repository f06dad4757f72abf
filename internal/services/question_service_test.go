package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-paper-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuestionService_Create(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	q, err := env.questions.Create(ctx, &CreateQuestionRequest{
		Text:          "  Which key identifies a row?  ",
		Subject:       " DBMS ",
		Difficulty:    "simple",
		Type:          "Objective",
		Options:       []string{" primary key", "foreign key ", "index"},
		CorrectAnswer: "option a",
	})
	require.NoError(t, err)

	assert.NotZero(t, q.ID)
	assert.Equal(t, "Which key identifies a row?", q.Text)
	assert.Equal(t, "DBMS", q.Subject)
	assert.Equal(t, models.DefaultSection, q.Section)
	assert.Equal(t, models.DifficultyEasy, q.Difficulty)
	assert.Equal(t, models.QuestionMCQ, q.Type)
	assert.Equal(t, []string{"primary key", "foreign key", "index"}, []string(q.Options))
	assert.Equal(t, "primary key", q.CorrectAnswer)

	stored, err := env.store.Question().GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.CorrectAnswer, stored.CorrectAnswer)
}

func TestQuestionService_CreateRejectsInvalid(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		name  string
		req   CreateQuestionRequest
		field string
	}{
		{
			name:  "unknown type",
			req:   CreateQuestionRequest{Text: "q", Subject: "s", Difficulty: "easy", Type: "puzzle"},
			field: "type",
		},
		{
			name:  "mcq answer not an option",
			req:   CreateQuestionRequest{Text: "q", Subject: "s", Difficulty: "easy", Type: "mcq", Options: []string{"x", "y"}, CorrectAnswer: "z"},
			field: "correct_answer",
		},
		{
			name:  "mcq without options",
			req:   CreateQuestionRequest{Text: "q", Subject: "s", Difficulty: "hard", Type: "mcq", CorrectAnswer: "x"},
			field: "options",
		},
		{
			name:  "blank subject",
			req:   CreateQuestionRequest{Text: "q", Subject: "   ", Difficulty: "avg", Type: "essay"},
			field: "subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.questions.Create(context.Background(), &tt.req)
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var ve ValidationErrors
			require.True(t, errors.As(err, &ve))
			fields := make([]string, 0, len(ve))
			for _, e := range ve {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestQuestionService_CreateBatchIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.questions.CreateBatch(ctx, []*CreateQuestionRequest{
		{Text: "ok", Subject: "DBMS", Difficulty: "easy", Type: "theory"},
		{Text: "bad", Subject: "DBMS", Difficulty: "impossible", Type: "short"},
	})
	require.Error(t, err)
	var ve ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "questions[1].difficulty", ve[0].Field)

	list, err := env.questions.List(ctx, &ListQuestionsRequest{Subject: "DBMS"})
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	created, err := env.questions.CreateBatch(ctx, []*CreateQuestionRequest{
		{Text: "one", Subject: "DBMS", Difficulty: "easy", Type: "theory"},
		{Text: "two", Subject: "DBMS", Difficulty: "difficult", Type: "essay", Section: "Section B"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, models.QuestionShort, created[0].Type)
	assert.Equal(t, models.QuestionLong, created[1].Type)
	assert.Equal(t, "Section B", created[1].Section)

	_, err = env.questions.CreateBatch(ctx, nil)
	assert.True(t, IsValidation(err))
}

func TestQuestionService_List(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 2)
	env.seed(t, "DBMS", models.QuestionLong, models.DifficultyHard, 1)
	env.seed(t, "OS", models.QuestionMCQ, models.DifficultyEasy, 1)

	list, err := env.questions.List(ctx, &ListQuestionsRequest{Subject: "DBMS", Type: "objective"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)

	list, err = env.questions.List(ctx, &ListQuestionsRequest{Difficulty: "difficult"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)

	_, err = env.questions.List(ctx, &ListQuestionsRequest{Type: "riddle"})
	assert.True(t, IsValidation(err))
}

func TestQuestionService_CreateLogsAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := NewQuestionService(memory.NewStore(), validator.New(), nil, logger)

	ctx := WithRequestID(context.Background(), "req-42")
	q, err := svc.Create(ctx, &CreateQuestionRequest{Text: "q", Subject: "DBMS", Difficulty: "easy", Type: "short"})
	require.NoError(t, err)

	var audit map[string]interface{}
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		var entry map[string]interface{}
		if json.Unmarshal(line, &entry) == nil && entry["event_type"] == string(AuditEventCreate) {
			audit = entry
		}
	}
	require.NotNil(t, audit)
	assert.Equal(t, "req-42", audit["request_id"])
	assert.EqualValues(t, q.ID, audit["resource_id"])
	assert.Equal(t, "question", audit["resource_type"])
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateQuestions(ctx context.Context, req *GenerateQuestionsRequest) ([]*CreateQuestionRequest, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.([]*CreateQuestionRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func generateRequest() *GenerateQuestionsRequest {
	return &GenerateQuestionsRequest{Topic: "Keys", Subject: " DBMS ", Difficulty: "avg", Count: 2}
}

func TestQuestionService_Generate(t *testing.T) {
	gen := &mockGenerator{}
	env := newTestEnv(t, envOptions{generator: gen})
	ctx := context.Background()

	gen.On("GenerateQuestions", mock.Anything, mock.Anything).Return([]*CreateQuestionRequest{
		{Text: "Which key identifies a row?", Options: []string{"Primary", "Foreign", "Candidate", "Super"}, CorrectAnswer: "A"},
		{Text: "Which key references another table?", Options: []string{"Primary", "Foreign", "Candidate", "Super"}, CorrectAnswer: "Foreign", Subject: "Chemistry"},
		{Text: "extra", Options: []string{"x", "y"}, CorrectAnswer: "x"},
	}, nil).Once()

	questions, err := env.questions.Generate(ctx, generateRequest())
	require.NoError(t, err)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Equal(t, models.QuestionMCQ, q.Type)
		assert.Equal(t, "DBMS", q.Subject)
		assert.Equal(t, models.DifficultyMedium, q.Difficulty)
		assert.Equal(t, models.DefaultSection, q.Section)
	}
	assert.Equal(t, "Primary", questions[0].CorrectAnswer)
	assert.Equal(t, "Foreign", questions[1].CorrectAnswer)

	list, err := env.questions.List(ctx, &ListQuestionsRequest{Subject: "DBMS"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
	gen.AssertExpectations(t)
}

func TestQuestionService_GenerateRejectsInvalidDrafts(t *testing.T) {
	gen := &mockGenerator{}
	env := newTestEnv(t, envOptions{generator: gen})
	ctx := context.Background()

	gen.On("GenerateQuestions", mock.Anything, mock.Anything).Return([]*CreateQuestionRequest{
		{Text: "ok", Options: []string{"a1", "b1"}, CorrectAnswer: "a1"},
		{Text: "bad", Options: []string{"a1", "b1"}, CorrectAnswer: "not an option"},
	}, nil).Once()

	_, err := env.questions.Generate(ctx, generateRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.False(t, IsValidation(err))

	list, err := env.questions.List(ctx, &ListQuestionsRequest{Subject: "DBMS"})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestQuestionService_GenerateErrors(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, envOptions{})
	_, err := env.questions.Generate(ctx, generateRequest())
	assert.True(t, errors.Is(err, ErrGenerationUnavailable))

	gen := &mockGenerator{}
	env = newTestEnv(t, envOptions{generator: gen})

	_, err = env.questions.Generate(ctx, &GenerateQuestionsRequest{Topic: "Keys", Subject: "DBMS", Difficulty: "avg", Count: 0})
	assert.True(t, IsValidation(err))
	_, err = env.questions.Generate(ctx, &GenerateQuestionsRequest{Topic: " ", Subject: "DBMS", Difficulty: "avg", Count: 1})
	assert.True(t, IsValidation(err))

	gen.On("GenerateQuestions", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 500")).Once()
	_, err = env.questions.Generate(ctx, generateRequest())
	assert.True(t, errors.Is(err, ErrGenerationFailed))

	gen.On("GenerateQuestions", mock.Anything, mock.Anything).Return([]*CreateQuestionRequest{}, nil).Once()
	_, err = env.questions.Generate(ctx, generateRequest())
	assert.True(t, errors.Is(err, ErrGenerationFailed))

	gen.AssertExpectations(t)
}
