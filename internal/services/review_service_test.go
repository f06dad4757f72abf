package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSuggestMarks(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	short := &models.Question{Text: "Define 2NF", Subject: "DBMS", Type: models.QuestionShort, Difficulty: models.DifficultyEasy, CorrectAnswer: "no partial dependency"}
	long := &models.Question{Text: "Discuss indexing", Subject: "DBMS", Type: models.QuestionLong, Difficulty: models.DifficultyHard}
	blank := &models.Question{Text: "Explain MVCC", Subject: "DBMS", Type: models.QuestionShort, Difficulty: models.DifficultyHard}
	mcq := &models.Question{Text: "Pick", Subject: "DBMS", Type: models.QuestionMCQ, Difficulty: models.DifficultyEasy, Options: []string{"x", "y"}, CorrectAnswer: "x"}
	for _, q := range []*models.Question{short, long, blank, mcq} {
		require.NoError(t, env.store.Question().Create(ctx, q))
	}
	paper := env.publishedPaper(t, short, long, blank, mcq)

	sub, err := env.submissions.Submit(ctx, paper.ID, "s1", &SubmitAnswersRequest{Answers: map[string]interface{}{
		AnswerKey(short.ID): "no partial keys",
		AnswerKey(long.ID):  "b-trees",
		AnswerKey(mcq.ID):   "x",
	}})
	require.NoError(t, err)

	reviewer := &mockReviewer{}
	reviewer.On("SuggestMarks", mock.Anything, short.ID, "no partial keys", 2.0).
		Return(&MarkSuggestion{Marks: 3, Feedback: "good"}, nil).Once()
	reviewer.On("SuggestMarks", mock.Anything, long.ID, "b-trees", 5.0).
		Return(nil, errors.New("timeout")).Once()

	svc := NewReviewService(env.submissions, reviewer, discardLogger())
	suggestions, err := svc.Suggest(ctx, sub.SubmissionID)
	require.NoError(t, err)
	require.Len(t, suggestions, 3)

	assert.Equal(t, short.ID, suggestions[0].QuestionID)
	assert.Equal(t, 2.0, suggestions[0].Marks, "clamped to the item weight")
	assert.Equal(t, "timeout", suggestions[1].Error)
	assert.Equal(t, blank.ID, suggestions[2].QuestionID)
	assert.Zero(t, suggestions[2].Marks)

	reviewer.AssertExpectations(t)

	stored, err := env.store.Submission().GetByID(ctx, sub.SubmissionID)
	require.NoError(t, err)
	assert.False(t, stored.IsGraded)
}

func TestSuggestMarksUnavailable(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	svc := NewReviewService(env.submissions, nil, discardLogger())

	_, err := svc.Suggest(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrReviewUnavailable))
}
