package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/exam-paper-service/internal/cache"
	"github.com/SAP-F-2025/exam-paper-service/internal/events"
	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAssemblePersistsUnpublishedPaper(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 4)
	ctx := context.Background()

	resp, err := env.papers.Assemble(ctx, &AssemblePaperRequest{
		Title:    " Unit Test 1 ",
		Subject:  "  DBMS ",
		Mode:     models.ModeMCQOnly,
		Duration: 45,
		Quotas:   Quotas{EasyCount: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalQuestions)

	stored, err := env.store.Paper().GetByID(ctx, resp.PaperID)
	require.NoError(t, err)
	assert.Equal(t, "Unit Test 1", stored.Title)
	assert.Equal(t, "DBMS", stored.Subject)
	assert.Equal(t, 45, stored.Duration)
	assert.False(t, stored.IsPublished)
	assert.Equal(t, resp.Paper.QuestionIDs, stored.QuestionIDs)
}

func TestAssembleWritesNothingOnFailure(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.papers.Assemble(ctx, &AssemblePaperRequest{Title: "Quiz", Subject: "DBMS", Mode: models.ModeMixed})
	assert.True(t, errors.Is(err, ErrNoQuestionsAvailable))

	_, err = env.papers.Assemble(ctx, &AssemblePaperRequest{Subject: "DBMS", Mode: models.ModeMixed, Quotas: Quotas{MCQCount: 1}})
	assert.True(t, IsValidation(err))

	papers, err := env.papers.List(ctx, repositories.PaperFilters{})
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestAssembleStrictShortfallIsBusinessRule(t *testing.T) {
	env := newTestEnv(t, envOptions{strict: true})
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 1)

	_, err := env.papers.Assemble(context.Background(), &AssemblePaperRequest{
		Title: "Quiz", Subject: "DBMS", Mode: models.ModeMCQOnly, Quotas: Quotas{EasyCount: 2},
	})
	assert.True(t, errors.Is(err, ErrQuestionShortfall))
	assert.True(t, IsBusinessRule(err))
}

func TestPublishFlipsOnce(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	paper := &models.Paper{Title: "Final", Subject: "DBMS", QuestionIDs: datatypes.JSONSlice[uint]{1}}
	require.NoError(t, env.store.Paper().Create(ctx, paper))

	got, err := env.papers.Publish(ctx, paper.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
	assert.NotNil(t, got.PublishedAt)

	again, err := env.papers.Publish(ctx, paper.ID)
	require.NoError(t, err)
	assert.True(t, again.IsPublished)
	assert.Equal(t, got.PublishedAt, again.PublishedAt)

	assert.Len(t, env.publisher.EventsOfType(events.EventPaperPublished), 1)

	_, err = env.papers.Publish(ctx, 999)
	assert.True(t, errors.Is(err, ErrPaperNotFound))
}

func TestListNewestFirstAndPublishedOnly(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, env.store.Paper().Create(ctx, &models.Paper{Title: title, Subject: "S", QuestionIDs: datatypes.JSONSlice[uint]{}}))
	}
	_, err := env.papers.Publish(ctx, 2)
	require.NoError(t, err)

	all, err := env.papers.List(ctx, repositories.PaperFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "first", all[2].Title)

	published, err := env.papers.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "second", published[0].Title)
}

func TestGetResolvesQuestionsAndStudentViewHidesAnswers(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	qs := env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 3)

	paper := &models.Paper{Title: "P", Subject: "DBMS", QuestionIDs: datatypes.JSONSlice[uint]{qs[2].ID, qs[0].ID}}
	require.NoError(t, env.store.Paper().Create(ctx, paper))

	admin, err := env.papers.Get(ctx, paper.ID)
	require.NoError(t, err)
	require.Len(t, admin.Questions, 2)
	assert.Equal(t, qs[2].ID, admin.Questions[0].ID)
	assert.Equal(t, "a", admin.Questions[0].CorrectAnswer)

	_, err = env.papers.GetForStudent(ctx, paper.ID)
	assert.True(t, errors.Is(err, ErrPaperNotFound))

	_, err = env.papers.Publish(ctx, paper.ID)
	require.NoError(t, err)

	student, err := env.papers.GetForStudent(ctx, paper.ID)
	require.NoError(t, err)
	for _, q := range student.Questions {
		assert.Empty(t, q.CorrectAnswer)
		assert.Len(t, q.Options, 4)
	}
}

func TestDeletePaperCascadePolicy(t *testing.T) {
	for _, deleteQuestions := range []bool{false, true} {
		env := newTestEnv(t, envOptions{deleteQuestions: deleteQuestions})
		ctx := context.Background()
		qs := env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 2)
		paper := env.publishedPaper(t, qs...)

		_, err := env.submissions.Submit(ctx, paper.ID, "s1", &SubmitAnswersRequest{Answers: map[string]interface{}{}})
		require.NoError(t, err)

		resp, err := env.papers.Delete(ctx, paper.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.DeletedSubmissions)

		_, total, err := env.store.Question().List(ctx, repositories.QuestionFilters{})
		require.NoError(t, err)
		if deleteQuestions {
			assert.Equal(t, int64(2), resp.DeletedQuestions)
			assert.Equal(t, int64(0), total)
		} else {
			assert.Equal(t, int64(0), resp.DeletedQuestions)
			assert.Equal(t, int64(2), total)
		}

		_, err = env.papers.Get(ctx, paper.ID)
		assert.True(t, errors.Is(err, ErrPaperNotFound))
		assert.Len(t, env.publisher.EventsOfType(events.EventPaperDeleted), 1)
	}

	env := newTestEnv(t, envOptions{})
	_, err := env.papers.Delete(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrPaperNotFound))
}

func TestGetReadsThroughCacheAndPublishInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t, envOptions{cache: cache.NewRedisCache(client, "exam:", discardLogger())})
	ctx := context.Background()
	qs := env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 1)
	paper := &models.Paper{Title: "Cached", Subject: "DBMS", QuestionIDs: datatypes.JSONSlice[uint]{qs[0].ID}}
	require.NoError(t, env.store.Paper().Create(ctx, paper))

	first, err := env.papers.Get(ctx, paper.ID)
	require.NoError(t, err)
	assert.False(t, first.IsPublished)
	assert.True(t, mr.Exists("exam:paper:1"))

	cached, err := env.papers.Get(ctx, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, first.QuestionIDs, cached.QuestionIDs)
	assert.Equal(t, "a", cached.Questions[0].CorrectAnswer)

	_, err = env.papers.Publish(ctx, paper.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists("exam:paper:1"))

	fresh, err := env.papers.Get(ctx, paper.ID)
	require.NoError(t, err)
	assert.True(t, fresh.IsPublished)
}
