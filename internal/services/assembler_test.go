package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idsOf(qs []*models.Question) map[uint]bool {
	out := make(map[uint]bool, len(qs))
	for _, q := range qs {
		out[q.ID] = true
	}
	return out
}

func assertNoDuplicates(t *testing.T, ids []uint) {
	t.Helper()
	seen := map[uint]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "question %d selected twice", id)
		seen[id] = true
	}
}

func TestAssembleFillsEveryBucket(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 6)
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyHard, 6)
	env.seed(t, "DBMS", models.QuestionShort, models.DifficultyMedium, 4)
	env.seed(t, "DBMS", models.QuestionLong, models.DifficultyHard, 3)

	a := NewAssembler(env.store.Question(), false, discardLogger())

	got, err := a.Assemble(context.Background(), "DBMS", models.ModeMixed, Quotas{MCQCount: 10, ShortCount: 3, LongCount: 2}, 42)
	require.NoError(t, err)

	assert.Len(t, got.QuestionIDs, 15)
	assertNoDuplicates(t, got.QuestionIDs)
	assert.False(t, got.HasShortfall())
	assert.Equal(t, []string{"mcq", "short", "long"}, []string{got.Buckets[0].Bucket, got.Buckets[1].Bucket, got.Buckets[2].Bucket})
}

func TestAssembleKeepsBucketOrder(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	easy := idsOf(env.seed(t, "Math", models.QuestionMCQ, models.DifficultyEasy, 5))
	medium := idsOf(env.seed(t, "Math", models.QuestionMCQ, models.DifficultyMedium, 5))
	hard := idsOf(env.seed(t, "Math", models.QuestionMCQ, models.DifficultyHard, 5))

	a := NewAssembler(env.store.Question(), false, discardLogger())
	got, err := a.Assemble(context.Background(), "math", models.ModeMCQOnly, Quotas{EasyCount: 2, MediumCount: 3, HardCount: 1}, 7)
	require.NoError(t, err)
	require.Len(t, got.QuestionIDs, 6)

	for _, id := range got.QuestionIDs[:2] {
		assert.True(t, easy[id])
	}
	for _, id := range got.QuestionIDs[2:5] {
		assert.True(t, medium[id])
	}
	assert.True(t, hard[got.QuestionIDs[5]])
}

func TestAssembleShortfallOnlyAffectsItsBucket(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 2)
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyMedium, 5)

	a := NewAssembler(env.store.Question(), false, discardLogger())
	got, err := a.Assemble(context.Background(), "DBMS", models.ModeMCQOnly, Quotas{EasyCount: 5, MediumCount: 3}, 1)
	require.NoError(t, err)

	assert.Len(t, got.QuestionIDs, 5)
	assert.Equal(t, BucketReport{Bucket: "easy", Requested: 5, Available: 2, Selected: 2}, got.Buckets[0])
	assert.Equal(t, BucketReport{Bucket: "medium", Requested: 3, Available: 5, Selected: 3}, got.Buckets[1])
	assert.True(t, got.HasShortfall())
}

func TestAssembleOnlyEasyShortfallScenario(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 2)

	a := NewAssembler(env.store.Question(), false, discardLogger())
	got, err := a.Assemble(context.Background(), "DBMS", models.ModeMCQOnly, Quotas{EasyCount: 5}, 0)
	require.NoError(t, err)
	assert.Len(t, got.QuestionIDs, 2)
}

func TestAssemblePoolOfOne(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	only := env.seed(t, "Bio", models.QuestionShort, models.DifficultyEasy, 1)[0]

	a := NewAssembler(env.store.Question(), false, discardLogger())
	for seed := int64(1); seed <= 20; seed++ {
		got, err := a.Assemble(context.Background(), "Bio", models.ModeSubjectiveOnly, Quotas{ShortCount: 3}, seed)
		require.NoError(t, err)
		assert.Equal(t, []uint{only.ID}, got.QuestionIDs)
	}
}

func TestAssembleNoQuestionsAvailable(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	a := NewAssembler(env.store.Question(), false, discardLogger())

	_, err := a.Assemble(context.Background(), "DBMS", models.ModeMixed, Quotas{}, 0)
	assert.True(t, errors.Is(err, ErrNoQuestionsAvailable))

	env.seed(t, "Physics", models.QuestionMCQ, models.DifficultyEasy, 3)
	_, err = a.Assemble(context.Background(), "DBMS", models.ModeMCQOnly, Quotas{EasyCount: 3}, 0)
	assert.True(t, errors.Is(err, ErrNoQuestionsAvailable))
}

func TestAssembleStrictModeRejectsShortfall(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.seed(t, "DBMS", models.QuestionLong, models.DifficultyHard, 1)
	env.seed(t, "DBMS", models.QuestionShort, models.DifficultyHard, 4)

	a := NewAssembler(env.store.Question(), true, discardLogger())

	_, err := a.Assemble(context.Background(), "DBMS", models.ModeSubjectiveOnly, Quotas{ShortCount: 2, LongCount: 2}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuestionShortfall))

	var se *ShortfallError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Buckets[1].Available)
	assert.Contains(t, se.Error(), "bucket long")

	got, err := a.Assemble(context.Background(), "DBMS", models.ModeSubjectiveOnly, Quotas{ShortCount: 2, LongCount: 1}, 3)
	require.NoError(t, err)
	assert.Len(t, got.QuestionIDs, 3)
}

func TestAssembleSameSeedSameDraw(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 30)

	a := NewAssembler(env.store.Question(), false, discardLogger())
	q := Quotas{EasyCount: 10}

	first, err := a.Assemble(context.Background(), "DBMS", models.ModeMCQOnly, q, 99)
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), "DBMS", models.ModeMCQOnly, q, 99)
	require.NoError(t, err)
	assert.Equal(t, first.QuestionIDs, second.QuestionIDs)
}

func TestAssembleDrawIsSpreadOverPool(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	pool := env.seed(t, "DBMS", models.QuestionMCQ, models.DifficultyEasy, 10)

	a := NewAssembler(env.store.Question(), false, discardLogger())
	hits := map[uint]int{}
	for seed := int64(1); seed <= 200; seed++ {
		got, err := a.Assemble(context.Background(), "DBMS", models.ModeMCQOnly, Quotas{EasyCount: 3}, seed)
		require.NoError(t, err)
		for _, id := range got.QuestionIDs {
			hits[id]++
		}
	}
	// 600 draws over 10 questions; every question should come up
	for _, q := range pool {
		assert.Greater(t, hits[q.ID], 20)
	}
}

func TestAssembleValidatesInput(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	a := NewAssembler(env.store.Question(), false, discardLogger())

	_, err := a.Assemble(context.Background(), "DBMS", models.PaperMode("oral"), Quotas{}, 0)
	assert.True(t, IsValidation(err))

	_, err = a.Assemble(context.Background(), "  ", models.ModeMixed, Quotas{MCQCount: 1}, 0)
	assert.True(t, IsValidation(err))

	_, err = a.Assemble(context.Background(), "DBMS", models.ModeMixed, Quotas{MCQCount: -1}, 0)
	assert.True(t, IsValidation(err))
}

func TestLenientInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`45`, 45},
		{`"30"`, 30},
		{`" 12 "`, 12},
		{`"abc"`, 0},
		{`""`, 0},
		{`null`, 0},
		{`true`, 0},
		{`12.0`, 12},
		{`"7e1"`, 70},
		{`-3`, -3},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var req AssemblePaperRequest
			require.NoError(t, json.Unmarshal([]byte(`{"duration":`+tt.raw+`}`), &req))
			assert.Equal(t, tt.want, req.Duration.Int())
		})
	}
}

func TestLenientIntRejectsFractionsAndOverflow(t *testing.T) {
	for _, raw := range []string{`5.7`, `"5.7"`, `1e300`, `"-1e20"`} {
		t.Run(raw, func(t *testing.T) {
			var req AssemblePaperRequest
			assert.Error(t, json.Unmarshal([]byte(`{"duration":`+raw+`}`), &req))
		})
	}
}
