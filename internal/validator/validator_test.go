package validator

import (
	"testing"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type paperInput struct {
	Title      string `json:"title" validate:"not_blank"`
	Mode       string `json:"mode" validate:"paper_mode"`
	Type       string `json:"type" validate:"question_type"`
	Difficulty string `json:"difficulty" validate:"difficulty_level"`
}

func TestValidateCustomTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&paperInput{Title: "Quiz", Mode: "mixed", Type: "Objective", Difficulty: " simple"}))

	err := v.Validate(&paperInput{Title: "  ", Mode: "random", Type: "poem", Difficulty: "brutal"})
	require.Error(t, err)

	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, errs, 4)
	assert.Equal(t, "title", errs[0].Field)
	assert.Equal(t, "paper_mode", errs[1].Rule)
	assert.Equal(t, "question_type", errs[2].Rule)
	assert.Equal(t, "difficulty_level", errs[3].Rule)
}

func TestValidateQuestion(t *testing.T) {
	qv := NewQuestionValidator()

	tests := []struct {
		name   string
		q      models.Question
		fields []string
	}{
		{
			name: "valid mcq with literal answer",
			q:    models.Question{Text: "Capital?", Subject: "Geo", Type: models.QuestionMCQ, Difficulty: models.DifficultyEasy, Options: datatypes.JSONSlice[string]{"Paris", "Rome"}, CorrectAnswer: " paris"},
		},
		{
			name: "valid mcq with option key",
			q:    models.Question{Text: "Capital?", Subject: "Geo", Type: models.QuestionMCQ, Difficulty: models.DifficultyEasy, Options: datatypes.JSONSlice[string]{"Paris", "Rome"}, CorrectAnswer: "B"},
		},
		{
			name:   "mcq answer outside options",
			q:      models.Question{Text: "Capital?", Subject: "Geo", Type: models.QuestionMCQ, Difficulty: models.DifficultyEasy, Options: datatypes.JSONSlice[string]{"Paris", "Rome"}, CorrectAnswer: "Madrid"},
			fields: []string{"correct_answer"},
		},
		{
			name:   "mcq with too many options",
			q:      models.Question{Text: "Pick", Subject: "Geo", Type: models.QuestionMCQ, Difficulty: models.DifficultyHard, Options: datatypes.JSONSlice[string]{"a", "b", "c", "d", "e"}, CorrectAnswer: "a"},
			fields: []string{"options"},
		},
		{
			name: "subjective without options or answer",
			q:    models.Question{Text: "Explain TCP", Subject: "Networks", Type: models.QuestionLong, Difficulty: models.DifficultyMedium},
		},
		{
			name:   "missing text and unknown type",
			q:      models.Question{Subject: "Networks", Type: "poem", Difficulty: models.DifficultyMedium},
			fields: []string{"text", "type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := qv.ValidateQuestion(&tt.q)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}
