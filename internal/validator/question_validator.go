package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/normalizer"
)

// MaxOptions is the largest option list an mcq question may carry.
const MaxOptions = 4

// QuestionValidator checks bank invariants on canonical questions
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion returns every invariant the question breaks.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, ValidationError{Field: "text", Message: "is required", Rule: "required"})
	}
	if strings.TrimSpace(q.Subject) == "" {
		errs = append(errs, ValidationError{Field: "subject", Message: "is required", Rule: "required"})
	}
	if !q.Type.Valid() {
		errs = append(errs, ValidationError{Field: "type", Message: "must be mcq, short or long", Value: q.Type, Rule: "question_type"})
	}
	if !q.Difficulty.Valid() {
		errs = append(errs, ValidationError{Field: "difficulty", Message: "must be Easy, Medium or Hard", Value: q.Difficulty, Rule: "difficulty_level"})
	}

	if q.Type == models.QuestionMCQ {
		errs = append(errs, v.validateMCQ(q)...)
	} else if len(q.Options) > MaxOptions {
		errs = append(errs, ValidationError{Field: "options", Message: fmt.Sprintf("must have at most %d entries", MaxOptions), Value: len(q.Options), Rule: "max"})
	}

	return errs
}

func (v *QuestionValidator) validateMCQ(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	if len(q.Options) == 0 {
		errs = append(errs, ValidationError{Field: "options", Message: "is required for mcq questions", Rule: "required"})
	}
	if len(q.Options) > MaxOptions {
		errs = append(errs, ValidationError{Field: "options", Message: fmt.Sprintf("must have at most %d entries", MaxOptions), Value: len(q.Options), Rule: "max"})
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("options[%d]", i), Message: "must not be blank", Rule: "not_blank"})
		}
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		errs = append(errs, ValidationError{Field: "correct_answer", Message: "is required for mcq questions", Rule: "required"})
		return errs
	}

	if !v.AnswerIsOption(q.Options, q.CorrectAnswer) {
		errs = append(errs, ValidationError{Field: "correct_answer", Message: "must be one of the options", Value: q.CorrectAnswer, Rule: "oneof"})
	}
	return errs
}

// AnswerIsOption reports whether answer denotes an option, literally or via an option key.
func (v *QuestionValidator) AnswerIsOption(options []string, answer string) bool {
	resolved := normalizer.Normalize(options, answer)
	for _, opt := range options {
		if normalizer.Canonical(opt) == resolved {
			return true
		}
	}
	return false
}
