package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/exam-paper-service/internal/errors"
	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/go-playground/validator/v10"
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// Validator combines struct-tag validation with question invariants
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// Validate checks struct tags and returns ValidationErrors on failure.
func (v *Validator) Validate(s interface{}) error {
	err := v.structValidator.Struct(s)
	if err == nil {
		return nil
	}
	if converted := apperrors.ToValidationErrors(err); len(converted) > 0 {
		return converted
	}
	return err
}

func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("paper_mode", validatePaperMode)
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("difficulty_level", validateDifficultyLevel)
	validate.RegisterValidation("not_blank", validateNotBlank)

	// Report json names in field errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validatePaperMode(fl validator.FieldLevel) bool {
	return models.PaperMode(fl.Field().String()).Valid()
}

// question_type and difficulty_level accept any registered synonym
func validateQuestionType(fl validator.FieldLevel) bool {
	_, ok := models.ParseQuestionType(fl.Field().String())
	return ok
}

func validateDifficultyLevel(fl validator.FieldLevel) bool {
	_, ok := models.ParseDifficulty(fl.Field().String())
	return ok
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
