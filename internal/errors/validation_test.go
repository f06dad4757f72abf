package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("test_field", "test message", "test_value")

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}

	if err.Value != "test_value" {
		t.Errorf("Expected value to be 'test_value', got '%v'", err.Value)
	}

	expected := "validation error on field 'test_field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("title", "is required", nil))
	expected := "validation failed: title is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("subject", "is required", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("mode", "bad mode", "paper_mode", "random")

	if err.Rule != "paper_mode" {
		t.Errorf("Expected rule to be 'paper_mode', got '%s'", err.Rule)
	}
}

type sample struct {
	Title string `validate:"required"`
	Count int    `validate:"gte=0"`
}

func TestToValidationErrors(t *testing.T) {
	v := validator.New()
	err := v.Struct(sample{Count: -1})

	converted := ToValidationErrors(fmt.Errorf("wrapped: %w", err))
	if len(converted) != 2 {
		t.Fatalf("Expected 2 converted errors, got %d", len(converted))
	}
	if converted[0].Field != "Title" || converted[0].Message != "is required" {
		t.Errorf("Unexpected first error: %+v", converted[0])
	}
	if converted[1].Rule != "gte" {
		t.Errorf("Expected rule 'gte', got '%s'", converted[1].Rule)
	}

	if ToValidationErrors(fmt.Errorf("plain")) != nil {
		t.Errorf("Expected nil for non-validator errors")
	}
}
