package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/exam-paper-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrUnauthorized = errors.New("unauthorized access")

	// Paper errors
	ErrPaperNotFound        = errors.New("paper not found")
	ErrPaperNotPublished    = errors.New("paper is not published")
	ErrNoQuestionsAvailable = errors.New("no questions available for the requested quotas")
	ErrQuestionShortfall    = errors.New("question bank cannot fill the requested quotas")

	// Question errors
	ErrGenerationUnavailable = errors.New("question generation is not configured")
	ErrGenerationFailed      = errors.New("question generation failed")

	// Submission errors
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrDuplicateSubmission     = errors.New("submission already exists for this student and paper")
	ErrSubmissionAlreadyGraded = errors.New("submission already graded")
	ErrSubmissionNotGraded     = errors.New("submission has not been graded yet")

	// Review errors
	ErrReviewUnavailable = errors.New("answer review is not configured")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ShortfallError is returned by strict assembly. It unwraps to ErrQuestionShortfall.
type ShortfallError struct {
	Buckets []BucketReport `json:"buckets"`
}

func (se *ShortfallError) Error() string {
	for _, b := range se.Buckets {
		if b.Selected < b.Requested {
			return fmt.Sprintf("%s: bucket %s requested %d, available %d",
				ErrQuestionShortfall.Error(), b.Bucket, b.Requested, b.Available)
		}
	}
	return ErrQuestionShortfall.Error()
}

func (se *ShortfallError) Unwrap() error { return ErrQuestionShortfall }

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPaperNotFound) ||
		errors.Is(err, ErrSubmissionNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the caller is known but lacks the capability.
func IsForbidden(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsBusinessRule reports whether the question bank could not satisfy an assembly.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrNoQuestionsAvailable) ||
		errors.Is(err, ErrQuestionShortfall)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateSubmission) ||
		errors.Is(err, ErrSubmissionAlreadyGraded) ||
		errors.Is(err, ErrSubmissionNotGraded) ||
		errors.Is(err, ErrPaperNotPublished)
}
