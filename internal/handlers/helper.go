package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/gin-gonic/gin"
)

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "ID must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	status, response := serviceErrorResponse(err)
	if status == http.StatusInternalServerError {
		h.LogError(c, err, "Unexpected service error")
	}
	c.JSON(status, response)
}

// abortWithServiceError renders err like handleServiceError and stops the chain.
func abortWithServiceError(c *gin.Context, err error) {
	status, response := serviceErrorResponse(err)
	c.AbortWithStatusJSON(status, response)
}

func serviceErrorResponse(err error) (int, ErrorResponse) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		return http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
			Code:    "validation_failed",
		}
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		return http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: services.ValidationErrors{*validationError},
			Code:    "validation_failed",
		}
	}

	var shortfallError *services.ShortfallError
	if errors.As(err, &shortfallError) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Question bank cannot fill the requested quotas",
			Details: map[string]interface{}{"buckets": shortfallError.Buckets},
			Code:    "question_shortfall",
		}
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		return http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
			Code: "forbidden",
		}
	}

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated", Details: err.Error(), Code: "unauthorized"}
	case errors.Is(err, services.ErrPaperNotFound):
		return http.StatusNotFound, ErrorResponse{Message: "Paper not found", Code: "paper_not_found"}
	case errors.Is(err, services.ErrSubmissionNotFound):
		return http.StatusNotFound, ErrorResponse{Message: "Submission not found", Code: "submission_not_found"}
	case errors.Is(err, services.ErrNoQuestionsAvailable):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Message: "No questions available for the requested quotas",
			Code:    "no_questions_available",
		}
	case errors.Is(err, services.ErrDuplicateSubmission):
		return http.StatusConflict, ErrorResponse{
			Message: "Answers for this paper were already submitted",
			Code:    "duplicate_submission",
		}
	case errors.Is(err, services.ErrSubmissionAlreadyGraded):
		return http.StatusConflict, ErrorResponse{
			Message: "Submission already graded, use regrade to correct it",
			Code:    "already_graded",
		}
	case errors.Is(err, services.ErrSubmissionNotGraded):
		return http.StatusConflict, ErrorResponse{Message: "Submission has not been graded yet", Code: "not_graded"}
	case errors.Is(err, services.ErrPaperNotPublished):
		return http.StatusConflict, ErrorResponse{Message: "Paper is not published", Code: "paper_not_published"}
	case errors.Is(err, services.ErrReviewUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Message: "Answer review is not configured"}
	case errors.Is(err, services.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Message: "Question generation is not configured"}
	case errors.Is(err, services.ErrGenerationFailed):
		return http.StatusBadGateway, ErrorResponse{Message: "Question generation failed", Details: err.Error(), Code: "generation_failed"}
	// Generic errors
	case services.IsNotFound(err):
		return http.StatusNotFound, ErrorResponse{Message: "Resource not found"}
	case services.IsValidation(err):
		return http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: err.Error()}
	case services.IsConflict(err):
		return http.StatusConflict, ErrorResponse{Message: "Resource conflict"}
	}
	return http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"}
}
