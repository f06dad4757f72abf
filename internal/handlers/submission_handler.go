package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/SAP-F-2025/exam-paper-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	reviewService     services.ReviewService
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	reviewService services.ReviewService,
	logger utils.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		reviewService:     reviewService,
	}
}

// GradeSubmission confirms the score of a submission
// @Summary Grade submission
// @Description Confirms the auto score, replaces it with final_score, or adds manual_marks
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param grade body services.GradeRequest false "Grade data"
// @Success 200 {object} services.GradeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/grade [post]
func (h *SubmissionHandler) GradeSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Grading submission", "submission_id", id)

	var req services.GradeRequest
	// an empty body confirms the auto score
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.submissionService.Grade(c.Request.Context(), id, h.getUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RegradeSubmission overwrites the score of a graded submission
// @Summary Regrade submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param grade body services.RegradeRequest true "Regrade data"
// @Success 200 {object} services.GradeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/regrade [post]
func (h *SubmissionHandler) RegradeSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Regrading submission", "submission_id", id)

	var req services.RegradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.submissionService.Regrade(c.Request.Context(), id, h.getUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetReport returns the per-question breakdown used for manual grading
// @Summary Get grade report
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.GradeReport
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/report [get]
func (h *SubmissionHandler) GetReport(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	report, err := h.submissionService.Report(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetSuggestions returns advisory marks for the subjective answers
// @Summary Suggest marks
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {array} services.MarkSuggestion
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /submissions/{id}/suggestions [get]
func (h *SubmissionHandler) GetSuggestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	suggestions, err := h.reviewService.Suggest(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggestions)
}
