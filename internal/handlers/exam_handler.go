package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/SAP-F-2025/exam-paper-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ExamHandler serves the student side: published papers and answer submission.
type ExamHandler struct {
	BaseHandler
	paperService      services.PaperService
	submissionService services.SubmissionService
}

func NewExamHandler(
	paperService services.PaperService,
	submissionService services.SubmissionService,
	logger utils.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler:       NewBaseHandler(logger),
		paperService:      paperService,
		submissionService: submissionService,
	}
}

// ListExams lists published papers
// @Summary List available exams
// @Tags exams
// @Produce json
// @Success 200 {array} models.Paper
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	papers, err := h.paperService.ListPublished(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, papers)
}

// GetExam returns a published paper without correct answers
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {object} models.Paper
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	paper, err := h.paperService.GetForStudent(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}

// SubmitExam records the caller's answers and returns the auto score
// @Summary Submit answers
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Paper ID"
// @Param answers body services.SubmitAnswersRequest true "Answers keyed by question id"
// @Success 201 {object} services.SubmitAnswersResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /exams/{id}/submit [post]
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	studentID := h.getUserID(c)
	if studentID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Submitting answers", "paper_id", id)

	var req services.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.submissionService.Submit(c.Request.Context(), id, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
