package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/SAP-F-2025/exam-paper-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type PaperHandler struct {
	BaseHandler
	paperService      services.PaperService
	submissionService services.SubmissionService
	exportService     services.ExportService
	analyticsService  services.AnalyticsService
}

func NewPaperHandler(
	paperService services.PaperService,
	submissionService services.SubmissionService,
	exportService services.ExportService,
	analyticsService services.AnalyticsService,
	logger utils.Logger,
) *PaperHandler {
	return &PaperHandler{
		BaseHandler:       NewBaseHandler(logger),
		paperService:      paperService,
		submissionService: submissionService,
		exportService:     exportService,
		analyticsService:  analyticsService,
	}
}

// CreatePaper assembles a paper from the question bank and stores it unpublished
// @Summary Assemble paper
// @Description Draws questions per quota bucket and persists the paper
// @Tags papers
// @Accept json
// @Produce json
// @Param paper body services.AssemblePaperRequest true "Paper data"
// @Success 201 {object} services.AssemblePaperResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /papers [post]
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	h.LogRequest(c, "Creating paper")

	var req services.AssemblePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.paperService.Assemble(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListPapers lists papers, newest first
// @Summary List papers
// @Tags papers
// @Produce json
// @Param subject query string false "Subject filter"
// @Param published query bool false "Only published papers"
// @Success 200 {array} models.Paper
// @Router /papers [get]
func (h *PaperHandler) ListPapers(c *gin.Context) {
	filters := repositories.PaperFilters{
		Subject:       strings.TrimSpace(c.Query("subject")),
		PublishedOnly: c.Query("published") == "true",
		Limit:         h.parseIntQuery(c, "limit", 0),
		Offset:        h.parseIntQuery(c, "offset", 0),
	}

	papers, err := h.paperService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, papers)
}

// GetPaper returns a paper with its questions and answers
// @Summary Get paper
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {object} models.Paper
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id} [get]
func (h *PaperHandler) GetPaper(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	paper, err := h.paperService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}

// PublishPaper makes a paper visible to students
// @Summary Publish paper
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {object} SuccessResponse{data=models.Paper}
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id}/publish [post]
func (h *PaperHandler) PublishPaper(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Publishing paper", "paper_id", id)

	paper, err := h.paperService.Publish(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Paper published successfully", paper, "paper_id", id)
}

// DeletePaper removes a paper and its submissions
// @Summary Delete paper
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {object} SuccessResponse{data=services.DeletePaperResponse}
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id} [delete]
func (h *PaperHandler) DeletePaper(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting paper", "paper_id", id)

	resp, err := h.paperService.Delete(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Paper deleted successfully", resp, "paper_id", id)
}

// ListSubmissions lists the submissions of a paper with student identities
// @Summary List paper submissions
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {array} models.Submission
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id}/submissions [get]
func (h *PaperHandler) ListSubmissions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	submissions, err := h.submissionService.ListByPaper(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submissions)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportSubmissions downloads the paper results as a spreadsheet
// @Summary Export paper results
// @Tags papers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Paper ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id}/submissions/export [get]
func (h *PaperHandler) ExportSubmissions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting submissions", "paper_id", id)

	// Build into memory so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.exportService.ExportSubmissions(c.Request.Context(), id, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="paper-%d-results.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetAnalytics summarizes the scores of a paper
// @Summary Paper analytics
// @Tags papers
// @Produce json
// @Param id path uint true "Paper ID"
// @Success 200 {object} services.PaperAnalytics
// @Failure 404 {object} ErrorResponse
// @Router /papers/{id}/analytics [get]
func (h *PaperHandler) GetAnalytics(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	analytics, err := h.analyticsService.GetPaperAnalytics(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}
