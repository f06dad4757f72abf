package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/auth"
	"github.com/SAP-F-2025/exam-paper-service/internal/metrics"
	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/SAP-F-2025/exam-paper-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const serviceName = "exam-paper-service"

type RouterOptions struct {
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

type HandlerManager struct {
	paperHandler      *PaperHandler
	submissionHandler *SubmissionHandler
	questionHandler   *QuestionHandler
	examHandler       *ExamHandler

	authenticator auth.Authenticator
	authorizer    auth.Authorizer
	logger        utils.Logger
	options       RouterOptions
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authenticator auth.Authenticator,
	authorizer auth.Authorizer,
	logger utils.Logger,
	options RouterOptions,
) *HandlerManager {
	return &HandlerManager{
		paperHandler: NewPaperHandler(
			serviceManager.Paper(), serviceManager.Submission(), serviceManager.Export(), serviceManager.Analytics(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), serviceManager.Review(), logger),
		questionHandler:   NewQuestionHandler(serviceManager.Question(), logger),
		examHandler:       NewExamHandler(serviceManager.Paper(), serviceManager.Submission(), logger),
		authenticator:     authenticator,
		authorizer:        authorizer,
		logger:            logger,
		options:           options,
	}
}

// NewRouter builds the engine with the shared middleware chain and all routes.
func (hm *HandlerManager) NewRouter(ctx context.Context) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.RequestID(),
		RequestContext(),
		utils.LoggerMiddleware(hm.logger),
		utils.ContextLogger(hm.logger),
		metrics.MetricsMiddleware(),
	)
	hm.SetupRoutes(ctx, router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(ctx context.Context, router *gin.Engine) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", metrics.PrometheusHandler())

	require := func(action auth.Action) gin.HandlerFunc {
		return RequireAction(hm.authorizer, action)
	}

	v1 := router.Group("/api/v1")
	v1.Use(Authenticate(hm.authenticator))
	{
		// Paper routes
		papers := v1.Group("/papers")
		{
			papers.POST("", require(auth.ActionAssemblePaper), hm.paperHandler.CreatePaper)
			papers.GET("", require(auth.ActionManagePapers), hm.paperHandler.ListPapers)
			papers.GET("/:id", require(auth.ActionManagePapers), hm.paperHandler.GetPaper)
			papers.POST("/:id/publish", require(auth.ActionManagePapers), hm.paperHandler.PublishPaper)
			papers.DELETE("/:id", require(auth.ActionManagePapers), hm.paperHandler.DeletePaper)
			papers.GET("/:id/submissions", require(auth.ActionViewSubmissions), hm.paperHandler.ListSubmissions)
			papers.GET("/:id/submissions/export", require(auth.ActionViewSubmissions), hm.paperHandler.ExportSubmissions)
			papers.GET("/:id/analytics", require(auth.ActionViewSubmissions), hm.paperHandler.GetAnalytics)
		}

		// Grading routes
		submissions := v1.Group("/submissions")
		{
			submissions.POST("/:id/grade", require(auth.ActionGrade), hm.submissionHandler.GradeSubmission)
			submissions.POST("/:id/regrade", require(auth.ActionGrade), hm.submissionHandler.RegradeSubmission)
			submissions.GET("/:id/report", require(auth.ActionViewSubmissions), hm.submissionHandler.GetReport)
			submissions.GET("/:id/suggestions", require(auth.ActionGrade), hm.submissionHandler.GetSuggestions)
		}

		// Question bank routes
		questions := v1.Group("/questions")
		questions.Use(require(auth.ActionManageQuestions))
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/batch", hm.questionHandler.CreateQuestionsBatch)
			questions.POST("/generate", hm.questionHandler.GenerateQuestions)
			questions.GET("", hm.questionHandler.ListQuestions)
		}

		// Student routes
		exams := v1.Group("/exams")
		{
			exams.GET("", require(auth.ActionViewExams), hm.examHandler.ListExams)
			exams.GET("/:id", require(auth.ActionViewExams), hm.examHandler.GetExam)

			submit := []gin.HandlerFunc{require(auth.ActionSubmit)}
			if hm.options.SubmitRateLimit > 0 && hm.options.SubmitRateWindow > 0 {
				submit = append(submit, RateLimiter(ctx, hm.options.SubmitRateLimit, hm.options.SubmitRateWindow))
			}
			submit = append(submit, hm.examHandler.SubmitExam)
			exams.POST("/:id/submit", submit...)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
