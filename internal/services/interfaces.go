package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
)

// Assembler draws a question set for a paper without persisting anything.
type Assembler interface {
	Assemble(ctx context.Context, subject string, mode models.PaperMode, quotas Quotas, seed int64) (*Assembly, error)
}

type PaperService interface {
	Assemble(ctx context.Context, req *AssemblePaperRequest) (*AssemblePaperResponse, error)
	List(ctx context.Context, filters repositories.PaperFilters) ([]*models.Paper, error)
	ListPublished(ctx context.Context) ([]*models.Paper, error)
	// Get returns the paper with its questions resolved in stored order.
	Get(ctx context.Context, id uint) (*models.Paper, error)
	// GetForStudent returns a published paper without correct answers.
	GetForStudent(ctx context.Context, id uint) (*models.Paper, error)
	Publish(ctx context.Context, id uint) (*models.Paper, error)
	Delete(ctx context.Context, id uint) (*DeletePaperResponse, error)
}

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error)
	CreateBatch(ctx context.Context, reqs []*CreateQuestionRequest) ([]*models.Question, error)
	List(ctx context.Context, req *ListQuestionsRequest) (*QuestionListResponse, error)
	Generate(ctx context.Context, req *GenerateQuestionsRequest) ([]*models.Question, error)
}

// QuestionGenerator drafts mcq questions. Drafts go through the same checks as
// any other bank input.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req *GenerateQuestionsRequest) ([]*CreateQuestionRequest, error)
}

// GradingEngine scores answers against a resolved question list. It has no side effects.
type GradingEngine interface {
	Weights() Weights
	Evaluate(questions []*models.Question, answers map[string]interface{}) *GradeReport
	// FinalScore combines a grade request with the auto score of report.
	FinalScore(report *GradeReport, req *GradeRequest) (float64, error)
}

type SubmissionService interface {
	Submit(ctx context.Context, paperID uint, studentID string, req *SubmitAnswersRequest) (*SubmitAnswersResponse, error)
	Grade(ctx context.Context, submissionID uint, graderID string, req *GradeRequest) (*GradeResponse, error)
	Regrade(ctx context.Context, submissionID uint, graderID string, req *RegradeRequest) (*GradeResponse, error)
	Report(ctx context.Context, submissionID uint) (*GradeReport, error)
	ListByPaper(ctx context.Context, paperID uint) ([]*models.Submission, error)
}

// StudentDirectory resolves student ids to display identities.
type StudentDirectory interface {
	Lookup(ctx context.Context, studentIDs []string) (map[string]*models.StudentProfile, error)
}

// Reviewer produces advisory marks for one subjective answer.
type Reviewer interface {
	SuggestMarks(ctx context.Context, question *models.Question, answer string, maxMarks float64) (*MarkSuggestion, error)
}

type ReviewService interface {
	Suggest(ctx context.Context, submissionID uint) ([]*MarkSuggestion, error)
}

type ExportService interface {
	ExportSubmissions(ctx context.Context, paperID uint, w io.Writer) error
}
