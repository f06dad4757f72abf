package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
)

// ===== FILTERS =====

// QuestionQuery selects assembly candidates. Subject matches the whole trimmed
// subject case-insensitively; a nil Difficulty matches every tier.
type QuestionQuery struct {
	Subject    string
	Type       models.QuestionType
	Difficulty *models.DifficultyLevel
}

type QuestionFilters struct {
	Subject    string                  `json:"subject"`
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
}

type PaperFilters struct {
	PublishedOnly bool   `json:"published_only"`
	Subject       string `json:"subject"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
}

type DeletePaperOptions struct {
	DeleteQuestions bool
}

type DeletePaperResult struct {
	Paper              *models.Paper `json:"paper"`
	DeletedQuestions   int64         `json:"deleted_questions"`
	DeletedSubmissions int64         `json:"deleted_submissions"`
}

// ===== REPOSITORIES =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	// GetByIDs returns the questions in the order of ids, skipping ids that no longer exist.
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	Find(ctx context.Context, query QuestionQuery) ([]*models.Question, error)
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
}

type PaperRepository interface {
	Create(ctx context.Context, paper *models.Paper) error
	GetByID(ctx context.Context, id uint) (*models.Paper, error)
	// List returns papers newest first.
	List(ctx context.Context, filters PaperFilters) ([]*models.Paper, error)
	// MarkPublished flips is_published false->true. changed is false when it was already set.
	MarkPublished(ctx context.Context, id uint, at time.Time) (paper *models.Paper, changed bool, err error)
	// Delete removes the paper and its submissions, and its questions when requested, atomically.
	Delete(ctx context.Context, id uint, opts DeletePaperOptions) (*DeletePaperResult, error)
}

type SubmissionRepository interface {
	// CreateIfAbsent inserts the submission or fails with ErrDuplicate when one
	// already exists for the same (paper, student).
	CreateIfAbsent(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByPaperAndStudent(ctx context.Context, paperID uint, studentID string) (*models.Submission, error)
	ListByPaper(ctx context.Context, paperID uint) ([]*models.Submission, error)
	// UpdateLocked runs fn on the current row inside a critical section and
	// persists the result. An error from fn aborts without writing.
	UpdateLocked(ctx context.Context, id uint, fn func(submission *models.Submission) error) (*models.Submission, error)
}

// Repository groups the stores used by the services.
type Repository interface {
	Question() QuestionRepository
	Paper() PaperRepository
	Submission() SubmissionRepository
}
