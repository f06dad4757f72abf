package postgres

import (
	"errors"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db         *gorm.DB
	question   repositories.QuestionRepository
	paper      repositories.PaperRepository
	submission repositories.SubmissionRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		question:   NewQuestionPostgreSQL(db),
		paper:      NewPaperPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
	}
}

func (r *Repository) Question() repositories.QuestionRepository     { return r.question }
func (r *Repository) Paper() repositories.PaperRepository           { return r.paper }
func (r *Repository) Submission() repositories.SubmissionRepository { return r.submission }

// AutoMigrate creates or updates the three tables and the submission unique index.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Question{}, &models.Paper{}, &models.Submission{})
}

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return repositories.ErrDuplicate
	}
	return err
}

// isUniqueViolation covers connections opened without gorm's TranslateError.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
