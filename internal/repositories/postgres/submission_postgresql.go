package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

// CreateIfAbsent relies on idx_submission_paper_student, so two concurrent
// submits for one (paper, student) cannot both commit.
func (s *SubmissionPostgreSQL) CreateIfAbsent(ctx context.Context, submission *models.Submission) error {
	return translateError(s.db.WithContext(ctx).Create(submission).Error)
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByPaperAndStudent(ctx context.Context, paperID uint, studentID string) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Where("paper_id = ? AND student_id = ?", paperID, studentID).
		First(&submission).Error; err != nil {
		return nil, translateError(err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) ListByPaper(ctx context.Context, paperID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	if err := s.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Order("created_at DESC").Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, translateError(err)
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) UpdateLocked(ctx context.Context, id uint, fn func(submission *models.Submission) error) (*models.Submission, error) {
	var submission models.Submission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, id).Error; err != nil {
			return err
		}
		if err := fn(&submission); err != nil {
			return err
		}
		return tx.Save(&submission).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &submission, nil
}
