package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaperPostgreSQL struct {
	db *gorm.DB
}

func NewPaperPostgreSQL(db *gorm.DB) repositories.PaperRepository {
	return &PaperPostgreSQL{db: db}
}

func (p *PaperPostgreSQL) Create(ctx context.Context, paper *models.Paper) error {
	return translateError(p.db.WithContext(ctx).Create(paper).Error)
}

func (p *PaperPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Paper, error) {
	var paper models.Paper
	if err := p.db.WithContext(ctx).First(&paper, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &paper, nil
}

func (p *PaperPostgreSQL) List(ctx context.Context, filters repositories.PaperFilters) ([]*models.Paper, error) {
	var papers []*models.Paper

	query := p.db.WithContext(ctx).Model(&models.Paper{})
	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if s := strings.TrimSpace(filters.Subject); s != "" {
		query = query.Where("LOWER(TRIM(subject)) = ?", strings.ToLower(s))
	}

	query = applyPagination(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&papers).Error; err != nil {
		return nil, translateError(err)
	}
	return papers, nil
}

func (p *PaperPostgreSQL) MarkPublished(ctx context.Context, id uint, at time.Time) (*models.Paper, bool, error) {
	var paper models.Paper
	changed := false

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&paper, id).Error; err != nil {
			return err
		}
		if paper.IsPublished {
			return nil
		}

		if err := tx.Model(&paper).Updates(map[string]interface{}{
			"is_published": true,
			"published_at": at,
		}).Error; err != nil {
			return err
		}
		paper.IsPublished = true
		paper.PublishedAt = &at
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, translateError(err)
	}
	return &paper, changed, nil
}

func (p *PaperPostgreSQL) Delete(ctx context.Context, id uint, opts repositories.DeletePaperOptions) (*repositories.DeletePaperResult, error) {
	result := &repositories.DeletePaperResult{}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var paper models.Paper
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&paper, id).Error; err != nil {
			return err
		}
		result.Paper = &paper

		res := tx.Where("paper_id = ?", id).Delete(&models.Submission{})
		if res.Error != nil {
			return res.Error
		}
		result.DeletedSubmissions = res.RowsAffected

		if opts.DeleteQuestions && len(paper.QuestionIDs) > 0 {
			res = tx.Where("id IN ?", []uint(paper.QuestionIDs)).Delete(&models.Question{})
			if res.Error != nil {
				return res.Error
			}
			result.DeletedQuestions = res.RowsAffected
		}

		return tx.Delete(&models.Paper{}, id).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return result, nil
}
