package postgres

import (
	"context"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return translateError(q.db.WithContext(ctx).Create(question).Error)
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return translateError(q.db.WithContext(ctx).CreateInBatches(questions, 100).Error)
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}

	var rows []*models.Question
	if err := q.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	byID := make(map[uint]*models.Question, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

func (q *QuestionPostgreSQL) Find(ctx context.Context, query repositories.QuestionQuery) ([]*models.Question, error) {
	var questions []*models.Question

	db := q.db.WithContext(ctx).
		Where("LOWER(TRIM(subject)) = ?", strings.ToLower(strings.TrimSpace(query.Subject))).
		Where("type = ?", query.Type)
	if query.Difficulty != nil {
		db = db.Where("difficulty = ?", *query.Difficulty)
	}

	if err := db.Order("id ASC").Find(&questions).Error; err != nil {
		return nil, translateError(err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{})
	if s := strings.TrimSpace(filters.Subject); s != "" {
		query = query.Where("LOWER(TRIM(subject)) = ?", strings.ToLower(s))
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	query = applyPagination(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return questions, total, nil
}
