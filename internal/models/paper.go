package models

import (
	"time"

	"gorm.io/datatypes"
)

// Paper is a frozen, ordered snapshot of question ids. QuestionIDs is never rewritten after creation.
type Paper struct {
	ID          uint                      `json:"id" gorm:"primaryKey"`
	Title       string                    `json:"title" gorm:"size:200;not null"`
	Subject     string                    `json:"subject" gorm:"size:200;not null;index"`
	Mode        PaperMode                 `json:"mode" gorm:"size:30"`
	Duration    int                       `json:"duration"` // minutes, 0 = untimed
	QuestionIDs datatypes.JSONSlice[uint] `json:"question_ids" gorm:"not null"`
	IsPublished bool                      `json:"is_published" gorm:"not null;index"`
	PublishedAt *time.Time                `json:"published_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []*Question `json:"questions,omitempty" gorm:"-"`
}

func (Paper) TableName() string {
	return "papers"
}

// ForStudent strips correct answers from the resolved question list.
func (p *Paper) ForStudent() *Paper {
	c := *p
	c.Questions = make([]*Question, 0, len(p.Questions))
	for _, q := range p.Questions {
		c.Questions = append(c.Questions, q.ForStudent())
	}
	return &c
}
