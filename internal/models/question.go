package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is a bank entry. Papers reference questions by id and never copy them.
type Question struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	Text          string                      `json:"text" gorm:"type:text;not null"`
	Subject       string                      `json:"subject" gorm:"size:200;not null;index"`
	Section       string                      `json:"section" gorm:"size:50"`
	Difficulty    DifficultyLevel             `json:"difficulty" gorm:"size:20;not null;index"`
	Type          QuestionType                `json:"type" gorm:"size:20;not null;index"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                      `json:"correct_answer,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// ForStudent returns a copy without the correct answer.
func (q *Question) ForStudent() *Question {
	c := *q
	c.CorrectAnswer = ""
	c.Options = append(datatypes.JSONSlice[string](nil), q.Options...)
	return &c
}
