package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission holds one student's answers for one paper.
// (PaperID, StudentID) is unique; the index backs the insert-if-absent on submit.
type Submission struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	PaperID   uint              `json:"paper_id" gorm:"not null;uniqueIndex:idx_submission_paper_student"`
	StudentID string            `json:"student_id" gorm:"size:100;not null;uniqueIndex:idx_submission_paper_student"`
	Answers   datatypes.JSONMap `json:"answers" gorm:"not null"`

	AutoScore  float64    `json:"auto_score"`
	Score      float64    `json:"score"`
	IsGraded   bool       `json:"is_graded" gorm:"not null;index"`
	GradedBy   *string    `json:"graded_by,omitempty" gorm:"size:100"`
	GradedAt   *time.Time `json:"graded_at,omitempty"`
	GradeCount int        `json:"grade_count"`
	GradeNote  *string    `json:"grade_note,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *StudentProfile `json:"student,omitempty" gorm:"-"`
}

func (Submission) TableName() string {
	return "submissions"
}

// StudentProfile is display identity resolved from the user directory.
type StudentProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
