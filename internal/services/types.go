package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
)

// LenientInt accepts a JSON number or numeric string. Anything non-numeric,
// including null or an empty string, decodes to 0. Fractional and out-of-range
// numbers are rejected.
type LenientInt int

var errLenientInt = errors.New("must be a whole number")

func (n *LenientInt) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("%s: %w", string(data), errLenientInt)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return fmt.Errorf("%s: out of range", string(data))
	}
	*n = LenientInt(int(f))
	return nil
}

func (n LenientInt) Int() int { return int(n) }

// ===== PAPER TYPES =====

// Quotas holds per-bucket counts. Only the buckets of the chosen mode are read;
// an absent count is zero.
type Quotas struct {
	EasyCount   LenientInt `json:"easy_count" validate:"gte=0"`
	MediumCount LenientInt `json:"medium_count" validate:"gte=0"`
	HardCount   LenientInt `json:"hard_count" validate:"gte=0"`
	MCQCount    LenientInt `json:"mcq_count" validate:"gte=0"`
	ShortCount  LenientInt `json:"short_count" validate:"gte=0"`
	LongCount   LenientInt `json:"long_count" validate:"gte=0"`
}

type AssemblePaperRequest struct {
	Title    string           `json:"title" validate:"required,not_blank,max=200"`
	Subject  string           `json:"subject" validate:"required,not_blank,max=200"`
	Mode     models.PaperMode `json:"mode" validate:"required,paper_mode"`
	Duration LenientInt       `json:"duration" validate:"gte=0"`
	Quotas   Quotas           `json:"quotas"`
	// Seed pins the random draw; zero picks a fresh seed.
	Seed int64 `json:"seed,omitempty"`
}

// BucketReport records how one quota bucket was filled.
type BucketReport struct {
	Bucket    string `json:"bucket"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Selected  int    `json:"selected"`
}

func (b BucketReport) Short() bool { return b.Selected < b.Requested }

// Assembly is an unpersisted candidate paper.
type Assembly struct {
	QuestionIDs []uint         `json:"question_ids"`
	Buckets     []BucketReport `json:"buckets"`
}

func (a *Assembly) HasShortfall() bool {
	for _, b := range a.Buckets {
		if b.Short() {
			return true
		}
	}
	return false
}

type AssemblePaperResponse struct {
	PaperID        uint           `json:"paper_id"`
	TotalQuestions int            `json:"total_questions"`
	Buckets        []BucketReport `json:"buckets"`
	Paper          *models.Paper  `json:"paper"`
}

type DeletePaperResponse struct {
	PaperID            uint  `json:"paper_id"`
	DeletedSubmissions int64 `json:"deleted_submissions"`
	DeletedQuestions   int64 `json:"deleted_questions"`
}

// ===== QUESTION TYPES =====

// CreateQuestionRequest carries raw bank labels. Type and difficulty accept synonyms
// such as "objective" or "simple".
type CreateQuestionRequest struct {
	Text          string   `json:"text" validate:"required,not_blank"`
	Subject       string   `json:"subject" validate:"required,not_blank,max=200"`
	Section       string   `json:"section" validate:"max=50"`
	Difficulty    string   `json:"difficulty" validate:"required,difficulty_level"`
	Type          string   `json:"type" validate:"required,question_type"`
	Options       []string `json:"options" validate:"max=4"`
	CorrectAnswer string   `json:"correct_answer"`
}

// GenerateQuestionsRequest asks the generator for Count mcq questions on Topic.
// Subject, section and difficulty are applied to every generated question.
type GenerateQuestionsRequest struct {
	Topic      string     `json:"topic" validate:"required,not_blank,max=200"`
	Subject    string     `json:"subject" validate:"required,not_blank,max=200"`
	Section    string     `json:"section" validate:"max=50"`
	Difficulty string     `json:"difficulty" validate:"required,difficulty_level"`
	Count      LenientInt `json:"count" validate:"gte=1,lte=20"`
}

type ListQuestionsRequest struct {
	Subject    string `form:"subject"`
	Type       string `form:"type"`
	Difficulty string `form:"difficulty"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
}

// ===== SUBMISSION TYPES =====

type SubmitAnswersRequest struct {
	Answers map[string]interface{} `json:"answers" validate:"required"`
}

type SubmitAnswersResponse struct {
	SubmissionID uint    `json:"submission_id"`
	AutoScore    float64 `json:"auto_score"`
	// Total is the number of objective items that were auto-scored.
	Total int `json:"total"`
}

// GradeRequest confirms a grade. FinalScore replaces the auto score; ManualMarks
// (question id -> marks) are added to it. Neither means the auto score stands.
type GradeRequest struct {
	FinalScore  *float64           `json:"final_score" validate:"omitempty,gte=0,excluded_with=ManualMarks"`
	ManualMarks map[string]float64 `json:"manual_marks" validate:"omitempty,dive,gte=0"`
}

type RegradeRequest struct {
	GradeRequest
	Reason string `json:"reason" validate:"required,not_blank,max=500"`
}

type GradeResponse struct {
	SubmissionID uint       `json:"submission_id"`
	Score        float64    `json:"score"`
	MaxScore     float64    `json:"max_score"`
	IsGraded     bool       `json:"is_graded"`
	GradeCount   int        `json:"grade_count"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
}

// ===== GRADING TYPES =====

type Weights struct {
	MCQ   float64 `json:"mcq"`
	Short float64 `json:"short"`
	Long  float64 `json:"long"`
}

func DefaultWeights() Weights {
	return Weights{MCQ: MCQWeight, Short: 2, Long: 5}
}

func (w Weights) For(t models.QuestionType) float64 {
	switch t {
	case models.QuestionMCQ:
		return w.MCQ
	case models.QuestionShort:
		return w.Short
	case models.QuestionLong:
		return w.Long
	}
	return 0
}

type ItemResult struct {
	QuestionID    uint                `json:"question_id"`
	Type          models.QuestionType `json:"type"`
	Text          string              `json:"text"`
	Weight        float64             `json:"weight"`
	StudentAnswer interface{}         `json:"student_answer"`
	// ResolvedAnswer is the student's answer after option-key resolution (mcq only).
	ResolvedAnswer string  `json:"resolved_answer,omitempty"`
	CorrectAnswer  string  `json:"correct_answer"`
	Correct        *bool   `json:"correct,omitempty"`
	Awarded        float64 `json:"awarded"`
	Manual         bool    `json:"manual"`
}

type GradeReport struct {
	SubmissionID    uint         `json:"submission_id,omitempty"`
	PaperID         uint         `json:"paper_id"`
	Items           []ItemResult `json:"items"`
	AutoScore       float64      `json:"auto_score"`
	AutoGradedItems int          `json:"auto_graded_items"`
	ManualItems     int          `json:"manual_items"`
	MaxScore        float64      `json:"max_score"`
	MissingItems    []uint       `json:"missing_items,omitempty"`
}

// ===== REVIEW TYPES =====

type MarkSuggestion struct {
	QuestionID uint    `json:"question_id"`
	Marks      float64 `json:"marks"`
	MaxMarks   float64 `json:"max_marks"`
	Feedback   string  `json:"feedback"`
	Error      string  `json:"error,omitempty"`
}
