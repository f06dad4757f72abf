package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/normalizer"
)

type gradingEngine struct {
	weights Weights
}

// MCQWeight is the fixed value of an objective item.
const MCQWeight = 1.0

// NewGradingEngine scores with the given subjective weights. The mcq weight is
// always MCQWeight.
func NewGradingEngine(weights Weights) GradingEngine {
	weights.MCQ = MCQWeight
	return &gradingEngine{weights: weights}
}

func (e *gradingEngine) Weights() Weights { return e.weights }

// AnswerKey is the answers-map key for a question.
func AnswerKey(questionID uint) string {
	return strconv.FormatUint(uint64(questionID), 10)
}

// Evaluate auto-scores mcq items and lists subjective items for manual marking.
// The result depends only on its inputs.
func (e *gradingEngine) Evaluate(questions []*models.Question, answers map[string]interface{}) *GradeReport {
	report := &GradeReport{Items: make([]ItemResult, 0, len(questions))}

	for _, q := range questions {
		raw := answers[AnswerKey(q.ID)]
		item := ItemResult{
			QuestionID:    q.ID,
			Type:          q.Type,
			Text:          q.Text,
			Weight:        e.weights.For(q.Type),
			StudentAnswer: raw,
			CorrectAnswer: q.CorrectAnswer,
		}
		report.MaxScore += item.Weight

		if q.Type == models.QuestionMCQ {
			correct := normalizer.Match(q.Options, raw, q.CorrectAnswer)
			item.Correct = &correct
			item.ResolvedAnswer = normalizer.Resolve(q.Options, normalizer.ToText(raw))
			if correct {
				item.Awarded = item.Weight
			}
			report.AutoScore += item.Awarded
			report.AutoGradedItems++
		} else {
			item.Manual = true
			report.ManualItems++
		}

		report.Items = append(report.Items, item)
	}

	return report
}

// FinalScore resolves the confirmed score. A FinalScore replaces the auto score;
// ManualMarks are bounded per item and added to it.
func (e *gradingEngine) FinalScore(report *GradeReport, req *GradeRequest) (float64, error) {
	if req == nil || (req.FinalScore == nil && req.ManualMarks == nil) {
		return report.AutoScore, nil
	}
	if req.FinalScore != nil && req.ManualMarks != nil {
		return 0, NewValidationError("final_score", "cannot be combined with manual_marks", *req.FinalScore)
	}

	if req.FinalScore != nil {
		score := *req.FinalScore
		if score < 0 {
			return 0, NewValidationError("final_score", "must be at least 0", score)
		}
		if report.MaxScore > 0 && score > report.MaxScore {
			return 0, NewValidationError("final_score", fmt.Sprintf("must be at most %g", report.MaxScore), score)
		}
		return score, nil
	}

	manual := make(map[string]ItemResult, report.ManualItems)
	for _, item := range report.Items {
		if item.Manual {
			manual[AnswerKey(item.QuestionID)] = item
		}
	}

	total := report.AutoScore
	awarded := make(map[string]float64, len(req.ManualMarks))
	for key, marks := range req.ManualMarks {
		id := strings.TrimSpace(key)
		item, ok := manual[id]
		if !ok {
			return 0, NewValidationError("manual_marks."+key, "is not a subjective question of this paper", marks)
		}
		if marks < 0 || marks > item.Weight {
			return 0, NewValidationError("manual_marks."+key, fmt.Sprintf("must be between 0 and %g", item.Weight), marks)
		}
		// keys that differ only in whitespace share one item's budget
		if awarded[id]+marks > item.Weight {
			return 0, NewValidationError("manual_marks."+id, fmt.Sprintf("must total at most %g", item.Weight), awarded[id]+marks)
		}
		awarded[id] += marks
		total += marks
	}
	return total, nil
}
