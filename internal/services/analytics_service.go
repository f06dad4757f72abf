package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/normalizer"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
)

// AnalyticsService summarizes the results of a paper.
type AnalyticsService interface {
	GetPaperAnalytics(ctx context.Context, paperID uint) (*PaperAnalytics, error)
}

type analyticsService struct {
	repo   repositories.Repository
	papers PaperService
	engine GradingEngine
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalyticsService(repo repositories.Repository, papers PaperService, engine GradingEngine, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		papers: papers,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// ===== DATA STRUCTURES =====

type PaperAnalytics struct {
	PaperID           uint                 `json:"paper_id"`
	Title             string               `json:"title"`
	TotalSubmissions  int                  `json:"total_submissions"`
	GradedSubmissions int                  `json:"graded_submissions"`
	MaxScore          float64              `json:"max_score"`
	AverageScore      float64              `json:"average_score"`
	MedianScore       float64              `json:"median_score"`
	HighestScore      float64              `json:"highest_score"`
	LowestScore       float64              `json:"lowest_score"`
	ScoreDistribution map[string]int       `json:"score_distribution"`
	QuestionStats     []QuestionStatistics `json:"question_stats"`
	GeneratedAt       time.Time            `json:"generated_at"`
}

// QuestionStatistics covers one paper item. CorrectAnswers and CorrectRate are
// only meaningful for mcq items.
type QuestionStatistics struct {
	QuestionID     uint                   `json:"question_id"`
	QuestionText   string                 `json:"question_text"`
	QuestionType   models.QuestionType    `json:"question_type"`
	Difficulty     models.DifficultyLevel `json:"difficulty"`
	TotalAnswers   int                    `json:"total_answers"`
	CorrectAnswers int                    `json:"correct_answers"`
	CorrectRate    float64                `json:"correct_rate"`
}

// scoreBands split the percentage of max score into distribution keys.
var scoreBands = []struct {
	label string
	upper float64
}{
	{"0-19", 20},
	{"20-39", 40},
	{"40-59", 60},
	{"60-79", 80},
	{"80-100", math.Inf(1)},
}

// GetPaperAnalytics scores each submission by its confirmed grade when graded
// and by its auto score otherwise.
func (s *analyticsService) GetPaperAnalytics(ctx context.Context, paperID uint) (*PaperAnalytics, error) {
	s.logger.Info("Starting paper analytics", "paper_id", paperID)

	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.repo.Submission().ListByPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	analytics := &PaperAnalytics{
		PaperID:           paper.ID,
		Title:             paper.Title,
		TotalSubmissions:  len(submissions),
		ScoreDistribution: make(map[string]int, len(scoreBands)),
		QuestionStats:     make([]QuestionStatistics, 0, len(paper.Questions)),
		GeneratedAt:       s.now(),
	}
	for _, band := range scoreBands {
		analytics.ScoreDistribution[band.label] = 0
	}

	byID := make(map[uint]*QuestionStatistics, len(paper.Questions))
	for _, q := range paper.Questions {
		analytics.QuestionStats = append(analytics.QuestionStats, QuestionStatistics{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			QuestionType: q.Type,
			Difficulty:   q.Difficulty,
		})
	}
	for i := range analytics.QuestionStats {
		byID[analytics.QuestionStats[i].QuestionID] = &analytics.QuestionStats[i]
	}

	scores := make([]float64, 0, len(submissions))
	for _, sub := range submissions {
		report := s.engine.Evaluate(paper.Questions, sub.Answers)
		analytics.MaxScore = report.MaxScore

		for _, item := range report.Items {
			stat := byID[item.QuestionID]
			if stat == nil || normalizer.Canonical(normalizer.ToText(item.StudentAnswer)) == "" {
				continue
			}
			stat.TotalAnswers++
			if item.Correct != nil && *item.Correct {
				stat.CorrectAnswers++
			}
		}

		score := sub.AutoScore
		if sub.IsGraded {
			analytics.GradedSubmissions++
			score = sub.Score
		}
		scores = append(scores, score)
	}
	if len(submissions) == 0 {
		analytics.MaxScore = s.engine.Evaluate(paper.Questions, nil).MaxScore
	}

	for i := range analytics.QuestionStats {
		stat := &analytics.QuestionStats[i]
		if stat.QuestionType == models.QuestionMCQ && stat.TotalAnswers > 0 {
			stat.CorrectRate = float64(stat.CorrectAnswers) / float64(stat.TotalAnswers)
		}
	}

	if len(scores) > 0 {
		sort.Float64s(scores)
		sum := 0.0
		for _, score := range scores {
			sum += score
			analytics.ScoreDistribution[scoreBand(score, analytics.MaxScore)]++
		}
		analytics.AverageScore = sum / float64(len(scores))
		analytics.LowestScore = scores[0]
		analytics.HighestScore = scores[len(scores)-1]
		analytics.MedianScore = median(scores)
	}

	s.logger.Info("Paper analytics generated successfully",
		"paper_id", paperID,
		"submissions", analytics.TotalSubmissions,
		"graded", analytics.GradedSubmissions)
	return analytics, nil
}

func scoreBand(score, maxScore float64) string {
	pct := 0.0
	if maxScore > 0 {
		pct = score / maxScore * 100
	}
	for _, band := range scoreBands {
		if pct < band.upper {
			return band.label
		}
	}
	return scoreBands[len(scoreBands)-1].label
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
