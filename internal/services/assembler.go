package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
)

// bucket is one quota slot of an assembly run.
type bucket struct {
	name       string
	qtype      models.QuestionType
	difficulty *models.DifficultyLevel
	count      int
}

type paperAssembler struct {
	questions repositories.QuestionRepository
	strict    bool
	logger    *slog.Logger
	// seedFn supplies a seed when the caller does not pin one.
	seedFn func() int64
}

func NewAssembler(questions repositories.QuestionRepository, strict bool, logger *slog.Logger) Assembler {
	return &paperAssembler{
		questions: questions,
		strict:    strict,
		logger:    logger,
		seedFn:    func() int64 { return time.Now().UnixNano() },
	}
}

func difficultyPtr(d models.DifficultyLevel) *models.DifficultyLevel { return &d }

// buckets lays out the quota slots of mode in their fixed concatenation order.
func buckets(mode models.PaperMode, q Quotas) ([]bucket, error) {
	switch mode {
	case models.ModeMCQOnly:
		return []bucket{
			{name: "easy", qtype: models.QuestionMCQ, difficulty: difficultyPtr(models.DifficultyEasy), count: q.EasyCount.Int()},
			{name: "medium", qtype: models.QuestionMCQ, difficulty: difficultyPtr(models.DifficultyMedium), count: q.MediumCount.Int()},
			{name: "hard", qtype: models.QuestionMCQ, difficulty: difficultyPtr(models.DifficultyHard), count: q.HardCount.Int()},
		}, nil
	case models.ModeSubjectiveOnly:
		return []bucket{
			{name: "short", qtype: models.QuestionShort, count: q.ShortCount.Int()},
			{name: "long", qtype: models.QuestionLong, count: q.LongCount.Int()},
		}, nil
	case models.ModeMixed:
		return []bucket{
			{name: "mcq", qtype: models.QuestionMCQ, count: q.MCQCount.Int()},
			{name: "short", qtype: models.QuestionShort, count: q.ShortCount.Int()},
			{name: "long", qtype: models.QuestionLong, count: q.LongCount.Int()},
		}, nil
	}
	return nil, NewValidationError("mode", "must be one of mcq_only, subjective_only, mixed", string(mode))
}

// Assemble fills each bucket with a uniform random draw without replacement
// and concatenates the buckets in fixed order.
func (a *paperAssembler) Assemble(ctx context.Context, subject string, mode models.PaperMode, quotas Quotas, seed int64) (*Assembly, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, NewValidationError("subject", "is required", subject)
	}

	plan, err := buckets(mode, quotas)
	if err != nil {
		return nil, err
	}
	for _, b := range plan {
		if b.count < 0 {
			return nil, NewValidationError(b.name+"_count", "must be at least 0", b.count)
		}
	}

	if seed == 0 {
		seed = a.seedFn()
	}
	rng := rand.New(rand.NewSource(seed))

	a.logger.Info("Starting paper assembly", "subject", subject, "mode", mode, "seed", seed)

	result := &Assembly{QuestionIDs: []uint{}}
	seen := make(map[uint]struct{})

	for _, b := range plan {
		report := BucketReport{Bucket: b.name, Requested: b.count}

		if b.count > 0 {
			pool, err := a.questions.Find(ctx, repositories.QuestionQuery{
				Subject:    subject,
				Type:       b.qtype,
				Difficulty: b.difficulty,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to query %s bucket: %w", b.name, err)
			}

			eligible := make([]uint, 0, len(pool))
			for _, q := range pool {
				if _, dup := seen[q.ID]; dup {
					continue
				}
				eligible = append(eligible, q.ID)
			}
			report.Available = len(eligible)

			rng.Shuffle(len(eligible), func(i, j int) {
				eligible[i], eligible[j] = eligible[j], eligible[i]
			})
			if len(eligible) > b.count {
				eligible = eligible[:b.count]
			}
			for _, id := range eligible {
				seen[id] = struct{}{}
			}
			result.QuestionIDs = append(result.QuestionIDs, eligible...)
			report.Selected = len(eligible)
		}

		if report.Short() {
			a.logger.Warn("Question bank shortfall",
				"subject", subject,
				"bucket", report.Bucket,
				"requested", report.Requested,
				"available", report.Available)
		}
		result.Buckets = append(result.Buckets, report)
	}

	if len(result.QuestionIDs) == 0 {
		return nil, ErrNoQuestionsAvailable
	}
	if a.strict && result.HasShortfall() {
		return nil, &ShortfallError{Buckets: result.Buckets}
	}

	a.logger.Info("Paper assembled successfully", "subject", subject, "mode", mode, "total_questions", len(result.QuestionIDs))
	return result, nil
}
