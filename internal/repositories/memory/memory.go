// Package memory is a process-local Repository used by tests and the
// storage=memory development mode. Every method copies values in and out so
// callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"gorm.io/datatypes"
)

type Store struct {
	mu sync.RWMutex

	questions   map[uint]*models.Question
	papers      map[uint]*models.Paper
	submissions map[uint]*models.Submission
	// byPaperStudent indexes submissions for the insert-if-absent check.
	byPaperStudent map[string]uint

	nextQuestion   uint
	nextPaper      uint
	nextSubmission uint

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		questions:      map[uint]*models.Question{},
		papers:         map[uint]*models.Paper{},
		submissions:    map[uint]*models.Submission{},
		byPaperStudent: map[string]uint{},
		now:            time.Now,
	}
}

func (s *Store) Question() repositories.QuestionRepository     { return questionStore{s} }
func (s *Store) Paper() repositories.PaperRepository           { return paperStore{s} }
func (s *Store) Submission() repositories.SubmissionRepository { return submissionStore{s} }

func paperStudentKey(paperID uint, studentID string) string {
	return fmt.Sprintf("%d/%s", paperID, studentID)
}

func cloneQuestion(q *models.Question) *models.Question {
	c := *q
	c.Options = append(datatypes.JSONSlice[string](nil), q.Options...)
	return &c
}

func clonePaper(p *models.Paper) *models.Paper {
	c := *p
	c.QuestionIDs = append(datatypes.JSONSlice[uint](nil), p.QuestionIDs...)
	c.Questions = nil
	return &c
}

func cloneSubmission(sub *models.Submission) *models.Submission {
	c := *sub
	c.Answers = make(datatypes.JSONMap, len(sub.Answers))
	for k, v := range sub.Answers {
		c.Answers[k] = v
	}
	c.Student = nil
	return &c
}

func (s *Store) stamp(createdAt *time.Time, updatedAt *time.Time) {
	now := s.now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sameSubject(stored, wanted string) bool {
	return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(wanted))
}

// ===== QUESTIONS =====

type questionStore struct{ s *Store }

func (r questionStore) Create(ctx context.Context, question *models.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.insert(question)
	return nil
}

func (r questionStore) insert(question *models.Question) {
	r.s.nextQuestion++
	question.ID = r.s.nextQuestion
	r.s.stamp(&question.CreatedAt, &question.UpdatedAt)
	r.s.questions[question.ID] = cloneQuestion(question)
}

func (r questionStore) CreateBatch(ctx context.Context, questions []*models.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, q := range questions {
		r.insert(q)
	}
	return nil
}

func (r questionStore) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneQuestion(q), nil
}

func (r questionStore) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := r.s.questions[id]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (r questionStore) Find(ctx context.Context, query repositories.QuestionQuery) ([]*models.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Question
	for _, q := range r.s.questions {
		if !sameSubject(q.Subject, query.Subject) || q.Type != query.Type {
			continue
		}
		if query.Difficulty != nil && q.Difficulty != *query.Difficulty {
			continue
		}
		out = append(out, cloneQuestion(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r questionStore) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Question
	for _, q := range r.s.questions {
		if filters.Subject != "" && !sameSubject(q.Subject, filters.Subject) {
			continue
		}
		if filters.Type != nil && q.Type != *filters.Type {
			continue
		}
		if filters.Difficulty != nil && q.Difficulty != *filters.Difficulty {
			continue
		}
		out = append(out, cloneQuestion(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

// ===== PAPERS =====

type paperStore struct{ s *Store }

func (r paperStore) Create(ctx context.Context, paper *models.Paper) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPaper++
	paper.ID = r.s.nextPaper
	r.s.stamp(&paper.CreatedAt, &paper.UpdatedAt)
	r.s.papers[paper.ID] = clonePaper(paper)
	return nil
}

func (r paperStore) GetByID(ctx context.Context, id uint) (*models.Paper, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.papers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePaper(p), nil
}

func (r paperStore) List(ctx context.Context, filters repositories.PaperFilters) ([]*models.Paper, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Paper
	for _, p := range r.s.papers {
		if filters.PublishedOnly && !p.IsPublished {
			continue
		}
		if filters.Subject != "" && !sameSubject(p.Subject, filters.Subject) {
			continue
		}
		out = append(out, clonePaper(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, filters.Limit, filters.Offset), nil
}

func (r paperStore) MarkPublished(ctx context.Context, id uint, at time.Time) (*models.Paper, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.papers[id]
	if !ok {
		return nil, false, repositories.ErrNotFound
	}
	if p.IsPublished {
		return clonePaper(p), false, nil
	}
	p.IsPublished = true
	p.PublishedAt = &at
	p.UpdatedAt = r.s.now()
	return clonePaper(p), true, nil
}

func (r paperStore) Delete(ctx context.Context, id uint, opts repositories.DeletePaperOptions) (*repositories.DeletePaperResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.papers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	result := &repositories.DeletePaperResult{Paper: clonePaper(p)}
	for subID, sub := range r.s.submissions {
		if sub.PaperID == id {
			delete(r.s.byPaperStudent, paperStudentKey(sub.PaperID, sub.StudentID))
			delete(r.s.submissions, subID)
			result.DeletedSubmissions++
		}
	}
	if opts.DeleteQuestions {
		for _, qID := range p.QuestionIDs {
			if _, ok := r.s.questions[qID]; ok {
				delete(r.s.questions, qID)
				result.DeletedQuestions++
			}
		}
	}
	delete(r.s.papers, id)
	return result, nil
}

// ===== SUBMISSIONS =====

type submissionStore struct{ s *Store }

func (r submissionStore) CreateIfAbsent(ctx context.Context, submission *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := paperStudentKey(submission.PaperID, submission.StudentID)
	if _, exists := r.s.byPaperStudent[key]; exists {
		return repositories.ErrDuplicate
	}
	r.s.nextSubmission++
	submission.ID = r.s.nextSubmission
	r.s.stamp(&submission.CreatedAt, &submission.UpdatedAt)
	r.s.submissions[submission.ID] = cloneSubmission(submission)
	r.s.byPaperStudent[key] = submission.ID
	return nil
}

func (r submissionStore) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneSubmission(sub), nil
}

func (r submissionStore) GetByPaperAndStudent(ctx context.Context, paperID uint, studentID string) (*models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byPaperStudent[paperStudentKey(paperID, studentID)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneSubmission(r.s.submissions[id]), nil
}

func (r submissionStore) ListByPaper(ctx context.Context, paperID uint) ([]*models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Submission
	for _, sub := range r.s.submissions {
		if sub.PaperID == paperID {
			out = append(out, cloneSubmission(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r submissionStore) UpdateLocked(ctx context.Context, id uint, fn func(submission *models.Submission) error) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.submissions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	working := cloneSubmission(current)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = id
	working.UpdatedAt = r.s.now()
	r.s.submissions[id] = cloneSubmission(working)
	return working, nil
}
