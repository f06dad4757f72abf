package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event
type EventType string

const (
	EventPaperPublished      EventType = "paper.published"
	EventPaperDeleted        EventType = "paper.deleted"
	EventSubmissionSubmitted EventType = "submission.submitted"
	EventSubmissionGraded    EventType = "submission.graded"
	EventManualGradingNeeded EventType = "grading.manual_required"
)

const (
	eventSource  = "exam-paper-service"
	eventVersion = "1.0"
)

// NotificationEvent is the envelope for every published event
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type PaperPublishedEvent struct {
	PaperID       uint   `json:"paper_id"`
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	Duration      int    `json:"duration"`
	QuestionCount int    `json:"question_count"`
}

type PaperDeletedEvent struct {
	PaperID            uint  `json:"paper_id"`
	DeletedSubmissions int64 `json:"deleted_submissions"`
	DeletedQuestions   int64 `json:"deleted_questions"`
}

type SubmissionSubmittedEvent struct {
	SubmissionID    uint    `json:"submission_id"`
	PaperID         uint    `json:"paper_id"`
	StudentID       string  `json:"student_id"`
	AutoScore       float64 `json:"auto_score"`
	SubjectiveItems int     `json:"subjective_items"`
}

type SubmissionGradedEvent struct {
	SubmissionID uint    `json:"submission_id"`
	PaperID      uint    `json:"paper_id"`
	StudentID    string  `json:"student_id"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	GradedBy     string  `json:"graded_by"`
	Regrade      bool    `json:"regrade"`
}

type ManualGradingNeededEvent struct {
	SubmissionID uint `json:"submission_id"`
	PaperID      uint `json:"paper_id"`
	ItemCount    int  `json:"item_count"`
}

func newEvent(t EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewPaperPublishedEvent(paperID uint, title, subject string, duration, questionCount int) *NotificationEvent {
	return newEvent(EventPaperPublished, PaperPublishedEvent{
		PaperID:       paperID,
		Title:         title,
		Subject:       subject,
		Duration:      duration,
		QuestionCount: questionCount,
	})
}

func NewPaperDeletedEvent(paperID uint, deletedSubmissions, deletedQuestions int64) *NotificationEvent {
	return newEvent(EventPaperDeleted, PaperDeletedEvent{
		PaperID:            paperID,
		DeletedSubmissions: deletedSubmissions,
		DeletedQuestions:   deletedQuestions,
	})
}

func NewSubmissionSubmittedEvent(submissionID, paperID uint, studentID string, autoScore float64, subjectiveItems int) *NotificationEvent {
	return newEvent(EventSubmissionSubmitted, SubmissionSubmittedEvent{
		SubmissionID:    submissionID,
		PaperID:         paperID,
		StudentID:       studentID,
		AutoScore:       autoScore,
		SubjectiveItems: subjectiveItems,
	})
}

func NewSubmissionGradedEvent(submissionID, paperID uint, studentID string, score, maxScore float64, gradedBy string, regrade bool) *NotificationEvent {
	return newEvent(EventSubmissionGraded, SubmissionGradedEvent{
		SubmissionID: submissionID,
		PaperID:      paperID,
		StudentID:    studentID,
		Score:        score,
		MaxScore:     maxScore,
		GradedBy:     gradedBy,
		Regrade:      regrade,
	})
}

func NewManualGradingNeededEvent(submissionID, paperID uint, itemCount int) *NotificationEvent {
	return newEvent(EventManualGradingNeeded, ManualGradingNeededEvent{
		SubmissionID: submissionID,
		PaperID:      paperID,
		ItemCount:    itemCount,
	})
}

// DecodeEvent parses a published payload and decodes Data into the payload
// struct of its type. Unknown types keep Data as raw JSON.
func DecodeEvent(payload []byte) (*NotificationEvent, error) {
	var envelope struct {
		NotificationEvent
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	event := envelope.NotificationEvent
	var data interface{}
	switch event.Type {
	case EventPaperPublished:
		data = &PaperPublishedEvent{}
	case EventPaperDeleted:
		data = &PaperDeletedEvent{}
	case EventSubmissionSubmitted:
		data = &SubmissionSubmittedEvent{}
	case EventSubmissionGraded:
		data = &SubmissionGradedEvent{}
	case EventManualGradingNeeded:
		data = &ManualGradingNeededEvent{}
	default:
		event.Data = envelope.Data
		return &event, nil
	}
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return nil, fmt.Errorf("failed to decode %s data: %w", event.Type, err)
	}
	event.Data = data
	return &event, nil
}
