package models

import "strings"

// QuestionType is the closed set of question kinds held by the bank.
type QuestionType string

const (
	QuestionMCQ   QuestionType = "mcq"
	QuestionShort QuestionType = "short"
	QuestionLong  QuestionType = "long"
)

// IsSubjective reports whether answers of this type are scored by hand.
func (t QuestionType) IsSubjective() bool {
	return t == QuestionShort || t == QuestionLong
}

func (t QuestionType) Valid() bool {
	return t == QuestionMCQ || t == QuestionShort || t == QuestionLong
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

func (d DifficultyLevel) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// PaperMode selects which quota buckets an assembly run fills.
type PaperMode string

const (
	ModeMCQOnly        PaperMode = "mcq_only"
	ModeSubjectiveOnly PaperMode = "subjective_only"
	ModeMixed          PaperMode = "mixed"
)

func (m PaperMode) Valid() bool {
	return m == ModeMCQOnly || m == ModeSubjectiveOnly || m == ModeMixed
}

// Synonym tables are consulted once, when raw bank data enters the system.
var questionTypeSynonyms = map[string]QuestionType{
	"mcq":        QuestionMCQ,
	"objective":  QuestionMCQ,
	"short":      QuestionShort,
	"subjective": QuestionShort,
	"theory":     QuestionShort,
	"long":       QuestionLong,
	"essay":      QuestionLong,
}

var difficultySynonyms = map[string]DifficultyLevel{
	"easy":      DifficultyEasy,
	"simple":    DifficultyEasy,
	"medium":    DifficultyMedium,
	"avg":       DifficultyMedium,
	"average":   DifficultyMedium,
	"hard":      DifficultyHard,
	"difficult": DifficultyHard,
}

// ParseQuestionType maps a raw label such as "Objective" or " essay" to its variant.
func ParseQuestionType(raw string) (QuestionType, bool) {
	t, ok := questionTypeSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return t, ok
}

// ParseDifficulty maps a raw label such as "simple" or "AVG" to its tier.
func ParseDifficulty(raw string) (DifficultyLevel, bool) {
	d, ok := difficultySynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return d, ok
}

// DefaultSection is assigned to questions ingested without one.
const DefaultSection = "Section A"
