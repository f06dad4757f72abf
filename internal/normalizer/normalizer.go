// Package normalizer turns raw answer values into comparable text.
//
// Answers reach the grader in several historical encodings: the literal option
// text, a positional key ("OptionA", "A", "1", "Option B"), a JSON number, or
// free text with stray case and whitespace. Resolve maps positional keys onto
// a question's options; Canonical folds case and whitespace.
package normalizer

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var optionKeyPattern = regexp.MustCompile(`^(?:option\s*)?([a-z]|[0-9]+)$`)

// Canonical trims, collapses internal whitespace runs to one space and lower-cases.
func Canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ToText renders a raw answer value as a string. nil becomes "".
func ToText(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case []byte:
		return string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// OptionIndex decodes a positional option key. Letters count from "a", digits from 1.
func OptionIndex(key string) (int, bool) {
	m := optionKeyPattern.FindStringSubmatch(Canonical(key))
	if m == nil {
		return 0, false
	}
	tok := m[1]
	if tok[0] >= 'a' && tok[0] <= 'z' {
		return int(tok[0] - 'a'), true
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Resolve maps raw onto the option it denotes. A value that already equals an
// option's text wins over key decoding, so options such as "2" or "B" stay literal.
// Unresolvable keys and out-of-range indexes pass through unchanged.
func Resolve(options []string, raw string) string {
	if len(options) == 0 {
		return raw
	}
	c := Canonical(raw)
	for _, opt := range options {
		if Canonical(opt) == c {
			return opt
		}
	}
	idx, ok := OptionIndex(raw)
	if !ok || idx >= len(options) {
		return raw
	}
	return options[idx]
}

// Normalize resolves then canonicalizes a raw answer against the given options.
// Pass nil options for free-text answers.
func Normalize(options []string, raw interface{}) string {
	return Canonical(Resolve(options, ToText(raw)))
}

// Match reports whether a student's raw answer denotes the stored correct answer.
// Both sides go through resolution since stored keys ("A") occur as well.
func Match(options []string, student interface{}, correct string) bool {
	s := Normalize(options, student)
	if s == "" {
		return false
	}
	return s == Normalize(options, correct)
}
