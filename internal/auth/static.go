package auth

import (
	"context"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
)

// StaticAuthenticator resolves fixed bearer tokens, for development and tests.
type StaticAuthenticator struct {
	principals map[string]*Principal
}

// NewStaticAuthenticator takes token -> "user_id:role" entries.
func NewStaticAuthenticator(tokens map[string]string) *StaticAuthenticator {
	principals := make(map[string]*Principal, len(tokens))
	for token, spec := range tokens {
		id, role, _ := strings.Cut(spec, ":")
		id = strings.TrimSpace(id)
		if token == "" || id == "" {
			continue
		}
		principals[token] = &Principal{ID: id, Name: id, Role: ParseRole(role)}
	}
	return &StaticAuthenticator{principals: principals}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	p, ok := a.principals[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	c := *p
	return &c, nil
}

// Lookup returns profiles for the ids this authenticator knows.
func (a *StaticAuthenticator) Lookup(_ context.Context, ids []string) (map[string]*models.StudentProfile, error) {
	byID := make(map[string]*Principal, len(a.principals))
	for _, p := range a.principals {
		byID[p.ID] = p
	}
	out := make(map[string]*models.StudentProfile, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out[id] = &models.StudentProfile{ID: p.ID, Username: p.Name, Email: p.Email}
		}
	}
	return out, nil
}
