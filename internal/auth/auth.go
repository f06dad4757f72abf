package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Action names a capability checked before a service operation runs.
type Action string

const (
	ActionManageQuestions Action = "questions:manage"
	ActionAssemblePaper   Action = "papers:assemble"
	ActionManagePapers    Action = "papers:manage"
	ActionViewSubmissions Action = "submissions:view"
	ActionGrade           Action = "submissions:grade"
	ActionViewExams       Action = "exams:view"
	ActionSubmit          Action = "exams:submit"
)

// Principal is the authenticated caller.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// Authorizer is the capability gate in front of assembly and grading.
type Authorizer interface {
	Allows(action Action, principal *Principal) bool
}

// RoleAuthorizer grants actions per role.
type RoleAuthorizer struct {
	grants map[Role]map[Action]bool
}

func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{
		grants: map[Role]map[Action]bool{
			RoleAdmin: {
				ActionManageQuestions: true,
				ActionAssemblePaper:   true,
				ActionManagePapers:    true,
				ActionViewSubmissions: true,
				ActionGrade:           true,
				ActionViewExams:       true,
			},
			RoleStudent: {
				ActionViewExams: true,
				ActionSubmit:    true,
			},
		},
	}
}

func (a *RoleAuthorizer) Allows(action Action, principal *Principal) bool {
	if principal == nil {
		return false
	}
	return a.grants[principal.Role][action]
}

// ParseRole maps a label to a role, defaulting to student.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleStudent
}
