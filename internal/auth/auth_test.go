package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAuthorizer(t *testing.T) {
	a := NewRoleAuthorizer()
	admin := &Principal{ID: "root", Role: RoleAdmin}
	student := &Principal{ID: "s1", Role: RoleStudent}

	tests := []struct {
		action  Action
		admin   bool
		student bool
	}{
		{ActionAssemblePaper, true, false},
		{ActionGrade, true, false},
		{ActionManageQuestions, true, false},
		{ActionViewExams, true, true},
		{ActionSubmit, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.admin, a.Allows(tt.action, admin))
			assert.Equal(t, tt.student, a.Allows(tt.action, student))
			assert.False(t, a.Allows(tt.action, nil))
		})
	}
}

func TestStaticAuthenticator(t *testing.T) {
	a := NewStaticAuthenticator(map[string]string{
		"admin-token": "alice:admin",
		"stud-token":  "bob:student",
		"bad":         ":admin",
	})
	ctx := context.Background()

	p, err := a.Authenticate(ctx, "admin-token")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.ID)
	assert.Equal(t, RoleAdmin, p.Role)

	p, err = a.Authenticate(ctx, "stud-token")
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, p.Role)

	_, err = a.Authenticate(ctx, "")
	assert.True(t, errors.Is(err, ErrMissingToken))
	_, err = a.Authenticate(ctx, "bad")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	profiles, err := a.Lookup(ctx, []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
	assert.Equal(t, "bob", profiles["bob"].Username)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleStudent, ParseRole("teacher"))
	assert.Equal(t, RoleStudent, ParseRole(""))
}
