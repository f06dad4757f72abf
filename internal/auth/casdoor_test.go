package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupUsersSkipsFailedIDs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calls := map[string]int{}
	getUser := func(name string) (*casdoorsdk.User, error) {
		calls[name]++
		switch name {
		case "ann":
			return &casdoorsdk.User{Name: "ann", DisplayName: "Ann Lee", Email: "ann@example.com"}, nil
		case "ben":
			return nil, errors.New("connection reset")
		case "cat":
			return &casdoorsdk.User{Name: "cat"}, nil
		}
		return nil, nil
	}

	profiles, err := lookupUsers([]string{"ann", "ben", "cat", "ghost", "ann"}, getUser, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ben")

	require.Len(t, profiles, 2)
	assert.Equal(t, "Ann Lee", profiles["ann"].Username)
	assert.Equal(t, "ann@example.com", profiles["ann"].Email)
	assert.Equal(t, "cat", profiles["cat"].Username)
	assert.NotContains(t, profiles, "ben")
	assert.NotContains(t, profiles, "ghost")
	assert.Equal(t, 1, calls["ann"])
}

func TestLookupUsersAllResolved(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	profiles, err := lookupUsers([]string{"ann"}, func(name string) (*casdoorsdk.User, error) {
		return &casdoorsdk.User{Name: name}, nil
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, "ann", profiles["ann"].ID)
}
