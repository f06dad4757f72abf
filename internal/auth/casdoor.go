package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

// CasdoorAuthenticator validates casdoor-issued JWTs and resolves users through
// the casdoor user API.
type CasdoorAuthenticator struct {
	client *casdoorsdk.Client
	logger *slog.Logger
}

func NewCasdoorAuthenticator(cfg CasdoorConfig, logger *slog.Logger) *CasdoorAuthenticator {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorAuthenticator{client: client, logger: logger}
}

func (a *CasdoorAuthenticator) Authenticate(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := a.client.ParseJwtToken(token)
	if err != nil {
		a.logger.Debug("Rejected casdoor token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role := RoleStudent
	if claims.IsAdmin {
		role = RoleAdmin
	}
	name := claims.DisplayName
	if name == "" {
		name = claims.Name
	}
	return &Principal{
		ID:    claims.Name,
		Name:  name,
		Email: claims.Email,
		Role:  role,
	}, nil
}

// Lookup resolves student ids, which are casdoor user names. Unknown users are
// skipped. A failed call for one id is logged and does not drop the others; the
// joined failures are returned with the profiles that did resolve.
func (a *CasdoorAuthenticator) Lookup(_ context.Context, ids []string) (map[string]*models.StudentProfile, error) {
	return lookupUsers(ids, a.client.GetUser, a.logger)
}

func lookupUsers(ids []string, getUser func(name string) (*casdoorsdk.User, error), logger *slog.Logger) (map[string]*models.StudentProfile, error) {
	out := make(map[string]*models.StudentProfile, len(ids))
	seen := make(map[string]struct{}, len(ids))
	var errs []error
	for _, id := range ids {
		if _, done := seen[id]; done {
			continue
		}
		seen[id] = struct{}{}

		user, err := getUser(id)
		if err != nil {
			logger.Warn("Casdoor user lookup failed", "student_id", id, "error", err)
			errs = append(errs, fmt.Errorf("failed to get user %s: %w", id, err))
			continue
		}
		if user == nil {
			continue
		}
		username := user.DisplayName
		if username == "" {
			username = user.Name
		}
		out[id] = &models.StudentProfile{ID: id, Username: username, Email: user.Email}
	}
	return out, errors.Join(errs...)
}
