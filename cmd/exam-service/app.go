package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-paper-service/internal/auth"
	"github.com/SAP-F-2025/exam-paper-service/internal/cache"
	"github.com/SAP-F-2025/exam-paper-service/internal/config"
	"github.com/SAP-F-2025/exam-paper-service/internal/events"
	"github.com/SAP-F-2025/exam-paper-service/internal/handlers"
	"github.com/SAP-F-2025/exam-paper-service/internal/llm"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-paper-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/SAP-F-2025/exam-paper-service/internal/utils"
	"github.com/SAP-F-2025/exam-paper-service/internal/validator"
	"github.com/SAP-F-2025/exam-paper-service/pkg"
	"github.com/gin-gonic/gin"
)

// identityProvider both authenticates callers and resolves student identities.
type identityProvider interface {
	auth.Authenticator
	services.StudentDirectory
}

type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	closers   []func() error
	publisher events.EventPublisher
	identity  identityProvider
	services  services.ServiceManager
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	repo, err := a.openRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	cacheService := cache.NewNoopCache()
	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		cacheService = cache.NewRedisCache(redisClient, "exam", logger)
	}

	a.publisher, err = cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	a.closers = append(a.closers, a.publisher.Close)

	a.identity = a.identityProvider()

	var (
		reviewer  services.Reviewer
		generator services.QuestionGenerator
	)
	if cfg.LLM.Enabled {
		client := llm.New(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
		reviewer, generator = client, client
		logger.Info("Answer review and question generation enabled", "model", cfg.LLM.Model, "url", cfg.LLM.BaseURL)
	}

	a.services = services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Cache:     cacheService,
		Publisher: a.publisher,
		Directory: a.identity,
		Reviewer:  reviewer,
		Generator: generator,
		Validator: validator.New(),
		Logger:    logger,
	}, services.ServiceConfig{
		StrictAssembly: cfg.Assembly.Strict,
		Weights: services.Weights{
			MCQ:   services.MCQWeight,
			Short: cfg.Grading.WeightShort,
			Long:  cfg.Grading.WeightLong,
		},
		CacheTTL:        cfg.CacheTTL,
		DeleteQuestions: cfg.Papers.OnPaperDelete == config.OnDeleteDeleteQuestions,
	})

	return a, nil
}

func (a *app) openRepository(ctx context.Context) (repositories.Repository, error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("Using in-memory storage, data is lost on exit")
		return memory.NewStore(), nil
	}

	db, err := pkg.InitDatabase(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	return postgres.NewRepository(db), nil
}

func (a *app) identityProvider() identityProvider {
	if a.cfg.Auth.Mode == config.AuthModeCasdoor {
		return auth.NewCasdoorAuthenticator(auth.CasdoorConfig{
			Endpoint:     a.cfg.Auth.Endpoint,
			ClientID:     a.cfg.Auth.ClientID,
			ClientSecret: a.cfg.Auth.ClientSecret,
			Certificate:  a.cfg.Auth.Certificate,
			Organization: a.cfg.Auth.Organization,
			Application:  a.cfg.Auth.Application,
		}, a.logger)
	}
	if len(a.cfg.Auth.StaticTokens) == 0 {
		a.logger.Warn("Static auth configured without tokens, every API call will be rejected")
	}
	return auth.NewStaticAuthenticator(a.cfg.Auth.StaticTokens)
}

// Router builds the HTTP handler. ctx bounds background middleware work.
func (a *app) Router(ctx context.Context) *gin.Engine {
	hm := handlers.NewHandlerManager(
		a.services,
		a.identity,
		auth.NewRoleAuthorizer(),
		utils.FromSlogLogger(a.logger),
		handlers.RouterOptions{
			SubmitRateLimit:  a.cfg.RateLimit.Requests,
			SubmitRateWindow: a.cfg.RateLimit.Window,
		},
	)
	return hm.NewRouter(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to release resource", "error", err)
		}
	}
	a.closers = nil
}
