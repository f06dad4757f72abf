package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SAP-F-2025/exam-paper-service/internal/config"
	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("EXAM_STORAGE", config.StorageMemory)
	t.Setenv("EXAM_AUTH_STATIC_TOKENS", "adm=teacher:admin")

	cmd := serveCmd()
	cfg, err := config.LoadConfig(viperForCmd(cmd))
	require.NoError(t, err)
	return cfg
}

func TestViperForCmd_ReadsEnvironment(t *testing.T) {
	t.Setenv("EXAM_ADDR", ":9999")
	t.Setenv("EXAM_GRADING_WEIGHT_LONG", "8")

	cfg, err := config.LoadConfig(viperForCmd(serveCmd()))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 8.0, cfg.Grading.WeightLong)
}

func TestViperForCmd_FlagsWin(t *testing.T) {
	t.Setenv("EXAM_ADDR", ":9999")
	cmd := serveCmd()
	require.NoError(t, cmd.Flags().Set("addr", ":7000"))

	cfg, err := config.LoadConfig(viperForCmd(cmd))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestNewApp_MemoryStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := memoryConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	application, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router := application.Router(ctx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/papers", nil)
	req.Header.Set("Authorization", "Bearer adm")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestRunExport_UnknownPaper(t *testing.T) {
	t.Setenv("EXAM_STORAGE", config.StorageMemory)

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"export", "--paper-id", "1", "--env-file", t.TempDir() + "/missing.env"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paper not found")
}

func TestExportWorkbookIsReadable(t *testing.T) {
	cfg := memoryConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer application.Close()

	ctx := context.Background()
	svc := application.services
	_, err = svc.Question().Create(ctx, &services.CreateQuestionRequest{
		Text: "Largest planet?", Subject: "Astro", Difficulty: "easy", Type: "mcq",
		Options: []string{"Mars", "Jupiter"}, CorrectAnswer: "Jupiter",
	})
	require.NoError(t, err)

	paper, err := svc.Paper().Assemble(ctx, &services.AssemblePaperRequest{
		Title: "Quiz", Subject: "Astro", Mode: models.ModeMCQOnly,
		Quotas: services.Quotas{EasyCount: 1},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export().ExportSubmissions(ctx, paper.PaperID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 1, fmt.Sprint(rows))
	assert.Equal(t, "Student ID", rows[0][0])
}
