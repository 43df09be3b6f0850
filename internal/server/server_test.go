package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"screening-bot/internal/api"
	"screening-bot/internal/config"
	"screening-bot/internal/engine"
	"screening-bot/internal/evaluator"
	"screening-bot/internal/metrics"
	"screening-bot/internal/session"
	"screening-bot/internal/storage"
)

type stubGenerator struct {
	reply string
}

func (g *stubGenerator) Complete(ctx context.Context, messages []api.Message) (string, error) {
	return g.reply, nil
}

func (g *stubGenerator) CompleteJSON(ctx context.Context, prompt, schemaName string, schema json.RawMessage) (string, error) {
	return `{"skill_scores": [], "strengths": [], "concerns": [], "overall_summary": "ok", "followup_focus_areas": [], "followup_questions": []}`, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Company.Name = "Lumora"
	cfg.Role.Title = "Junior Growth Marketing Specialist"
	cfg.Interview.MinResponses = 2
	cfg.Interview.MaxTurns = 30
	cfg.Skills = config.SkillSet{
		Order: []string{"campaigns"},
		Items: map[string]config.Skill{
			"campaigns": {Name: "Campaign Execution", Weight: 5},
		},
	}
	cfg.RequiredInfo = []config.RequiredField{{Field: "name"}}
	cfg.ConversationFlow.Introduction.Message = "Hi! Ready?"
	cfg.ConversationFlow.CollectInfo.Order = []string{"name"}
	cfg.ConversationFlow.Closing.CandidateQuestionsPrompt = "Any questions?"
	cfg.ConversationFlow.Closing.FinalMessage = "Thanks, {name}!"
	cfg.Recommendations = config.Recommendations{
		No: &config.RecommendationTier{MinWeightedScore: 0, Label: "No"},
	}
	return cfg
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	cfg := testConfig()
	gen := &stubGenerator{reply: "Tell me more."}
	logger := zap.NewNop()
	m := metrics.NewMetrics()

	eng := engine.New(cfg, session.NewStore(), gen, m, logger)
	eval := evaluator.New(cfg, gen, logger)
	followUp := engine.NewFollowUpEngine(cfg, gen, logger)
	store := storage.New(t.TempDir())

	appCfg := &config.AppConfig{}
	appCfg.Server.Port = 0

	srv := New(appCfg, eng, followUp, eval, nil, store, m, logger)
	return srv, srv.routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStartAndRespond(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var start startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &start))
	assert.True(t, start.Success)
	assert.NotEmpty(t, start.SessionID)
	assert.Equal(t, session.PhaseIntroduction, start.Phase)

	rec = doJSON(t, handler, http.MethodPost, "/api/respond", respondRequest{
		SessionID: start.SessionID,
		Response:  "ready",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp respondResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, session.PhaseCollectInfo, resp.Phase)
	assert.False(t, resp.Complete)
}

func TestRespondValidation(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/respond", respondRequest{Response: "   "})
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Please provide an answer")

	rec = doJSON(t, handler, http.MethodPost, "/api/respond", respondRequest{Response: "hello"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "No active session")

	rec = doJSON(t, handler, http.MethodPost, "/api/respond", respondRequest{
		SessionID: "s1",
		Response:  strings.Repeat("a", 5000),
	})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "too long")

	rec = doJSON(t, handler, http.MethodPost, "/api/respond", respondRequest{
		SessionID: "s1",
		Response:  "aaaaaaaaaaaaaaaaaaaa!",
	})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "repeated characters")
}

func TestProgressUnknownSession(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/progress?session_id=missing", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_started", resp["phase"])
}

func TestHealth(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp, "metrics")
}

func TestExportEvaluationNotFound(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/admin/evaluation/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowUpStartRequiresEvaluation(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/admin/followup/start", followUpStartRequest{
		OriginalSessionID: "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompletedInterviewProducesEvaluation(t *testing.T) {
	srv, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/start", nil)
	var start startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &start))

	// intro -> сбор анкеты (linkedin_url обязателен всегда) ->
	// компетенция -> закрытие (2 хода)
	replies := []string{"ready", "Jane Doe", "linkedin.com/in/jane-doe", "I ran a campaign", "no questions"}
	var resp respondResponse
	for _, reply := range replies {
		rec = doJSON(t, handler, http.MethodPost, "/api/respond", respondRequest{
			SessionID: start.SessionID,
			Response:  reply,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	require.True(t, resp.Complete)

	// Оценка строится в фоне
	require.Eventually(t, func() bool {
		_, ok := srv.getEvaluation(start.SessionID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	rec = doJSON(t, handler, http.MethodGet, "/api/admin/evaluation/"+start.SessionID+"/export", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/admin/evaluations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list["evaluations"], 1)
}
