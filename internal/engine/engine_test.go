package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"screening-bot/internal/api"
	"screening-bot/internal/config"
	"screening-bot/internal/metrics"
	"screening-bot/internal/session"
)

// stubGenerator возвращает фиксированную реплику и считает вызовы
type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Complete(ctx context.Context, messages []api.Message) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Company.Name = "Lumora"
	cfg.Role.Title = "Junior Growth Marketing Specialist"
	cfg.Interview.MinResponses = 4
	cfg.Interview.MaxTurns = 30
	cfg.Skills = config.SkillSet{
		Order: []string{"campaigns", "analytics", "writing"},
		Items: map[string]config.Skill{
			"campaigns": {Name: "Campaign Execution", Weight: 5},
			"analytics": {Name: "Analytics", Weight: 4},
			"writing":   {Name: "Copywriting", Weight: 2},
		},
	}
	cfg.RequiredInfo = []config.RequiredField{
		{Field: "name"},
		{Field: "email"},
		{Field: "linkedin_url"},
	}
	cfg.ConversationFlow.Introduction.Message = "Hi! Ready to begin?"
	cfg.ConversationFlow.CollectInfo.Order = []string{"name", "email", "linkedin_url"}
	cfg.ConversationFlow.Closing.CandidateQuestionsPrompt = "Do you have any questions for us?"
	cfg.ConversationFlow.Closing.FinalMessage = "Thank you, {name}! We'll be in touch."
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, gen *stubGenerator) *Engine {
	t.Helper()
	return New(cfg, session.NewStore(), gen, metrics.NewMetrics(), zap.NewNop())
}

func TestStartSession(t *testing.T) {
	gen := &stubGenerator{reply: "Next question?"}
	eng := newTestEngine(t, testConfig(), gen)

	opening, sess, err := eng.StartSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "Hi! Ready to begin?", opening)
	assert.Equal(t, session.PhaseIntroduction, sess.Phase)
	assert.Equal(t, 1, sess.TurnCount)
	assert.Len(t, sess.Transcript, 1)
}

func TestStartSessionEmptyID(t *testing.T) {
	eng := newTestEngine(t, testConfig(), &stubGenerator{})
	_, _, err := eng.StartSession("")
	assert.Error(t, err)
}

func TestProcessResponseUnknownSession(t *testing.T) {
	eng := newTestEngine(t, testConfig(), &stubGenerator{})
	_, _, err := eng.ProcessResponse(context.Background(), "missing", "hello")
	assert.Error(t, err)
}

func TestFullInterviewFlow(t *testing.T) {
	gen := &stubGenerator{reply: "Tell me more."}
	eng := newTestEngine(t, testConfig(), gen)

	completed := make(chan *session.Session, 1)
	eng.OnSessionComplete(func(sess *session.Session) {
		completed <- sess
	})

	_, sess, err := eng.StartSession("s1")
	require.NoError(t, err)

	replies := []string{
		"yes, ready",
		"Jane Doe",
		"jane@example.com",
		"https://linkedin.com/in/jane-doe",
		"I ran a paid social campaign last spring",
		"we tracked CTR and conversion rate weekly",
		"here's a headline I would write",
		"no questions from me, thanks",
	}

	lastPhaseIndex := sess.Phase.Index()
	for _, reply := range replies {
		_, sess, err = eng.ProcessResponse(context.Background(), "s1", reply)
		require.NoError(t, err)

		// Фазы двигаются только вперед
		assert.GreaterOrEqual(t, sess.Phase.Index(), lastPhaseIndex)
		lastPhaseIndex = sess.Phase.Index()
	}

	assert.Equal(t, session.PhaseComplete, sess.Phase)
	assert.NotNil(t, sess.CompletedAt)

	assert.Equal(t, "Jane Doe", sess.CandidateName)
	assert.Equal(t, "jane@example.com", sess.CandidateEmail)
	assert.Equal(t, "https://linkedin.com/in/jane-doe", sess.CandidateLinkedIn)

	assert.ElementsMatch(t, []string{"campaigns", "analytics", "writing"}, sess.SkillsDiscussed)

	// Счетчик ходов равен числу реплик интервьюера в транскрипте
	interviewerTurns := 0
	for _, turn := range sess.Transcript {
		if turn.Role == session.RoleInterviewer {
			interviewerTurns++
		}
	}
	assert.Equal(t, interviewerTurns, sess.TurnCount)

	select {
	case done := <-completed:
		assert.Equal(t, "s1", done.ID)
	case <-time.After(time.Second):
		t.Fatal("подписчик завершения не был уведомлен")
	}
}

func TestCollectInfoDoesNotAdvanceWithOutstandingFields(t *testing.T) {
	gen := &stubGenerator{reply: "Next, please."}
	eng := newTestEngine(t, testConfig(), gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	_, sess, err := eng.ProcessResponse(context.Background(), "s1", "ready")
	require.NoError(t, err)
	require.Equal(t, session.PhaseCollectInfo, sess.Phase)

	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseCollectInfo, sess.Phase)

	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseCollectInfo, sess.Phase)
}

func TestLinkedInRequiredEvenIfConfigOmitsIt(t *testing.T) {
	cfg := testConfig()
	cfg.RequiredInfo = []config.RequiredField{{Field: "name"}, {Field: "email"}}
	cfg.ConversationFlow.CollectInfo.Order = []string{"name", "email"}

	gen := &stubGenerator{reply: "Next, please."}
	eng := newTestEngine(t, cfg, gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	for _, reply := range []string{"ready", "Jane Doe", "jane@example.com"} {
		_, _, err = eng.ProcessResponse(context.Background(), "s1", reply)
		require.NoError(t, err)
	}

	sess, _ := eng.GetSession("s1")
	assert.Equal(t, session.PhaseCollectInfo, sess.Phase, "без linkedin_url анкета не считается собранной")

	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "linkedin.com/in/jane-doe")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseSkillsAssessment, sess.Phase)
}

func TestValidationFailureSameTurnMessage(t *testing.T) {
	gen := &stubGenerator{reply: "Next, please."}
	eng := newTestEngine(t, testConfig(), gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	for _, reply := range []string{"ready", "Jane Doe"} {
		_, _, err = eng.ProcessResponse(context.Background(), "s1", reply)
		require.NoError(t, err)
	}

	callsBefore := gen.calls
	turnsBefore, _ := eng.GetSession("s1")
	countBefore := turnsBefore.TurnCount

	reply, sess, err := eng.ProcessResponse(context.Background(), "s1", "jane@")
	require.NoError(t, err)

	assert.Contains(t, reply, "valid email address")
	assert.Equal(t, session.PhaseCollectInfo, sess.Phase)
	assert.Empty(t, sess.CandidateEmail)
	// Ход засчитан, генератор не вызывался
	assert.Equal(t, countBefore+1, sess.TurnCount)
	assert.Equal(t, callsBefore, gen.calls)

	// Корректный повтор принимается
	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", sess.CandidateEmail)
}

func TestContentSniffingAssignsOutOfOrder(t *testing.T) {
	gen := &stubGenerator{reply: "Next, please."}
	eng := newTestEngine(t, testConfig(), gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	_, _, err = eng.ProcessResponse(context.Background(), "s1", "ready")
	require.NoError(t, err)

	// Ожидается name, но кандидат сразу шлет ссылку на профиль
	_, sess, err := eng.ProcessResponse(context.Background(), "s1", "my profile: https://linkedin.com/in/jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "https://linkedin.com/in/jane-doe", sess.CandidateLinkedIn)
	assert.Empty(t, sess.CandidateName)

	// Затем email вне очереди
	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", sess.CandidateEmail)

	// Имя остается последним ожидаемым полем
	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", sess.CandidateName)
	assert.Equal(t, session.PhaseSkillsAssessment, sess.Phase)
}

func TestMaxTurnsForcesCompletion(t *testing.T) {
	cfg := testConfig()
	cfg.Interview.MaxTurns = 3

	gen := &stubGenerator{reply: "Next, please."}
	eng := newTestEngine(t, cfg, gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	_, _, err = eng.ProcessResponse(context.Background(), "s1", "ready")
	require.NoError(t, err)
	_, _, err = eng.ProcessResponse(context.Background(), "s1", "Jane Doe")
	require.NoError(t, err)

	callsBefore := gen.calls
	reply, sess, err := eng.ProcessResponse(context.Background(), "s1", "jane@example.com")
	require.NoError(t, err)

	// Лимит достигнут посреди сбора анкеты: принудительное завершение
	assert.Equal(t, session.PhaseComplete, sess.Phase)
	assert.Contains(t, reply, "Jane Doe")
	// Финальная реплика не обращается к генератору и не попадает в транскрипт
	assert.Equal(t, callsBefore, gen.calls)
	assert.Equal(t, 3, sess.TurnCount)

	interviewerTurns := 0
	for _, turn := range sess.Transcript {
		if turn.Role == session.RoleInterviewer {
			interviewerTurns++
		}
	}
	assert.Equal(t, interviewerTurns, sess.TurnCount)
}

func TestClosingTwoStep(t *testing.T) {
	gen := &stubGenerator{reply: "Understood."}
	eng := newTestEngine(t, testConfig(), gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	replies := []string{
		"ready",
		"Jane Doe",
		"jane@example.com",
		"linkedin.com/in/jane-doe",
		"campaign answer",
		"analytics answer",
	}
	var sess *session.Session
	for _, reply := range replies {
		_, sess, err = eng.ProcessResponse(context.Background(), "s1", reply)
		require.NoError(t, err)
	}

	// Последний ответ по компетенциям переводит к закрытию,
	// но интервью еще не завершено
	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "writing answer")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseClosing, sess.Phase)
	assert.True(t, sess.ClosureAskedQuestions)

	// Ответ на "есть ли вопросы?" принимается без валидации,
	// после прощальной реплики интервью завершено
	_, sess, err = eng.ProcessResponse(context.Background(), "s1", "what's the team size?")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseComplete, sess.Phase)
}

func TestGenerationFailureFallsBackToApology(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("timeout")}
	eng := newTestEngine(t, testConfig(), gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	reply, sess, err := eng.ProcessResponse(context.Background(), "s1", "ready")
	require.NoError(t, err)

	assert.Equal(t, apologyMessage, reply)
	// Состояние зафиксировано до обращения к генератору
	assert.Equal(t, session.PhaseCollectInfo, sess.Phase)
	assert.Equal(t, 2, sess.TurnCount)
}

func TestCompletionMessageFallbackName(t *testing.T) {
	cfg := testConfig()
	cfg.Interview.MaxTurns = 1

	gen := &stubGenerator{reply: "Next, please."}
	eng := newTestEngine(t, cfg, gen)

	_, _, err := eng.StartSession("s1")
	require.NoError(t, err)

	// Имя еще не собрано: в прощании подставляется нейтральное обращение
	reply, sess, err := eng.ProcessResponse(context.Background(), "s1", "ready")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseComplete, sess.Phase)
	assert.Contains(t, reply, "there")
}
