package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"screening-bot/internal/api"
	"screening-bot/internal/config"
	"screening-bot/internal/evaluator"
	"screening-bot/internal/session"
)

// В контекст повторного интервью передается меньше истории:
// опорные материалы и так занимают большую часть промпта
const followUpHistoryWindow = 15

// FollowUpEngine проводит повторное интервью по итогам первичного.
// Первичная оценка задает фокусные области и заготовленные вопросы;
// фазовой машины здесь нет, диалог свободный.
type FollowUpEngine struct {
	cfg       *config.Config
	generator Generator
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*FollowUpSession
}

// FollowUpSession — состояние одного повторного интервью
type FollowUpSession struct {
	mu sync.Mutex

	ID             string `json:"session_id"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`

	Evaluation         *evaluator.Evaluation `json:"initial_evaluation"`
	InitialTranscript  []session.Turn        `json:"initial_transcript"`
	Conversation       []session.Turn        `json:"followup_conversation"`
	FocusAreas         []string              `json:"focus_areas"`
	SuggestedQuestions []string              `json:"suggested_questions"`
}

// NewFollowUpEngine создает движок повторных интервью
func NewFollowUpEngine(cfg *config.Config, generator Generator, logger *zap.Logger) *FollowUpEngine {
	return &FollowUpEngine{
		cfg:       cfg,
		generator: generator,
		logger:    logger,
		sessions:  make(map[string]*FollowUpSession),
	}
}

// StartSession создает повторную сессию по первичной оценке
// и возвращает приветственную реплику
func (f *FollowUpEngine) StartSession(sessionID string, eval *evaluator.Evaluation, initialTranscript []session.Turn) (string, *FollowUpSession, error) {
	if sessionID == "" {
		return "", nil, fmt.Errorf("идентификатор сессии не может быть пустым")
	}
	if eval == nil {
		return "", nil, fmt.Errorf("повторное интервью требует первичной оценки")
	}

	focus := "background"
	if len(eval.FollowupFocusAreas) > 0 {
		focus = eval.FollowupFocusAreas[0]
	}

	opening := fmt.Sprintf(`Welcome back, %s! Thank you for joining us for this follow-up conversation.

Based on our initial interview, I'd like to dive deeper into a few areas. This will help us get a better understanding of your experience and how you might fit with our team.

Let's start by exploring your %s in more detail.`, eval.CandidateName, focus)

	sess := &FollowUpSession{
		ID:                 sessionID,
		CandidateName:      eval.CandidateName,
		CandidateEmail:     eval.CandidateEmail,
		Evaluation:         eval,
		InitialTranscript:  initialTranscript,
		FocusAreas:         eval.FollowupFocusAreas,
		SuggestedQuestions: eval.FollowupQuestions,
	}
	sess.appendTurn(session.RoleInterviewer, opening)

	f.mu.Lock()
	f.sessions[sessionID] = sess
	f.mu.Unlock()

	f.logger.Info("повторное интервью начато",
		zap.String("session_id", sessionID),
		zap.String("candidate", eval.CandidateName),
	)

	return opening, sess, nil
}

// GetSession возвращает повторную сессию по идентификатору
func (f *FollowUpEngine) GetSession(sessionID string) (*FollowUpSession, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	sess, ok := f.sessions[sessionID]
	return sess, ok
}

// ProcessResponse обрабатывает ответ кандидата в повторном интервью
func (f *FollowUpEngine) ProcessResponse(ctx context.Context, sessionID, userMessage string) (string, *FollowUpSession, error) {
	f.mu.RLock()
	sess, ok := f.sessions[sessionID]
	f.mu.RUnlock()
	if !ok {
		return "", nil, fmt.Errorf("сессия %s не найдена", sessionID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.appendTurn(session.RoleCandidate, userMessage)

	reply, err := f.generator.Complete(ctx, f.buildMessages(sess))
	if err != nil {
		f.logger.Warn("сбой генерации реплики повторного интервью",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		reply = apologyMessage
	}
	reply = strings.TrimSpace(reply)

	sess.appendTurn(session.RoleInterviewer, reply)
	return reply, sess, nil
}

func (f *FollowUpEngine) buildMessages(sess *FollowUpSession) []api.Message {
	messages := []api.Message{
		{Role: "system", Content: f.buildSystemPrompt(sess)},
	}

	history := sess.Conversation
	if len(history) > followUpHistoryWindow {
		history = history[len(history)-followUpHistoryWindow:]
	}
	for _, turn := range history {
		messages = append(messages, api.Message{Role: turn.Role, Content: turn.Content})
	}

	return messages
}

func (f *FollowUpEngine) buildSystemPrompt(sess *FollowUpSession) string {
	eval := sess.Evaluation
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("You are conducting a follow-up interview for %s for the %s position.\n\n",
		sess.CandidateName, f.cfg.Role.Title))

	prompt.WriteString("INITIAL EVALUATION SUMMARY:\n")
	prompt.WriteString(fmt.Sprintf("- Recommendation: %s\n", eval.RecommendationLabel))
	prompt.WriteString(fmt.Sprintf("- Score: %.2f/5\n", eval.WeightedAverage))
	prompt.WriteString(fmt.Sprintf("- Strengths: %s\n", strings.Join(firstN(eval.Strengths, 3), ", ")))
	prompt.WriteString(fmt.Sprintf("- Concerns: %s\n\n", strings.Join(firstN(eval.Concerns, 3), ", ")))

	prompt.WriteString("AREAS TO EXPLORE IN THIS FOLLOW-UP:\n")
	for _, area := range sess.FocusAreas {
		prompt.WriteString(fmt.Sprintf("- %s\n", area))
	}

	prompt.WriteString("\nSUGGESTED QUESTIONS TO ASK:\n")
	for _, question := range firstN(sess.SuggestedQuestions, 5) {
		prompt.WriteString(fmt.Sprintf("- %s\n", question))
	}

	prompt.WriteString(`
YOUR TASK:
1. Ask probing questions to verify or clarify the initial assessment
2. Dig deeper into concerning areas
3. Get more specific examples for strong claims
4. Assess culture fit and working style
5. Keep the conversation natural and flowing

Remember: This is a follow-up, so reference their earlier responses when relevant.
Keep responses concise. Ask ONE question at a time.`)

	return prompt.String()
}

func (s *FollowUpSession) appendTurn(role, content string) {
	s.Conversation = append(s.Conversation, session.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}
