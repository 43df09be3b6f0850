package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"screening-bot/internal/api"
	"screening-bot/internal/config"
	"screening-bot/internal/metrics"
	"screening-bot/internal/session"
)

// Generator — внешний сервис генерации реплик интервьюера
type Generator interface {
	Complete(ctx context.Context, messages []api.Message) (string, error)
}

// SessionStore — хранилище сессий, ключ задает вызывающая сторона
type SessionStore interface {
	Get(id string) (*session.Session, bool)
	Put(sess *session.Session)
	Remove(id string)
}

// В контекст генератора передаются только последние реплики
const historyWindow = 20

// apologyMessage возвращается вместо реплики при сбое генерации,
// ход при этом засчитывается
const apologyMessage = "I apologize, I'm having a technical difficulty. Could you please repeat your last response?"

// Engine проводит скрининг-интервью: фазовая машина состояний,
// сбор обязательных полей, выбор компетенций, завершение.
// Сам текст реплик порождает внешний генератор.
type Engine struct {
	cfg       *config.Config
	store     SessionStore
	generator Generator
	metrics   *metrics.Metrics
	logger    *zap.Logger

	completionHooks []func(*session.Session)
}

// New создает движок интервью
func New(cfg *config.Config, store SessionStore, generator Generator, m *metrics.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		generator: generator,
		metrics:   m,
		logger:    logger,
	}
}

// OnSessionComplete регистрирует подписчика завершения интервью.
// Подписчики запускаются в отдельных горутинах и не могут
// заблокировать или сломать основной путь.
func (e *Engine) OnSessionComplete(hook func(*session.Session)) {
	e.completionHooks = append(e.completionHooks, hook)
}

// StartSession создает сессию и возвращает приветственную реплику
func (e *Engine) StartSession(sessionID string) (string, *session.Session, error) {
	if sessionID == "" {
		return "", nil, fmt.Errorf("идентификатор сессии не может быть пустым")
	}

	sess := session.New(sessionID)
	e.store.Put(sess)

	opening := e.cfg.ConversationFlow.Introduction.Message
	sess.AppendInterviewerTurn(opening, "")

	e.metrics.IncrementInterviewsStarted()
	e.logger.Info("сессия интервью создана", zap.String("session_id", sessionID))

	return opening, sess, nil
}

// GetSession возвращает сессию по идентификатору
func (e *Engine) GetSession(sessionID string) (*session.Session, bool) {
	return e.store.Get(sessionID)
}

// ProcessResponse обрабатывает один ответ кандидата и возвращает
// следующую реплику интервьюера. Обработка сериализуется блокировкой
// сессии: валидация -> мутация состояния -> решение о следующей реплике.
// Состояние фиксируется до обращения к генератору, поэтому его сбой
// оставляет сессию консистентной.
func (e *Engine) ProcessResponse(ctx context.Context, sessionID, userMessage string) (string, *session.Session, error) {
	sess, ok := e.store.Get(sessionID)
	if !ok {
		return "", nil, fmt.Errorf("сессия %s не найдена", sessionID)
	}

	sess.Lock()
	defer sess.Unlock()

	sess.AppendCandidateTurn(userMessage)

	e.applyReply(sess, userMessage)

	// Ответ не прошел валидацию: фиксированное сообщение в том же ходу,
	// без обращения к генератору и без продвижения фазы
	if sess.LastValidationError != "" {
		reply := validationErrorMessage(sess.LastValidationError)
		sess.AppendInterviewerTurn(reply, sess.LastValidationError)
		return reply, sess, nil
	}

	// Глобальный предел ходов вытесняет обычную логику фаз.
	// Финальная реплика не попадает в транскрипт: счетчик ходов
	// обязан совпадать с числом реплик интервьюера.
	if e.shouldEnd(sess) {
		// Повторное завершение не должно заново уведомлять подписчиков
		if sess.Phase != session.PhaseComplete {
			e.completeSession(sess)
		}
		return e.completionMessage(sess), sess, nil
	}

	// Фокус следующего вопроса выбирается до запроса генерации
	if sess.Phase == session.PhaseSkillsAssessment {
		sess.CurrentSkill = SelectNextSkill(e.cfg, sess)
	}

	reply := e.generateReply(ctx, sess)
	sess.AppendInterviewerTurn(reply, "")
	e.metrics.IncrementQuestionsAsked()

	// В завершающей фазе первая реплика интервьюера — вопрос про вопросы
	// кандидата, вторая — прощание, после которого интервью завершено
	if sess.Phase == session.PhaseClosing {
		if !sess.ClosureAskedQuestions {
			sess.ClosureAskedQuestions = true
		} else {
			e.completeSession(sess)
		}
	}

	return reply, sess, nil
}

// completeSession переводит сессию в терминальную фазу и уведомляет подписчиков
func (e *Engine) completeSession(sess *session.Session) {
	sess.MarkComplete()
	e.metrics.IncrementInterviewsCompleted()
	e.logger.Info("интервью завершено",
		zap.String("session_id", sess.ID),
		zap.Int("turn_count", sess.TurnCount),
		zap.Int("skills_discussed", len(sess.SkillsDiscussed)),
	)

	for _, hook := range e.completionHooks {
		go hook(sess)
	}
}

// shouldEnd проверяет условия принудительного завершения
func (e *Engine) shouldEnd(sess *session.Session) bool {
	if sess.Phase == session.PhaseComplete {
		return true
	}
	return sess.TurnCount >= e.cfg.Interview.MaxTurns
}

// completionMessage возвращает финальное сообщение с подстановкой имени
func (e *Engine) completionMessage(sess *session.Session) string {
	name := sess.CandidateName
	if name == "" {
		name = "there"
	}
	return strings.ReplaceAll(e.cfg.ConversationFlow.Closing.FinalMessage, "{name}", name)
}

// generateReply запрашивает следующую реплику у генератора.
// При сбое или таймауте возвращает фиксированное извинение:
// интервью не должно останавливаться из-за внешнего сервиса.
func (e *Engine) generateReply(ctx context.Context, sess *session.Session) string {
	messages := e.buildMessages(sess)

	reply, err := e.generator.Complete(ctx, messages)
	if err != nil {
		e.logger.Warn("сбой генерации реплики, используем запасной ответ",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return apologyMessage
	}

	return strings.TrimSpace(reply)
}

// buildMessages собирает контекст для генератора: системный промпт,
// инструкции текущей фазы и последние реплики транскрипта
func (e *Engine) buildMessages(sess *session.Session) []api.Message {
	messages := []api.Message{
		{Role: "system", Content: e.buildSystemPrompt(sess)},
		{Role: "system", Content: e.buildPhaseInstructions(sess)},
	}

	history := sess.Transcript
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, turn := range history {
		messages = append(messages, api.Message{Role: turn.Role, Content: turn.Content})
	}

	if sess.Phase == session.PhaseSkillsAssessment && sess.CurrentSkill != "" {
		messages = append(messages, api.Message{
			Role:    "system",
			Content: fmt.Sprintf("Focus your next question on assessing: %s", sess.CurrentSkill),
		})
	}

	return messages
}

// validationErrorMessage возвращает фиксированное сообщение об ошибке поля
func validationErrorMessage(errorType string) string {
	switch errorType {
	case "email":
		return "That doesn't look like a valid email address. We need a full address to continue, " +
			"for example name@example.com. Could you please provide your email again?"
	case "linkedin_url":
		return "That doesn't look like a valid LinkedIn profile URL. We need a link to your profile " +
			"to continue, for example https://linkedin.com/in/yourprofile. Could you please share it again?"
	}
	return "Please check your answer and try again."
}
