package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"screening-bot/internal/session"
)

const maxMessageLength = 4000

type startResponse struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	SessionID string        `json:"session_id"`
	Phase     session.Phase `json:"phase"`
}

type respondRequest struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

type respondResponse struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message"`
	Phase             session.Phase      `json:"phase"`
	TurnCount         int                `json:"turn_count"`
	Complete          bool               `json:"complete"`
	EvaluationPending bool               `json:"evaluation_pending,omitempty"`
	EvaluationSummary *evaluationSummary `json:"evaluation_summary,omitempty"`
}

type evaluationSummary struct {
	Recommendation string  `json:"recommendation"`
	Score          float64 `json:"score"`
	Summary        string  `json:"summary"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// handleStart создает новую сессию интервью
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.New().String()

	opening, sess, err := s.engine.StartSession(sessionID)
	if err != nil {
		s.logger.Error("не удалось начать интервью", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to start interview")
		return
	}

	s.writeJSON(w, http.StatusOK, startResponse{
		Success:   true,
		Message:   opening,
		SessionID: sessionID,
		Phase:     sess.Phase,
	})
}

// handleRespond обрабатывает один ответ кандидата
func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Response = strings.TrimSpace(req.Response)
	if req.Response == "" {
		s.writeError(w, http.StatusOK, "Please provide an answer")
		return
	}
	if req.SessionID == "" {
		s.writeError(w, http.StatusOK, "No active session")
		return
	}

	if err := validateUserInput(req.Response); err != nil {
		s.writeError(w, http.StatusOK, err.Error())
		return
	}

	if !s.limiter.IsAllowed(req.SessionID) {
		s.writeError(w, http.StatusTooManyRequests, "Too many requests, please slow down")
		return
	}

	reply, sess, err := s.engine.ProcessResponse(r.Context(), req.SessionID, req.Response)
	if err != nil {
		s.logger.Error("не удалось обработать ответ",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "failed to process response")
		return
	}

	resp := respondResponse{
		Success:   true,
		Message:   reply,
		Phase:     sess.Phase,
		TurnCount: sess.TurnCount,
		Complete:  sess.Phase == session.PhaseComplete,
	}

	// Оценка строится асинхронно после завершения; клиенту сразу
	// отдается либо готовый итог, либо флаг ожидания
	if resp.Complete {
		if record, ok := s.getEvaluation(req.SessionID); ok {
			resp.EvaluationSummary = &evaluationSummary{
				Recommendation: record.Evaluation.RecommendationLabel,
				Score:          record.Evaluation.WeightedAverage,
				Summary:        truncate(record.Evaluation.OverallSummary, 200),
			}
		} else {
			resp.EvaluationPending = true
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleProgress возвращает текущий прогресс интервью
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	sess, ok := s.engine.GetSession(sessionID)
	if sessionID == "" || !ok {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"phase":      "not_started",
			"turn_count": 0,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"phase":          sess.Phase,
		"turn_count":     sess.TurnCount,
		"skills_covered": len(sess.SkillsDiscussed),
	})
}

// handleHealth — проверка живости со снимком метрик
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"metrics":   s.metrics.GetSnapshot(),
	})
}

// handleListEvaluations возвращает все оценки, накопленные в памяти
func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	evaluations := make([]map[string]interface{}, 0, len(s.evaluations))
	for sessionID, record := range s.evaluations {
		evaluations = append(evaluations, map[string]interface{}{
			"session_id": sessionID,
			"evaluation": record.Evaluation,
			"timestamp":  record.Timestamp.Format(time.RFC3339),
		})
	}
	s.mu.RUnlock()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"evaluations": evaluations})
}

// handleExportEvaluation выгружает оценку вместе со снимком сессии.
// Для сессий, не переживших рестарт, оценка поднимается с диска.
func (s *Server) handleExportEvaluation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if record, ok := s.getEvaluation(sessionID); ok {
		s.writeJSON(w, http.StatusOK, record)
		return
	}

	eval, err := s.storage.LoadEvaluation(sessionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"evaluation": eval})
}

// handleFollowUpGuide рендерит памятку для интервьюера повторного этапа
func (s *Server) handleFollowUpGuide(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, ok := s.getEvaluation(sessionID)
	if !ok {
		eval, err := s.storage.LoadEvaluation(sessionID)
		if err != nil {
			s.writeError(w, http.StatusNotFound, "Evaluation not found")
			return
		}
		record = &evaluationRecord{Evaluation: eval}
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"guide": s.evaluator.FollowUpGuide(record.Evaluation),
	})
}

// handleListInterviews возвращает идентификаторы сохраненных интервью
func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	ids, err := s.storage.ListInterviews()
	if err != nil {
		s.logger.Error("не удалось получить список интервью", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list interviews")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"interviews": ids})
}

type followUpStartRequest struct {
	OriginalSessionID string `json:"original_session_id"`
}

// handleFollowUpStart начинает повторное интервью по первичной оценке
func (s *Server) handleFollowUpStart(w http.ResponseWriter, r *http.Request) {
	var req followUpStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, ok := s.getEvaluation(req.OriginalSessionID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Original evaluation not found")
		return
	}

	followUpSessionID := uuid.New().String()
	opening, _, err := s.followUp.StartSession(followUpSessionID, record.Evaluation, record.SessionData.ConversationHistory)
	if err != nil {
		s.logger.Error("не удалось начать повторное интервью", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to start follow-up")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    opening,
		"session_id": followUpSessionID,
	})
}

// handleFollowUpRespond обрабатывает ответ кандидата в повторном интервью
func (s *Server) handleFollowUpRespond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Response = strings.TrimSpace(req.Response)
	if req.Response == "" {
		s.writeError(w, http.StatusOK, "Please provide an answer")
		return
	}
	if req.SessionID == "" {
		s.writeError(w, http.StatusOK, "No active follow-up session")
		return
	}

	reply, _, err := s.followUp.ProcessResponse(r.Context(), req.SessionID, req.Response)
	if err != nil {
		s.logger.Error("не удалось обработать ответ повторного интервью",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "failed to process response")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": reply,
	})
}

// validateUserInput отсекает неадекватный ввод до обращения к движку
func validateUserInput(text string) error {
	if len(text) > maxMessageLength {
		return fmt.Errorf("message is too long (max %d characters)", maxMessageLength)
	}

	// Защита от спама повторяющимися символами
	if len(text) > 10 && strings.Count(text, text[:1]) > len(text)*8/10 {
		return fmt.Errorf("message contains too many repeated characters")
	}

	return nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("не удалось записать ответ", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Success: false, Error: message})
}
