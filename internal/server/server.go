package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"screening-bot/internal/config"
	"screening-bot/internal/engine"
	"screening-bot/internal/evaluator"
	"screening-bot/internal/hubspot"
	"screening-bot/internal/metrics"
	"screening-bot/internal/session"
	"screening-bot/internal/storage"
)

// Таймаут фоновой обработки завершенного интервью:
// оценка, запись на диск, синхронизация с CRM
const completionTimeout = 3 * time.Minute

// evaluationRecord — оценка вместе со снимком сессии, как она
// отдается админ-выгрузкой
type evaluationRecord struct {
	Evaluation  *evaluator.Evaluation `json:"evaluation"`
	SessionData session.Snapshot      `json:"session_data"`
	Timestamp   time.Time             `json:"timestamp"`
}

// Server — HTTP-слой: публичные маршруты кандидата и админские
// маршруты оценок и повторных интервью
type Server struct {
	cfg       *config.AppConfig
	engine    *engine.Engine
	followUp  *engine.FollowUpEngine
	evaluator *evaluator.Service
	hubspot   *hubspot.Client // nil, когда интеграция не настроена
	storage   *storage.Service
	metrics   *metrics.Metrics
	logger    *zap.Logger
	limiter   *RateLimiter

	mu          sync.RWMutex
	evaluations map[string]*evaluationRecord
}

// New собирает сервер и подписывает его на завершение интервью:
// завершенная сессия асинхронно оценивается, сохраняется и уходит в CRM
func New(
	cfg *config.AppConfig,
	eng *engine.Engine,
	followUp *engine.FollowUpEngine,
	eval *evaluator.Service,
	hs *hubspot.Client,
	store *storage.Service,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:         cfg,
		engine:      eng,
		followUp:    followUp,
		evaluator:   eval,
		hubspot:     hs,
		storage:     store,
		metrics:     m,
		logger:      logger,
		limiter:     NewRateLimiter(10, time.Minute),
		evaluations: make(map[string]*evaluationRecord),
	}

	eng.OnSessionComplete(s.onSessionComplete)

	return s
}

// Run запускает HTTP-сервер и блокируется до отмены контекста,
// после чего корректно завершает обслуживание
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.routes(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP-сервер запущен", zap.Int("port", s.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ошибка HTTP-сервера: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("останавливаем HTTP-сервер")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}

	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/respond", s.handleRespond)
		r.Get("/progress", s.handleProgress)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/evaluations", s.handleListEvaluations)
			r.Get("/evaluation/{sessionID}/export", s.handleExportEvaluation)
			r.Get("/evaluation/{sessionID}/followup-guide", s.handleFollowUpGuide)
			r.Get("/interviews", s.handleListInterviews)
			r.Post("/followup/start", s.handleFollowUpStart)
			r.Post("/followup/respond", s.handleFollowUpRespond)
		})
	})

	return r
}

// onSessionComplete — фоновая обработка завершенного интервью.
// Каждый шаг независим: сбой синхронизации с CRM не мешает записи на диск.
func (s *Server) onSessionComplete(sess *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	snapshot := sess.Export()

	if err := s.storage.SaveInterview(snapshot); err != nil {
		s.logger.Error("не удалось сохранить транскрипт",
			zap.String("session_id", snapshot.SessionID),
			zap.Error(err),
		)
	}

	eval, err := s.evaluator.Evaluate(ctx, snapshot)
	if err != nil {
		s.logger.Error("не удалось оценить кандидата",
			zap.String("session_id", snapshot.SessionID),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncrementEvaluationsGenerated()

	s.mu.Lock()
	s.evaluations[snapshot.SessionID] = &evaluationRecord{
		Evaluation:  eval,
		SessionData: snapshot,
		Timestamp:   time.Now(),
	}
	s.mu.Unlock()

	if err := s.storage.SaveEvaluation(eval); err != nil {
		s.logger.Error("не удалось сохранить оценку",
			zap.String("session_id", snapshot.SessionID),
			zap.Error(err),
		)
	}

	if s.hubspot != nil {
		if _, err := s.hubspot.SyncEvaluation(ctx, eval); err != nil {
			s.logger.Error("не удалось синхронизировать оценку с HubSpot",
				zap.String("session_id", snapshot.SessionID),
				zap.Error(err),
			)
		}
	}
}

func (s *Server) getEvaluation(sessionID string) (*evaluationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.evaluations[sessionID]
	return record, ok
}
