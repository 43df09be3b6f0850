package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu                   sync.RWMutex
	InterviewsStarted    int64
	InterviewsCompleted  int64
	QuestionsAsked       int64
	EvaluationsGenerated int64
	APICallsTotal        int64
	APICallsSuccessful   int64
	LastUpdateTime       time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		LastUpdateTime: time.Now(),
	}
}

func (m *Metrics) IncrementInterviewsStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InterviewsStarted++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementInterviewsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InterviewsCompleted++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementQuestionsAsked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuestionsAsked++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementEvaluationsGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EvaluationsGenerated++
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementAPICall(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.APICallsTotal++
	if success {
		m.APICallsSuccessful++
	}
	m.LastUpdateTime = time.Now()
}

// Snapshot — сериализуемый срез счетчиков для /health
type Snapshot struct {
	InterviewsStarted    int64     `json:"interviews_started"`
	InterviewsCompleted  int64     `json:"interviews_completed"`
	QuestionsAsked       int64     `json:"questions_asked"`
	EvaluationsGenerated int64     `json:"evaluations_generated"`
	APICallsTotal        int64     `json:"api_calls_total"`
	APICallsSuccessful   int64     `json:"api_calls_successful"`
	LastUpdateTime       time.Time `json:"last_update_time"`
}

func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		InterviewsStarted:    m.InterviewsStarted,
		InterviewsCompleted:  m.InterviewsCompleted,
		QuestionsAsked:       m.QuestionsAsked,
		EvaluationsGenerated: m.EvaluationsGenerated,
		APICallsTotal:        m.APICallsTotal,
		APICallsSuccessful:   m.APICallsSuccessful,
		LastUpdateTime:       m.LastUpdateTime,
	}
}
