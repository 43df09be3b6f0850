package session

import (
	"sync"
	"time"
)

// Phase — фаза жизненного цикла интервью.
// Порядок фиксированный, движение только вперед.
type Phase string

const (
	PhaseIntroduction     Phase = "introduction"
	PhaseCollectInfo      Phase = "collect_info"
	PhaseSkillsAssessment Phase = "skills_assessment"
	PhaseClosing          Phase = "closing"
	PhaseComplete         Phase = "complete"
)

var phaseOrder = map[Phase]int{
	PhaseIntroduction:     0,
	PhaseCollectInfo:      1,
	PhaseSkillsAssessment: 2,
	PhaseClosing:          3,
	PhaseComplete:         4,
}

// Index возвращает порядковый номер фазы для проверки монотонности
func (p Phase) Index() int {
	return phaseOrder[p]
}

// Роли реплик в транскрипте. Значения совпадают с ролями chat-API,
// чтобы транскрипт передавался генератору без перекодирования.
const (
	RoleInterviewer = "assistant"
	RoleCandidate   = "user"
)

// Turn представляет одну реплику интервью
type Turn struct {
	Role            string    `json:"role"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp"`
	Phase           Phase     `json:"phase"`
	Skill           string    `json:"skill,omitempty"`
	ValidationError string    `json:"validation_error,omitempty"`
}

// QA представляет один вопрос и ответ по компетенции
type QA struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Session представляет состояние одного скрининг-интервью.
// Все мутации выполняются оркестратором строго последовательно
// под mu: обработка одного ответа кандидата читает и пишет
// несколько полей неатомарно.
type Session struct {
	mu sync.Mutex

	ID string

	CandidateName         string
	CandidateEmail        string
	CandidateLinkedIn     string
	CandidateLocation     string
	CandidateAvailability string

	Transcript    []Turn
	CollectedInfo map[string]string

	SkillsDiscussed   []string
	CurrentSkill      string
	QuestionsPerSkill map[string]int
	SkillResponses    map[string][]QA

	Phase     Phase
	TurnCount int

	// Оркестратор уже задал вопрос "есть ли у вас вопросы?"
	ClosureAskedQuestions bool

	// "email" или "linkedin_url", когда последний ответ не прошел валидацию.
	// Сбрасывается в начале обработки каждого хода.
	LastValidationError string

	StartedAt   time.Time
	CompletedAt *time.Time
}

// New создает новую сессию интервью
func New(id string) *Session {
	return &Session{
		ID:                id,
		Phase:             PhaseIntroduction,
		CollectedInfo:     make(map[string]string),
		QuestionsPerSkill: make(map[string]int),
		SkillResponses:    make(map[string][]QA),
		StartedAt:         time.Now(),
	}
}

// Lock захватывает сессию на время обработки одного ответа
func (s *Session) Lock() { s.mu.Lock() }

// Unlock освобождает сессию
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendCandidateTurn добавляет реплику кандидата в транскрипт
func (s *Session) AppendCandidateTurn(text string) {
	s.Transcript = append(s.Transcript, Turn{
		Role:      RoleCandidate,
		Content:   text,
		Timestamp: time.Now(),
		Phase:     s.Phase,
	})
}

// AppendInterviewerTurn добавляет реплику интервьюера и увеличивает
// счетчик ходов. Инвариант: TurnCount равен числу реплик интервьюера.
func (s *Session) AppendInterviewerTurn(text, validationError string) {
	s.Transcript = append(s.Transcript, Turn{
		Role:            RoleInterviewer,
		Content:         text,
		Timestamp:       time.Now(),
		Phase:           s.Phase,
		Skill:           s.CurrentSkill,
		ValidationError: validationError,
	})
	s.TurnCount++
}

// HasDiscussed сообщает, обсуждалась ли компетенция
func (s *Session) HasDiscussed(skill string) bool {
	for _, discussed := range s.SkillsDiscussed {
		if discussed == skill {
			return true
		}
	}
	return false
}

// RecordSkillResponse сохраняет пару вопрос-ответ по компетенции.
// Инвариант: компетенция с записями всегда помечена как обсужденная.
func (s *Session) RecordSkillResponse(skill, question, answer string) {
	s.SkillResponses[skill] = append(s.SkillResponses[skill], QA{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now(),
	})
	s.QuestionsPerSkill[skill]++

	if !s.HasDiscussed(skill) {
		s.SkillsDiscussed = append(s.SkillsDiscussed, skill)
	}
}

// MarkComplete переводит сессию в терминальную фазу
func (s *Session) MarkComplete() {
	s.Phase = PhaseComplete
	now := time.Now()
	s.CompletedAt = &now
}

// LastInterviewerQuestion возвращает текст предыдущей реплики интервьюера
// (вопрос, на который отвечает кандидат) или пустую строку
func (s *Session) LastInterviewerQuestion() string {
	if len(s.Transcript) >= 2 {
		return s.Transcript[len(s.Transcript)-2].Content
	}
	return ""
}
