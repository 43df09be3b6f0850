package session

import "time"

// Snapshot — плоская проекция сессии для внешних потребителей
// (персистентность, админ-выгрузка). Только чтение.
type Snapshot struct {
	SessionID             string            `json:"session_id"`
	CandidateName         string            `json:"candidate_name"`
	CandidateEmail        string            `json:"candidate_email"`
	CandidateLinkedIn     string            `json:"candidate_linkedin"`
	CandidateLocation     string            `json:"candidate_location"`
	CandidateAvailability string            `json:"candidate_availability"`
	StartedAt             time.Time         `json:"started_at"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	TurnCount             int               `json:"turn_count"`
	Phase                 Phase             `json:"phase"`
	ConversationHistory   []Turn            `json:"conversation_history"`
	CollectedInfo         map[string]string `json:"collected_info"`
	SkillsDiscussed       []string          `json:"skills_discussed"`
	SkillResponses        map[string][]QA   `json:"skill_responses"`
}

// Export возвращает снимок сессии. Захватывает блокировку сессии,
// поэтому безопасен параллельно с обработкой ответа.
func (s *Session) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		SessionID:             s.ID,
		CandidateName:         s.CandidateName,
		CandidateEmail:        s.CandidateEmail,
		CandidateLinkedIn:     s.CandidateLinkedIn,
		CandidateLocation:     s.CandidateLocation,
		CandidateAvailability: s.CandidateAvailability,
		StartedAt:             s.StartedAt,
		CompletedAt:           s.CompletedAt,
		TurnCount:             s.TurnCount,
		Phase:                 s.Phase,
		ConversationHistory:   make([]Turn, len(s.Transcript)),
		CollectedInfo:         make(map[string]string, len(s.CollectedInfo)),
		SkillsDiscussed:       make([]string, len(s.SkillsDiscussed)),
		SkillResponses:        make(map[string][]QA, len(s.SkillResponses)),
	}

	copy(snapshot.ConversationHistory, s.Transcript)
	copy(snapshot.SkillsDiscussed, s.SkillsDiscussed)

	for field, value := range s.CollectedInfo {
		snapshot.CollectedInfo[field] = value
	}

	for skill, responses := range s.SkillResponses {
		qa := make([]QA, len(responses))
		copy(qa, responses)
		snapshot.SkillResponses[skill] = qa
	}

	return snapshot
}
