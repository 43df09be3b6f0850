package evaluator

// SkillScore — оценка одной компетенции по транскрипту
type SkillScore struct {
	SkillID           string   `json:"skill_id"`
	SkillName         string   `json:"skill_name"`
	Score             int      `json:"score"`
	Confidence        float64  `json:"confidence"`
	Evidence          []string `json:"evidence"`
	Concerns          []string `json:"concerns"`
	FollowUpNeeded    bool     `json:"follow_up_needed"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Evaluation — итоговая оценка кандидата по завершенному интервью
type Evaluation struct {
	SessionID         string `json:"session_id"`
	CandidateName     string `json:"candidate_name"`
	CandidateEmail    string `json:"candidate_email"`
	CandidateLinkedIn string `json:"candidate_linkedin,omitempty"`
	InterviewDate     string `json:"interview_date"`
	Role              string `json:"role"`

	SkillScores     map[string]SkillScore `json:"skill_scores"`
	WeightedAverage float64               `json:"weighted_average"`

	Recommendation            string `json:"recommendation"`
	RecommendationLabel       string `json:"recommendation_label"`
	RecommendationDescription string `json:"recommendation_description"`

	Strengths      []string `json:"strengths"`
	Concerns       []string `json:"concerns"`
	OverallSummary string   `json:"overall_summary"`

	RecommendedForFollowup bool     `json:"recommended_for_followup"`
	FollowupFocusAreas     []string `json:"followup_focus_areas"`
	FollowupQuestions      []string `json:"followup_questions"`

	Degraded bool `json:"degraded,omitempty"`
}

// rawEvaluation — полезная нагрузка структурированного ответа генератора
type rawEvaluation struct {
	SkillScores        []rawSkillScore `json:"skill_scores"`
	Strengths          []string        `json:"strengths"`
	Concerns           []string        `json:"concerns"`
	OverallSummary     string          `json:"overall_summary"`
	FollowupFocusAreas []string        `json:"followup_focus_areas"`
	FollowupQuestions  []string        `json:"followup_questions"`
}

type rawSkillScore struct {
	SkillID           string   `json:"skill_id"`
	Score             int      `json:"score"`
	Confidence        float64  `json:"confidence"`
	Evidence          []string `json:"evidence"`
	Concerns          []string `json:"concerns"`
	FollowUpNeeded    bool     `json:"follow_up_needed"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}
