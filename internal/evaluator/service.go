package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"screening-bot/internal/config"
	"screening-bot/internal/session"
)

// StructuredGenerator — генератор со строгой JSON-схемой ответа
type StructuredGenerator interface {
	CompleteJSON(ctx context.Context, prompt, schemaName string, schema json.RawMessage) (string, error)
}

// Схема структурированного ответа оценки. Strict-режим требует
// required для каждого свойства и запрет дополнительных полей.
var evaluationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "skill_scores": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "skill_id": {"type": "string"},
          "score": {"type": "integer", "minimum": 1, "maximum": 5},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "evidence": {"type": "array", "items": {"type": "string"}},
          "concerns": {"type": "array", "items": {"type": "string"}},
          "follow_up_needed": {"type": "boolean"},
          "follow_up_questions": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["skill_id", "score", "confidence", "evidence", "concerns", "follow_up_needed", "follow_up_questions"],
        "additionalProperties": false
      }
    },
    "strengths": {"type": "array", "items": {"type": "string"}},
    "concerns": {"type": "array", "items": {"type": "string"}},
    "overall_summary": {"type": "string"},
    "followup_focus_areas": {"type": "array", "items": {"type": "string"}},
    "followup_questions": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["skill_scores", "strengths", "concerns", "overall_summary", "followup_focus_areas", "followup_questions"],
  "additionalProperties": false
}`)

// Service строит итоговую оценку кандидата по снимку завершенной сессии
type Service struct {
	cfg       *config.Config
	generator StructuredGenerator
	logger    *zap.Logger
}

// New создает сервис оценивания
func New(cfg *config.Config, generator StructuredGenerator, logger *zap.Logger) *Service {
	return &Service{
		cfg:       cfg,
		generator: generator,
		logger:    logger,
	}
}

// Evaluate оценивает кандидата по транскрипту. При сбое генератора или
// неразборчивом ответе возвращает деградированную оценку с пометкой:
// завершенное интервью не должно оставаться без результата.
func (s *Service) Evaluate(ctx context.Context, snapshot session.Snapshot) (*Evaluation, error) {
	prompt := s.buildEvaluationPrompt(snapshot)

	degraded := false
	var raw rawEvaluation

	content, err := s.generator.CompleteJSON(ctx, prompt, "candidate_evaluation", evaluationSchema)
	if err != nil {
		s.logger.Warn("сбой генерации оценки, используем деградированную",
			zap.String("session_id", snapshot.SessionID),
			zap.Error(err),
		)
		raw = defaultEvaluation()
		degraded = true
	} else if err := json.Unmarshal([]byte(content), &raw); err != nil {
		s.logger.Warn("неразборчивый ответ оценки, используем деградированную",
			zap.String("session_id", snapshot.SessionID),
			zap.Error(err),
		)
		raw = defaultEvaluation()
		degraded = true
	}

	skillScores := make(map[string]SkillScore, len(raw.SkillScores))
	weightedSum := 0.0
	totalWeight := 0.0

	for _, score := range raw.SkillScores {
		weight := s.cfg.Skills.Weight(score.SkillID)

		name := score.SkillID
		if skill, ok := s.cfg.Skills.Get(score.SkillID); ok {
			name = skill.Name
		}

		skillScores[score.SkillID] = SkillScore{
			SkillID:           score.SkillID,
			SkillName:         name,
			Score:             score.Score,
			Confidence:        score.Confidence,
			Evidence:          score.Evidence,
			Concerns:          score.Concerns,
			FollowUpNeeded:    score.FollowUpNeeded,
			FollowUpQuestions: score.FollowUpQuestions,
		}

		weightedSum += float64(score.Score) * float64(weight)
		totalWeight += float64(weight)
	}

	weightedAverage := 0.0
	if totalWeight > 0 {
		weightedAverage = math.Round(weightedSum/totalWeight*100) / 100
	}

	recommendation, label, description := s.resolveRecommendation(weightedAverage)

	eval := &Evaluation{
		SessionID:                 snapshot.SessionID,
		CandidateName:             snapshot.CandidateName,
		CandidateEmail:            snapshot.CandidateEmail,
		CandidateLinkedIn:         snapshot.CandidateLinkedIn,
		InterviewDate:             snapshot.StartedAt.Format(time.RFC3339),
		Role:                      s.cfg.Role.Title,
		SkillScores:               skillScores,
		WeightedAverage:           weightedAverage,
		Recommendation:            recommendation,
		RecommendationLabel:       label,
		RecommendationDescription: description,
		Strengths:                 raw.Strengths,
		Concerns:                  raw.Concerns,
		OverallSummary:            raw.OverallSummary,
		RecommendedForFollowup:    recommendation == "strong_yes" || recommendation == "yes",
		FollowupFocusAreas:        raw.FollowupFocusAreas,
		FollowupQuestions:         raw.FollowupQuestions,
		Degraded:                  degraded,
	}

	return eval, nil
}

// resolveRecommendation спускается по лестнице уровней от строгого к слабому.
// Полностью пустая лестница — ошибка конфигурации, помечаем на ручной разбор.
func (s *Service) resolveRecommendation(weightedAverage float64) (string, string, string) {
	recs := s.cfg.Recommendations

	if recs.Empty() {
		s.logger.Warn("лестница рекомендаций не настроена, требуется ручной разбор")
		return "manual_review", "Review Needed", "Recommendation tiers are not configured; review the evaluation manually."
	}

	if recs.StrongYes != nil && weightedAverage >= recs.StrongYes.MinWeightedScore {
		return "strong_yes", tierLabel(recs.StrongYes, "Strong Yes"), recs.StrongYes.Description
	}
	if recs.Yes != nil && weightedAverage >= recs.Yes.MinWeightedScore {
		return "yes", tierLabel(recs.Yes, "Yes"), recs.Yes.Description
	}
	if recs.Maybe != nil && weightedAverage >= recs.Maybe.MinWeightedScore {
		return "maybe", tierLabel(recs.Maybe, "Maybe"), recs.Maybe.Description
	}
	if recs.No != nil {
		return "no", tierLabel(recs.No, "No"), recs.No.Description
	}
	return "no", "No", "Does not meet requirements"
}

func tierLabel(tier *config.RecommendationTier, fallback string) string {
	if tier.Label != "" {
		return tier.Label
	}
	return fallback
}

// defaultEvaluation — заглушка при сбое генерации: транскрипт придется
// разбирать человеку
func defaultEvaluation() rawEvaluation {
	return rawEvaluation{
		SkillScores:        nil,
		Strengths:          []string{"Unable to fully evaluate - please review transcript manually"},
		Concerns:           []string{"Evaluation error occurred"},
		OverallSummary:     "Automatic evaluation failed. Please review the interview transcript manually.",
		FollowupFocusAreas: []string{"All areas"},
		FollowupQuestions:  []string{"Please conduct a full follow-up interview"},
	}
}

// buildEvaluationPrompt собирает промпт оценивания: рубрика, компетенции
// с якорями, транскрипт и инструкции
func (s *Service) buildEvaluationPrompt(snapshot session.Snapshot) string {
	cfg := s.cfg
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("You are evaluating a candidate interview for the %s position at %s.\n\n",
		cfg.Role.Title, cfg.Company.Name))
	prompt.WriteString(fmt.Sprintf("ROLE CONTEXT:\n%s\n\n", cfg.Role.Context))

	prompt.WriteString("SCORING RUBRIC (1-5):\n")
	for score := 1; score <= 5; score++ {
		if rubric, ok := cfg.ScoringRubric[score]; ok {
			prompt.WriteString(fmt.Sprintf("\n%d - %s: %s\n", score, rubric.Label, rubric.Description))
		}
	}

	prompt.WriteString("\n\nCOMPETENCIES TO EVALUATE:\n")
	for _, id := range cfg.Skills.Order {
		skill := cfg.Skills.Items[id]
		prompt.WriteString(fmt.Sprintf("\n**%s** - %s (weight: %d/5):\n", id, skill.Name, skill.Weight))
		prompt.WriteString(fmt.Sprintf("  Description: %s\n", skill.Description))
		prompt.WriteString(fmt.Sprintf("  Looking for: %s\n", strings.Join(firstN(skill.KeyIndicators, 4), ", ")))
		prompt.WriteString(fmt.Sprintf("  Red flags: %s\n", strings.Join(firstN(skill.RedFlags, 3), ", ")))
		if len(skill.ScoringAnchors) > 0 {
			prompt.WriteString(fmt.Sprintf("  5 = %s\n", skill.ScoringAnchors[5]))
			prompt.WriteString(fmt.Sprintf("  3 = %s\n", skill.ScoringAnchors[3]))
			prompt.WriteString(fmt.Sprintf("  1 = %s\n", skill.ScoringAnchors[1]))
		}
	}

	prompt.WriteString("\n\nRED FLAGS TO WATCH FOR:\n")
	for _, flag := range cfg.Interview.RedFlags {
		prompt.WriteString(fmt.Sprintf("- %s\n", flag))
	}

	divider := strings.Repeat("=", 60)
	prompt.WriteString("\n\n" + divider + "\n")
	prompt.WriteString("INTERVIEW TRANSCRIPT\n")
	prompt.WriteString(divider + "\n")

	for _, turn := range snapshot.ConversationHistory {
		roleLabel := "CANDIDATE"
		if turn.Role == session.RoleInterviewer {
			roleLabel = "INTERVIEWER"
		}
		prompt.WriteString(fmt.Sprintf("\n[%s]: %s\n", roleLabel, turn.Content))
	}

	prompt.WriteString("\n" + divider + "\n")

	prompt.WriteString(`

EVALUATION INSTRUCTIONS:

Based on this transcript, provide a structured evaluation following these requirements:

1. SCORE EACH COMPETENCY (1-5):
   - Score based ONLY on evidence from the transcript
   - If a competency wasn't discussed much, give score 3 with low confidence
   - Use the scoring anchors provided for each competency
   - Quote or paraphrase specific candidate statements as evidence

2. IDENTIFY:
   - 3 clear STRENGTHS observed (with evidence)
   - 3 RISKS or CONCERNS (with evidence)
   - Note any RED FLAGS you observed

3. GENERATE:
   - 3 recommended next-step checks (work sample, reference question, or interview focus area)
   - 5-7 specific follow-up questions for areas needing deeper exploration

4. FINAL RECOMMENDATION:
   - Strong Yes (score >= 4.0): Strong junior potential, proceed to final interview
   - Yes (score >= 3.3): Good potential, needs follow-up on specific areas
   - Maybe (score >= 2.5): Some potential but significant questions remain
   - No (score < 2.5): Does not meet requirements

REMEMBER:
- This is JUNIOR screening - don't penalize lack of senior experience
- Look for potential and fundamentals, not perfection
- Note what was DEMONSTRATED vs what was only CLAIMED
- Be fair but objective
`)

	return prompt.String()
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
