package evaluator

import (
	"fmt"
	"strings"
)

// FollowUpGuide рендерит текстовую памятку для интервьюера повторного
// этапа: итог, сильные и слабые стороны, разбивка по компетенциям,
// фокусные области и заготовленные вопросы
func (s *Service) FollowUpGuide(eval *Evaluation) string {
	divider := strings.Repeat("=", 60)
	var guide strings.Builder

	section := func(title string) {
		guide.WriteString(fmt.Sprintf("\n%s\n%s\n%s\n", divider, title, divider))
	}

	section("FOLLOW-UP INTERVIEW GUIDE")
	guide.WriteString(fmt.Sprintf("\nCANDIDATE: %s\n", eval.CandidateName))
	guide.WriteString(fmt.Sprintf("EMAIL: %s\n", eval.CandidateEmail))
	guide.WriteString(fmt.Sprintf("INITIAL INTERVIEW: %s\n", eval.InterviewDate))
	guide.WriteString(fmt.Sprintf("AI RECOMMENDATION: %s\n", eval.RecommendationLabel))

	section("OVERALL SUMMARY")
	guide.WriteString(eval.OverallSummary + "\n")
	guide.WriteString(fmt.Sprintf("\nWEIGHTED SCORE: %.2f/5.0\n", eval.WeightedAverage))

	section("STRENGTHS OBSERVED")
	for _, strength := range eval.Strengths {
		guide.WriteString(fmt.Sprintf("+ %s\n", strength))
	}

	section("AREAS OF CONCERN")
	for _, concern := range eval.Concerns {
		guide.WriteString(fmt.Sprintf("! %s\n", concern))
	}

	section("SKILL BREAKDOWN")
	// Порядок из конфигурации, а не обход map: памятка должна быть
	// воспроизводимой по одной и той же оценке
	for _, id := range s.cfg.Skills.Order {
		score, ok := eval.SkillScores[id]
		if !ok {
			continue
		}
		guide.WriteString(fmt.Sprintf("\n%s: %d/5 (confidence: %.0f%%)\n", score.SkillName, score.Score, score.Confidence*100))
		if len(score.Evidence) > 0 {
			guide.WriteString(fmt.Sprintf("  Evidence: %s\n", score.Evidence[0]))
		}
		if len(score.Concerns) > 0 {
			guide.WriteString(fmt.Sprintf("  Concern: %s\n", score.Concerns[0]))
		}
		if score.FollowUpNeeded {
			guide.WriteString("  >> NEEDS FOLLOW-UP\n")
		}
	}

	section("RECOMMENDED FOCUS AREAS FOR FOLLOW-UP")
	for _, area := range eval.FollowupFocusAreas {
		guide.WriteString(fmt.Sprintf("-> %s\n", area))
	}

	section("SUGGESTED FOLLOW-UP QUESTIONS")
	for i, question := range eval.FollowupQuestions {
		guide.WriteString(fmt.Sprintf("%d. %s\n", i+1, question))
	}

	section("INTERVIEW GUIDELINES")
	for _, guideline := range s.cfg.FollowUp.InterviewerGuidelines {
		guide.WriteString(fmt.Sprintf("* %s\n", guideline))
	}

	return guide.String()
}
