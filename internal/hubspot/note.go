package hubspot

import (
	"fmt"
	"sort"
	"strings"

	"screening-bot/internal/evaluator"
)

// FormatEvaluationNote рендерит оценку в HTML-заметку для CRM
func FormatEvaluationNote(eval *evaluator.Evaluation) string {
	var note strings.Builder

	note.WriteString(fmt.Sprintf("<h2>AI Interview - %s</h2>\n", eval.CandidateName))
	note.WriteString(fmt.Sprintf("<p><strong>Date:</strong> %s</p>\n", eval.InterviewDate))
	note.WriteString(fmt.Sprintf("<p><strong>Position:</strong> %s</p>\n", eval.Role))
	note.WriteString(fmt.Sprintf("<p><strong>AI Recommendation:</strong> %s</p>\n", eval.RecommendationLabel))
	note.WriteString(fmt.Sprintf("<p><strong>Score:</strong> %.2f/5.0</p>\n", eval.WeightedAverage))

	note.WriteString("\n<hr>\n\n<h3>Summary</h3>\n")
	note.WriteString(fmt.Sprintf("<p>%s</p>\n", eval.OverallSummary))

	note.WriteString("\n<h3>Strengths</h3>\n<ul>\n")
	for _, strength := range eval.Strengths {
		note.WriteString(fmt.Sprintf("<li>%s</li>\n", strength))
	}
	note.WriteString("</ul>\n")

	note.WriteString("\n<h3>Concerns</h3>\n<ul>\n")
	for _, concern := range eval.Concerns {
		note.WriteString(fmt.Sprintf("<li>%s</li>\n", concern))
	}
	note.WriteString("</ul>\n")

	note.WriteString("\n<h3>Skill Scores</h3>\n<ul>\n")
	ids := make([]string, 0, len(eval.SkillScores))
	for id := range eval.SkillScores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		score := eval.SkillScores[id]
		note.WriteString(fmt.Sprintf("<li><strong>%s:</strong> %d/5", score.SkillName, score.Score))
		if score.FollowUpNeeded {
			note.WriteString(" (follow-up needed)")
		}
		note.WriteString("</li>\n")
	}
	note.WriteString("</ul>\n")

	note.WriteString("\n<h3>Recommended Follow-up Questions</h3>\n<ol>\n")
	questions := eval.FollowupQuestions
	if len(questions) > 5 {
		questions = questions[:5]
	}
	for _, question := range questions {
		note.WriteString(fmt.Sprintf("<li>%s</li>\n", question))
	}
	note.WriteString("</ol>\n")

	note.WriteString("\n<hr>\n<p><em>This interview was conducted via the AI screening assistant.</em></p>\n")

	return note.String()
}
