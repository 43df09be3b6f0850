package engine

import (
	"fmt"
	"strings"

	"screening-bot/internal/session"
)

// Сборка промптов — чистые функции от (конфигурация, снимок сессии).
// Никакого скрытого состояния сверх двух входов.

// buildSystemPrompt создает системный промпт интервьюера
// с учетом конфигурации и текущего состояния сессии
func (e *Engine) buildSystemPrompt(sess *session.Session) string {
	cfg := e.cfg
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("You are %s, an AI interviewer for %s.\n\n",
		cfg.Interview.Personality.Name, cfg.Company.Name))
	prompt.WriteString(fmt.Sprintf("ROLE: %s\n", cfg.Role.Title))
	prompt.WriteString(fmt.Sprintf("COMPANY: %s - %s\n\n", cfg.Company.Name, cfg.Company.Description))

	if cfg.Role.Context != "" {
		prompt.WriteString(fmt.Sprintf("ROLE CONTEXT: %s\n\n", cfg.Role.Context))
	}

	prompt.WriteString("YOUR INTERVIEW STYLE:\n")
	prompt.WriteString(fmt.Sprintf("- Tone: %s\n", cfg.Interview.Personality.Tone))
	prompt.WriteString(fmt.Sprintf("- Style: %s\n\n", cfg.Interview.Personality.Style))

	if cfg.AI.SystemContext != "" {
		prompt.WriteString(cfg.AI.SystemContext)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("INTERVIEW PRINCIPLES:\n")
	principles := cfg.Interview.Principles
	if len(principles) == 0 {
		principles = cfg.Interview.Personality.Guidelines
	}
	for _, principle := range principles {
		prompt.WriteString(fmt.Sprintf("- %s\n", principle))
	}
	prompt.WriteString("\n")

	if len(cfg.Interview.RedFlags) > 0 {
		prompt.WriteString("RED FLAGS TO WATCH FOR:\n")
		for _, flag := range cfg.Interview.RedFlags {
			prompt.WriteString(fmt.Sprintf("- %s\n", flag))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("COMPETENCIES YOU ARE ASSESSING:\n")
	for _, id := range cfg.Skills.Order {
		skill := cfg.Skills.Items[id]
		prompt.WriteString(fmt.Sprintf("\n**%s** (weight: %d/5):\n", skill.Name, skill.Weight))
		prompt.WriteString(fmt.Sprintf("  Description: %s\n", skill.Description))
		prompt.WriteString(fmt.Sprintf("  Looking for: %s\n", strings.Join(firstN(skill.KeyIndicators, 4), ", ")))
		prompt.WriteString(fmt.Sprintf("  Red flags: %s\n", strings.Join(firstN(skill.RedFlags, 2), ", ")))
		if len(skill.ScoringAnchors) > 0 {
			prompt.WriteString(fmt.Sprintf("  Score 5 = %s\n", skill.ScoringAnchors[5]))
			prompt.WriteString(fmt.Sprintf("  Score 3 = %s\n", skill.ScoringAnchors[3]))
			prompt.WriteString(fmt.Sprintf("  Score 1 = %s\n", skill.ScoringAnchors[1]))
		}
	}

	candidateName := sess.CandidateName
	if candidateName == "" {
		candidateName = "Not yet collected"
	}
	skillsCovered := "None yet"
	if len(sess.SkillsDiscussed) > 0 {
		skillsCovered = strings.Join(sess.SkillsDiscussed, ", ")
	}
	currentFocus := sess.CurrentSkill
	if currentFocus == "" {
		currentFocus = "None"
	}

	prompt.WriteString("\nCURRENT INTERVIEW STATE:\n")
	prompt.WriteString(fmt.Sprintf("- Phase: %s\n", sess.Phase))
	prompt.WriteString(fmt.Sprintf("- Candidate Name: %s\n", candidateName))
	prompt.WriteString(fmt.Sprintf("- Turn Count: %d / ~%d max\n", sess.TurnCount, cfg.Interview.MaxTurns))
	prompt.WriteString(fmt.Sprintf("- Competencies Covered: %s\n", skillsCovered))
	prompt.WriteString(fmt.Sprintf("- Current Focus: %s\n\n", currentFocus))

	prompt.WriteString(`CRITICAL RULES:
1. Ask ONE question at a time - never multiple questions
2. Keep responses concise (2-4 sentences max)
3. Briefly acknowledge good answers, then move on
4. When answers are VAGUE, probe for specifics:
   - "Can you give me specific numbers or metrics?"
   - "What tools did you actually use?"
   - "Walk me through the exact steps YOU took"
   - "What was the timeline?"
   - "What happened as a result?"
5. Use STAR format prompts when asking for examples:
   - Situation: What was the context?
   - Task: What were you trying to accomplish?
   - Action: What did YOU specifically do?
   - Result: What happened?
6. For PRACTICAL EXERCISES: Give brief feedback, then ask them to improve
7. Never reveal scoring during the interview
8. If asked about salary, say the team will discuss that in later stages
9. Keep pace moving - aim for 20 minutes total
10. Be encouraging - this is junior screening, not senior grilling
`)

	for _, instruction := range cfg.AI.AdditionalInstructions {
		prompt.WriteString(fmt.Sprintf("- %s\n", instruction))
	}

	return prompt.String()
}

// buildPhaseInstructions создает инструкции генератору для текущей фазы
func (e *Engine) buildPhaseInstructions(sess *session.Session) string {
	switch sess.Phase {
	case session.PhaseIntroduction:
		return e.introductionInstructions()
	case session.PhaseCollectInfo:
		return e.collectInfoInstructions(sess)
	case session.PhaseSkillsAssessment:
		return e.skillsInstructions(sess)
	case session.PhaseClosing:
		return e.closingInstructions(sess)
	}
	return ""
}

func (e *Engine) introductionInstructions() string {
	var prompt strings.Builder
	prompt.WriteString("\nCURRENT PHASE: Introduction\n")
	prompt.WriteString("Your task: Greet the candidate warmly and confirm they're ready to begin.\n")
	prompt.WriteString("Opening message to use:\n")
	prompt.WriteString(e.cfg.ConversationFlow.Introduction.Message)
	prompt.WriteString("\n\nAfter they confirm, move to collecting their name.")
	return prompt.String()
}

func (e *Engine) collectInfoInstructions(sess *session.Session) string {
	needed := outstandingFields(e.collectOrder(), sess.CollectedInfo)

	if len(needed) == 0 {
		return "\nCURRENT PHASE: Transition to Interview\n" +
			"All required info collected. Transition smoothly with a brief intro like:\n" +
			"\"Great! Let's jump in.\" Then start with the first competency area."
	}

	nextField := needed[0]
	question := fmt.Sprintf("Please provide your %s.", nextField)
	for _, field := range e.cfg.RequiredInfo {
		if field.Field == nextField && field.Question != "" {
			question = field.Question
			break
		}
	}

	var prompt strings.Builder
	prompt.WriteString("\nCURRENT PHASE: Collecting Required Information\n")
	prompt.WriteString("You MUST ask for each of these in order. Do not skip any.\n")
	prompt.WriteString(fmt.Sprintf("Still need to collect: %s\n", strings.Join(needed, ", ")))
	prompt.WriteString(fmt.Sprintf("Next to collect: %s\n", nextField))
	prompt.WriteString(fmt.Sprintf("Question to ask (ask exactly this): %q\n", question))
	return prompt.String()
}

func (e *Engine) skillsInstructions(sess *session.Session) string {
	cfg := e.cfg

	var undiscussed []string
	for _, id := range cfg.Skills.Order {
		if !sess.HasDiscussed(id) {
			undiscussed = append(undiscussed, id)
		}
	}
	undiscussedLabel := "All covered!"
	if len(undiscussed) > 0 {
		undiscussedLabel = strings.Join(undiscussed, ", ")
	}

	currentSkill, _ := cfg.Skills.Get(sess.CurrentSkill)
	currentName := currentSkill.Name
	if currentName == "" {
		currentName = "Pick one to start"
	}

	var prompt strings.Builder
	prompt.WriteString("\nCURRENT PHASE: Skills Assessment\n\n")
	prompt.WriteString(fmt.Sprintf("COMPETENCIES NOT YET DISCUSSED: %s\n", undiscussedLabel))
	prompt.WriteString(fmt.Sprintf("CURRENT COMPETENCY: %s\n", currentName))
	prompt.WriteString(fmt.Sprintf("Questions asked on current: %d\n", sess.QuestionsPerSkill[sess.CurrentSkill]))
	prompt.WriteString(fmt.Sprintf("Description: %s\n\n", currentSkill.Description))

	if intro := currentSkill.Questions.ScenarioIntro; intro != "" {
		prompt.WriteString(fmt.Sprintf("SCENARIO INTRO (use before questions): %s\n\n", intro))
	}

	prompt.WriteString("SUGGESTED QUESTIONS FOR THIS COMPETENCY:\n")
	suggested := currentSkill.Questions.All()
	if len(suggested) > 3 {
		suggested = suggested[:3]
	}
	for _, question := range suggested {
		prompt.WriteString(fmt.Sprintf("- %s", question.Question))
		if question.Followup != "" {
			prompt.WriteString(fmt.Sprintf(" [Follow-up: %s]", question.Followup))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nREMEMBER:\n")
	prompt.WriteString("- Ask for SPECIFICS if answers are vague\n")
	prompt.WriteString("- Use STAR format: Situation, Task, Action, Result\n")
	prompt.WriteString("- For practical exercises: Give brief feedback, ask them to improve\n")
	prompt.WriteString("- After 2-3 questions on a competency, move to the next\n")
	prompt.WriteString(fmt.Sprintf("- Total competencies: %d | Covered: %d\n", cfg.Skills.Len(), len(sess.SkillsDiscussed)))
	return prompt.String()
}

func (e *Engine) closingInstructions(sess *session.Session) string {
	closing := e.cfg.ConversationFlow.Closing

	if !sess.ClosureAskedQuestions {
		return fmt.Sprintf("\nCURRENT PHASE: Closing - Ask for candidate questions\nAsk: %q\n",
			closing.CandidateQuestionsPrompt)
	}

	return "\nCURRENT PHASE: Closing - Candidate just responded\n" +
		"1. If they ASKED questions: Acknowledge them by referencing what they asked " +
		"(e.g. \"I've noted your questions about [topic X] and [topic Y] - our team will be happy " +
		"to discuss those in the next stages\"). Show you took their questions into consideration. " +
		"You do NOT need to answer the questions, only acknowledge that you understood and noted them.\n" +
		"2. If they declined (no questions): Skip the acknowledgment.\n" +
		"3. Then deliver the closing message:\n\n" +
		e.completionMessage(sess)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
