package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config представляет конфигурацию скрининг-интервью
type Config struct {
	Company          CompanyConfig          `yaml:"company"`
	Role             RoleConfig             `yaml:"role"`
	Interview        InterviewConfig        `yaml:"interview"`
	AI               AIDirectives           `yaml:"ai_config"`
	Skills           SkillSet               `yaml:"skills"`
	RequiredInfo     []RequiredField        `yaml:"required_info"`
	ConversationFlow ConversationFlow       `yaml:"conversation_flow"`
	ScoringRubric    map[int]RubricEntry    `yaml:"scoring_rubric"`
	Recommendations  Recommendations        `yaml:"recommendations"`
	FollowUp         FollowUpInterviewGuide `yaml:"follow_up_interview"`
}

// CompanyConfig содержит данные о компании для промптов
type CompanyConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// RoleConfig описывает вакансию, по которой проводится скрининг
type RoleConfig struct {
	Title   string `yaml:"title"`
	Context string `yaml:"context"`
}

// InterviewConfig содержит общие настройки интервью
type InterviewConfig struct {
	Personality  Personality `yaml:"personality"`
	Principles   []string    `yaml:"principles"`
	RedFlags     []string    `yaml:"red_flags"`
	MinResponses int         `yaml:"min_responses"`
	MaxTurns     int         `yaml:"max_turns"`
}

// Personality задает образ интервьюера
type Personality struct {
	Name       string   `yaml:"name"`
	Tone       string   `yaml:"tone"`
	Style      string   `yaml:"style"`
	Guidelines []string `yaml:"guidelines"`
}

// AIDirectives содержит параметры генерации и дополнительные инструкции
type AIDirectives struct {
	Model                  string   `yaml:"model"`
	Temperature            float32  `yaml:"temperature"`
	MaxTokens              int      `yaml:"max_tokens"`
	SystemContext          string   `yaml:"system_context"`
	AdditionalInstructions []string `yaml:"additional_instructions"`
}

// Skill представляет одну оцениваемую компетенцию
type Skill struct {
	Name           string         `yaml:"name"`
	Weight         int            `yaml:"weight"`
	Description    string         `yaml:"description"`
	KeyIndicators  []string       `yaml:"key_indicators"`
	RedFlags       []string       `yaml:"red_flags"`
	ScoringAnchors map[int]string `yaml:"scoring_anchors"`
	Questions      SkillQuestions `yaml:"questions"`
}

// SkillQuestions группирует заготовленные вопросы компетенции
type SkillQuestions struct {
	Warmup        []SkillQuestion `yaml:"warmup"`
	Core          []SkillQuestion `yaml:"core"`
	Exercise      []SkillQuestion `yaml:"exercise"`
	ScenarioIntro string          `yaml:"scenario_intro"`
}

// All возвращает вопросы компетенции в порядке warmup -> core -> exercise
func (q SkillQuestions) All() []SkillQuestion {
	all := make([]SkillQuestion, 0, len(q.Warmup)+len(q.Core)+len(q.Exercise))
	all = append(all, q.Warmup...)
	all = append(all, q.Core...)
	all = append(all, q.Exercise...)
	return all
}

// SkillQuestion — заготовленный вопрос с опциональным уточнением.
// В YAML допускается и строка, и отображение {question, followup}.
type SkillQuestion struct {
	Question string `yaml:"question"`
	Followup string `yaml:"followup"`
}

// UnmarshalYAML принимает вопрос в виде строки или отображения
func (q *SkillQuestion) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&q.Question)
	}

	type plain SkillQuestion
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*q = SkillQuestion(p)
	return nil
}

// SkillSet хранит компетенции вместе со стабильным порядком из YAML.
// Порядок нужен селектору компетенций для детерминированного разрешения ничьих.
type SkillSet struct {
	Order []string
	Items map[string]Skill
}

// UnmarshalYAML разбирает отображение компетенций, сохраняя порядок ключей
func (s *SkillSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("skills должен быть YAML-отображением")
	}

	s.Items = make(map[string]Skill, len(node.Content)/2)
	s.Order = make([]string, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		var id string
		if err := node.Content[i].Decode(&id); err != nil {
			return fmt.Errorf("ошибка разбора идентификатора компетенции: %w", err)
		}

		var skill Skill
		if err := node.Content[i+1].Decode(&skill); err != nil {
			return fmt.Errorf("ошибка разбора компетенции %s: %w", id, err)
		}

		s.Order = append(s.Order, id)
		s.Items[id] = skill
	}

	return nil
}

// Len возвращает количество компетенций
func (s *SkillSet) Len() int {
	return len(s.Order)
}

// Get возвращает компетенцию по идентификатору
func (s *SkillSet) Get(id string) (Skill, bool) {
	skill, ok := s.Items[id]
	return skill, ok
}

// Weight возвращает вес компетенции; для неизвестной или некорректной — консервативный вес 1
func (s *SkillSet) Weight(id string) int {
	if skill, ok := s.Items[id]; ok && skill.Weight >= 1 && skill.Weight <= 5 {
		return skill.Weight
	}
	return 1
}

// RequiredField описывает обязательное поле анкеты и вопрос для его сбора
type RequiredField struct {
	Field    string `yaml:"field"`
	Question string `yaml:"question"`
}

// ConversationFlow содержит сценарные тексты фаз интервью
type ConversationFlow struct {
	Introduction IntroductionFlow `yaml:"introduction"`
	CollectInfo  CollectInfoFlow  `yaml:"collect_info"`
	Closing      ClosingFlow      `yaml:"closing"`
}

// IntroductionFlow содержит приветственное сообщение
type IntroductionFlow struct {
	Message string `yaml:"message"`
}

// CollectInfoFlow задает порядок сбора обязательных полей
type CollectInfoFlow struct {
	Order []string `yaml:"order"`
}

// ClosingFlow содержит тексты завершающей фазы.
// FinalMessage поддерживает подстановку {name}.
type ClosingFlow struct {
	CandidateQuestionsPrompt string `yaml:"candidate_questions_prompt"`
	FinalMessage             string `yaml:"final_message"`
}

// RubricEntry описывает один балл рубрики оценивания
type RubricEntry struct {
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// RecommendationTier описывает один уровень рекомендации с порогом
type RecommendationTier struct {
	MinWeightedScore float64 `yaml:"min_weighted_score"`
	Label            string  `yaml:"label"`
	Description      string  `yaml:"description"`
}

// Recommendations содержит лестницу уровней рекомендации.
// Ключи "yes"/"no" в YAML-файле должны быть в кавычках, иначе
// старые парсеры превращают их в булевы значения.
type Recommendations struct {
	StrongYes *RecommendationTier `yaml:"strong_yes"`
	Yes       *RecommendationTier `yaml:"yes"`
	Maybe     *RecommendationTier `yaml:"maybe"`
	No        *RecommendationTier `yaml:"no"`
}

// Empty сообщает, что лестница рекомендаций не настроена вовсе
func (r Recommendations) Empty() bool {
	return r.StrongYes == nil && r.Yes == nil && r.Maybe == nil && r.No == nil
}

// FollowUpInterviewGuide содержит указания для повторного интервью
type FollowUpInterviewGuide struct {
	InterviewerGuidelines []string `yaml:"interviewer_guidelines"`
}
