package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Консервативные значения на случай неполной конфигурации
const (
	defaultMinResponses = 12
	defaultMaxTurns     = 30
)

// Load загружает конфигурацию интервью из YAML файла
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	// Валидация конфигурации
	err = validateConfig(&config)
	if err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

// validateConfig проверяет корректность конфигурации.
// Ошибкой считается только то, для чего нет безопасного значения по умолчанию.
func validateConfig(config *Config) error {
	if config.Skills.Len() == 0 {
		return fmt.Errorf("должна быть настроена хотя бы одна компетенция")
	}

	for _, id := range config.Skills.Order {
		skill := config.Skills.Items[id]
		if skill.Name == "" {
			return fmt.Errorf("компетенция %s должна иметь name", id)
		}
	}

	if config.ConversationFlow.Introduction.Message == "" {
		return fmt.Errorf("conversation_flow.introduction.message не может быть пустым")
	}

	if config.ConversationFlow.Closing.FinalMessage == "" {
		return fmt.Errorf("conversation_flow.closing.final_message не может быть пустым")
	}

	for i, field := range config.RequiredInfo {
		if field.Field == "" {
			return fmt.Errorf("required_info[%d] должно иметь field", i)
		}
	}

	return nil
}

// applyDefaults подставляет безопасные значения вместо отсутствующих или некорректных
func applyDefaults(config *Config) {
	if config.Interview.MinResponses <= 0 {
		config.Interview.MinResponses = defaultMinResponses
	}

	if config.Interview.MaxTurns <= 0 {
		config.Interview.MaxTurns = defaultMaxTurns
	}

	// Вес вне шкалы 1-5 заменяем консервативной единицей
	for id, skill := range config.Skills.Items {
		if skill.Weight < 1 || skill.Weight > 5 {
			skill.Weight = 1
			config.Skills.Items[id] = skill
		}
	}

	if config.ConversationFlow.Closing.CandidateQuestionsPrompt == "" {
		config.ConversationFlow.Closing.CandidateQuestionsPrompt = "Do you have any questions for us?"
	}
}
