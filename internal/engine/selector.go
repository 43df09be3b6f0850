package engine

import (
	"screening-bot/internal/config"
	"screening-bot/internal/session"
)

// SelectNextSkill выбирает компетенцию для следующего вопроса.
// Сначала необсужденные по убыванию веса, затем — с наименьшим числом
// заданных вопросов. Ничьи разрешает порядок компетенций из конфигурации,
// поэтому при одинаковом состоянии сессии результат одинаков.
func SelectNextSkill(cfg *config.Config, sess *session.Session) string {
	best := ""
	bestWeight := 0

	for _, id := range cfg.Skills.Order {
		if sess.HasDiscussed(id) {
			continue
		}
		if weight := cfg.Skills.Weight(id); weight > bestWeight {
			best = id
			bestWeight = weight
		}
	}
	if best != "" {
		return best
	}

	// Все обсуждены: берем ту, по которой задано меньше всего вопросов
	bestCount := -1
	for _, id := range cfg.Skills.Order {
		count := sess.QuestionsPerSkill[id]
		if bestCount == -1 || count < bestCount {
			best = id
			bestCount = count
		}
	}

	return best
}
