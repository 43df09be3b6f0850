package engine

import (
	"strings"

	"screening-bot/internal/session"
	"screening-bot/internal/validator"
)

// Переходы фазовой машины состояний. Одна функция на фазу,
// движение только вперед: introduction -> collect_info ->
// skills_assessment -> closing -> complete.

// applyReply применяет ответ кандидата к состоянию сессии.
// Флаг валидационной ошибки сбрасывается в начале каждого хода.
func (e *Engine) applyReply(sess *session.Session, userMessage string) {
	sess.LastValidationError = ""

	switch sess.Phase {
	case session.PhaseIntroduction:
		e.handleIntroduction(sess)
	case session.PhaseCollectInfo:
		e.handleCollectInfo(sess, userMessage)
	case session.PhaseSkillsAssessment:
		e.handleSkillsAssessment(sess, userMessage)
	case session.PhaseClosing:
		// Ответ кандидата на "есть ли вопросы?" принимается без валидации;
		// переход в complete происходит после прощальной реплики интервьюера
	}
}

// handleIntroduction: любой ответ переводит к сбору анкеты
func (e *Engine) handleIntroduction(sess *session.Session) {
	sess.Phase = session.PhaseCollectInfo
}

// handleCollectInfo собирает обязательные поля анкеты по одному за ход
func (e *Engine) handleCollectInfo(sess *session.Session, userMessage string) {
	order := e.collectOrder()
	needed := outstandingFields(order, sess.CollectedInfo)

	if len(needed) > 0 {
		msg := strings.TrimSpace(userMessage)
		next := needed[0]

		switch {
		// Когда ждем email, любое сообщение с "@" — это попытка его ввода:
		// валидируем сразу и не двигаемся дальше без корректного адреса
		case next == "email" && strings.Contains(msg, "@"):
			email, ok := validator.ExtractEmail(msg)
			if !ok {
				sess.LastValidationError = "email"
				return
			}
			assignField(sess, "email", email)

		// Когда ждем ссылку на профиль, валидируем любое упоминание linkedin
		case next == "linkedin_url" && strings.Contains(strings.ToLower(msg), "linkedin.com"):
			url, ok := validator.ExtractLinkedInURL(msg)
			if !ok {
				sess.LastValidationError = "linkedin_url"
				return
			}
			assignField(sess, "linkedin_url", url)

		default:
			// Определяем поле по содержимому ответа, а не по ожидаемому порядку
			target := sniffTargetField(msg, needed)

			value := msg
			switch target {
			case "email":
				extracted, ok := validator.ExtractEmail(msg)
				if !ok {
					sess.LastValidationError = "email"
					return
				}
				value = extracted
			case "linkedin_url":
				extracted, ok := validator.ExtractLinkedInURL(msg)
				if !ok {
					sess.LastValidationError = "linkedin_url"
					return
				}
				value = extracted
			}

			assignField(sess, target, value)
		}
	}

	// Анкета собрана полностью — переходим к оценке компетенций
	if len(outstandingFields(order, sess.CollectedInfo)) == 0 {
		sess.Phase = session.PhaseSkillsAssessment
	}
}

// sniffTargetField выбирает поле, на которое похож ответ:
// ссылка на профиль важнее email, имя — когда нет ни того ни другого,
// иначе — следующее ожидаемое поле
func sniffTargetField(msg string, needed []string) string {
	hasLinkedIn := strings.Contains(strings.ToLower(msg), "linkedin.com/in/")
	hasEmail := validator.ContainsEmail(msg)

	switch {
	case hasLinkedIn && containsField(needed, "linkedin_url"):
		return "linkedin_url"
	case hasEmail && containsField(needed, "email"):
		return "email"
	case containsField(needed, "name") && !hasLinkedIn && !strings.Contains(msg, "@"):
		return "name"
	}
	return needed[0]
}

// handleSkillsAssessment записывает ответ по текущей компетенции
// и проверяет готовность к завершающей фазе
func (e *Engine) handleSkillsAssessment(sess *session.Session, userMessage string) {
	if sess.CurrentSkill != "" {
		sess.RecordSkillResponse(sess.CurrentSkill, sess.LastInterviewerQuestion(), userMessage)
	}

	// К закрытию переходим, когда покрыто 70% компетенций
	// и набран настроенный минимум ходов
	total := e.cfg.Skills.Len()
	if float64(len(sess.SkillsDiscussed)) >= float64(total)*0.7 &&
		sess.TurnCount >= e.cfg.Interview.MinResponses {
		sess.Phase = session.PhaseClosing
	}
}

// collectOrder возвращает порядок сбора полей: настроенный порядок,
// дополненный обязательными полями. linkedin_url не может выпасть
// из списка, даже если конфигурация его не упоминает.
func (e *Engine) collectOrder() []string {
	base := e.cfg.ConversationFlow.CollectInfo.Order

	required := make([]string, 0, len(e.cfg.RequiredInfo))
	for _, field := range e.cfg.RequiredInfo {
		required = append(required, field.Field)
	}

	var order []string
	if len(base) > 0 {
		order = append(order, base...)
		for _, field := range required {
			if !containsField(order, field) {
				order = append(order, field)
			}
		}
	} else {
		order = append(order, required...)
	}

	if !containsField(order, "linkedin_url") {
		order = append(order, "linkedin_url")
	}

	return order
}

// assignField записывает принятое значение в анкету и в именованный атрибут
func assignField(sess *session.Session, field, value string) {
	sess.CollectedInfo[field] = value

	switch field {
	case "name":
		sess.CandidateName = value
	case "email":
		sess.CandidateEmail = value
	case "linkedin_url":
		sess.CandidateLinkedIn = value
	case "location":
		sess.CandidateLocation = value
	case "availability":
		sess.CandidateAvailability = value
	}
}

func outstandingFields(order []string, collected map[string]string) []string {
	var needed []string
	for _, field := range order {
		if _, ok := collected[field]; !ok {
			needed = append(needed, field)
		}
	}
	return needed
}

func containsField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
