package validator

import (
	"regexp"
	"strings"
)

// Валидация свободного ввода кандидата: email и ссылка на LinkedIn профиль.
// Обе функции чистые и тотальные: канонический результат либо отказ,
// частичного успеха нет.

var (
	// Локальная часть начинается и заканчивается буквой или цифрой,
	// домен содержит точку, TLD — только буквы
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9._%+-]*[a-zA-Z0-9])?@[a-zA-Z0-9](?:[a-zA-Z0-9.-]*[a-zA-Z0-9])?\.[a-zA-Z]{2,}$`)

	// Поиск email-подобной подстроки внутри произвольного текста
	emailSearchPattern = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9._%+-]*@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// Захватываем username вместе с возможным подчеркиванием, чтобы
	// отклонить его целиком: иначе обрезали бы по "_" (user_name -> user)
	linkedinPattern = regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/in/([a-zA-Z0-9\-_]{2,100})/?`)

	// Строгая проверка захваченного username: только буквы, цифры и дефисы
	linkedinUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9\-]{2,100}$`)
)

// ExtractEmail валидирует email из текста.
// Возвращает обрезанный исходный текст без изменений либо отказ.
func ExtractEmail(text string) (string, bool) {
	text = strings.TrimSpace(text)

	// Адрес с пробелами внутри (например "berteloo @ com") отклоняется
	if strings.ContainsAny(text, " \t\r\n") {
		return "", false
	}

	// Очевидно неполный ввод: нет домена или обрывается на @
	if strings.HasSuffix(text, "@") || !strings.Contains(text, "@") {
		return "", false
	}

	if !emailPattern.MatchString(text) {
		return "", false
	}

	at := strings.Index(text, "@")
	local, domain := text[:at], text[at+1:]

	// Две точки подряд в локальной части недопустимы
	if strings.Contains(local, "..") {
		return "", false
	}

	// Домен минимум 4 символа и обязательно с точкой (например "a.co")
	if len(domain) < 4 || !strings.Contains(domain, ".") {
		return "", false
	}

	tld := domain[strings.LastIndex(domain, ".")+1:]
	if len(tld) < 2 || len(tld) > 10 || !isAlpha(tld) {
		return "", false
	}

	return text, true
}

// ContainsEmail сообщает, встречается ли в тексте email-подобная подстрока
func ContainsEmail(text string) bool {
	return emailSearchPattern.MatchString(text)
}

// ExtractLinkedInURL валидирует ссылку на LinkedIn профиль из текста.
// Ссылка может быть внутри длинного сообщения. Возвращает нормализованный
// URL: https:// при отсутствии схемы, без завершающего слеша.
func ExtractLinkedInURL(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if strings.Contains(text, `\`) {
		return "", false
	}

	// Нужен полный путь до профиля, одного linkedin.com недостаточно
	if !strings.Contains(strings.ToLower(text), "linkedin.com/in/") {
		return "", false
	}

	match := linkedinPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	// LinkedIn не допускает подчеркивания в username
	username := match[3]
	if strings.Contains(username, "_") || !linkedinUsernamePattern.MatchString(username) {
		return "", false
	}

	url := strings.TrimRight(match[0], "/")

	if scheme := match[1]; scheme != "" {
		url = strings.ToLower(scheme) + url[len(scheme):]
	} else {
		url = "https://" + url
	}

	return url, true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}
