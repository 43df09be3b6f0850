package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"screening-bot/internal/evaluator"
	"screening-bot/internal/session"
)

// Service сохраняет транскрипты и оценки в JSON-файлы.
// Один файл — один артефакт, имя содержит идентификатор сессии.
type Service struct {
	dir string
}

// New создает файловое хранилище результатов
func New(dir string) *Service {
	return &Service{dir: dir}
}

// SaveInterview сохраняет снимок завершенной сессии
func (s *Service) SaveInterview(snapshot session.Snapshot) error {
	filename := fmt.Sprintf("interview_%s.json", snapshot.SessionID)
	return s.save(filename, snapshot)
}

// SaveEvaluation сохраняет оценку кандидата
func (s *Service) SaveEvaluation(eval *evaluator.Evaluation) error {
	filename := fmt.Sprintf("evaluation_%s.json", eval.SessionID)
	return s.save(filename, eval)
}

// LoadEvaluation загружает сохраненную оценку по идентификатору сессии
func (s *Service) LoadEvaluation(sessionID string) (*evaluator.Evaluation, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("evaluation_%s.json", sessionID))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	var eval evaluator.Evaluation
	if err := json.Unmarshal(data, &eval); err != nil {
		return nil, fmt.Errorf("ошибка десериализации JSON: %w", err)
	}

	return &eval, nil
}

// ListInterviews возвращает идентификаторы всех сохраненных интервью
func (s *Service) ListInterviews() ([]string, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", s.dir, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if strings.HasPrefix(name, "interview_") {
			ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, "interview_"), ".json"))
		}
	}

	return ids, nil
}

func (s *Service) save(filename string, payload interface{}) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", s.dir, err)
	}

	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации результата: %w", err)
	}

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", path, err)
	}

	return nil
}
