package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"screening-bot/internal/evaluator"
)

// Тип ассоциации "заметка -> контакт" в HubSpot CRM
const noteToContactAssociationTypeID = 202

// Client — минимальный клиент HubSpot CRM v3: поиск и создание
// контактов, прикрепление заметок с результатами интервью
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Contact — контакт CRM в объеме, нужном для синхронизации
type Contact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// Note — созданная заметка CRM
type Note struct {
	ID string `json:"id"`
}

// SyncResult — итог синхронизации оценки с CRM
type SyncResult struct {
	ContactID string `json:"contact_id"`
	NoteID    string `json:"note_id"`
}

// NewClient создает клиент HubSpot
func NewClient(token, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SearchContactByEmail ищет контакт по точному совпадению email.
// Возвращает (nil, nil), когда контакта нет.
func (c *Client) SearchContactByEmail(ctx context.Context, email string) (*Contact, error) {
	payload := map[string]interface{}{
		"filterGroups": []map[string]interface{}{{
			"filters": []map[string]interface{}{{
				"propertyName": "email",
				"operator":     "EQ",
				"value":        email,
			}},
		}},
	}

	var result struct {
		Total   int       `json:"total"`
		Results []Contact `json:"results"`
	}
	if err := c.post(ctx, "/crm/v3/objects/contacts/search", payload, &result); err != nil {
		return nil, fmt.Errorf("ошибка поиска контакта: %w", err)
	}

	if result.Total == 0 || len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// CreateContact создает контакт. Имя разбивается на first/last
// по первому пробелу; город опционален.
func (c *Client) CreateContact(ctx context.Context, name, email, city string) (*Contact, error) {
	firstName := strings.TrimSpace(name)
	lastName := ""
	if idx := strings.Index(firstName, " "); idx > 0 {
		lastName = strings.TrimSpace(firstName[idx+1:])
		firstName = firstName[:idx]
	}

	properties := map[string]string{
		"email":     email,
		"firstname": firstName,
		"lastname":  lastName,
	}
	if city != "" {
		properties["city"] = city
	}

	var contact Contact
	if err := c.post(ctx, "/crm/v3/objects/contacts", map[string]interface{}{"properties": properties}, &contact); err != nil {
		return nil, fmt.Errorf("ошибка создания контакта: %w", err)
	}
	return &contact, nil
}

// CreateNote создает заметку и привязывает ее к контакту
func (c *Client) CreateNote(ctx context.Context, contactID, body string) (*Note, error) {
	payload := map[string]interface{}{
		"properties": map[string]string{
			"hs_timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
			"hs_note_body": body,
		},
		"associations": []map[string]interface{}{{
			"to": map[string]string{"id": contactID},
			"types": []map[string]interface{}{{
				"associationCategory": "HUBSPOT_DEFINED",
				"associationTypeId":   noteToContactAssociationTypeID,
			}},
		}},
	}

	var note Note
	if err := c.post(ctx, "/crm/v3/objects/notes", payload, &note); err != nil {
		return nil, fmt.Errorf("ошибка создания заметки: %w", err)
	}
	return &note, nil
}

// SyncEvaluation отправляет оценку в CRM: находит или создает контакт
// по email кандидата и прикрепляет заметку с результатами
func (c *Client) SyncEvaluation(ctx context.Context, eval *evaluator.Evaluation) (*SyncResult, error) {
	if eval.CandidateEmail == "" {
		return nil, fmt.Errorf("у кандидата не собран email")
	}

	contact, err := c.SearchContactByEmail(ctx, eval.CandidateEmail)
	if err != nil {
		return nil, err
	}

	if contact == nil {
		contact, err = c.CreateContact(ctx, eval.CandidateName, eval.CandidateEmail, "")
		if err != nil {
			return nil, err
		}
		c.logger.Info("контакт создан в HubSpot",
			zap.String("contact_id", contact.ID),
			zap.String("email", eval.CandidateEmail),
		)
	} else {
		c.logger.Info("найден существующий контакт HubSpot",
			zap.String("contact_id", contact.ID),
			zap.String("email", eval.CandidateEmail),
		)
	}

	note, err := c.CreateNote(ctx, contact.ID, FormatEvaluationNote(eval))
	if err != nil {
		return nil, err
	}

	c.logger.Info("оценка синхронизирована с HubSpot",
		zap.String("contact_id", contact.ID),
		zap.String("note_id", note.ID),
	)

	return &SyncResult{ContactID: contact.ID, NoteID: note.ID}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HubSpot API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("error unmarshaling response: %w", err)
		}
	}
	return nil
}
