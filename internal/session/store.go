package session

import "sync"

// Store — потокобезопасное in-memory хранилище сессий.
// Блокировка защищает только карту: сериализацию обработки внутри
// одной сессии обеспечивает блокировка самой сессии.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore создает пустое хранилище сессий
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Get возвращает сессию по идентификатору
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Put сохраняет сессию под её идентификатором
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Remove удаляет сессию
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len возвращает количество сессий
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
