package repository

import (
	"cmp"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
)

// sessionRepository maps a chat to the audio file it is playing.
// Every method is a single critical section.
type sessionRepository struct {
	mu       sync.Mutex
	sessions map[int64]string
}

func NewSessionRepository() *sessionRepository {
	return &sessionRepository{
		sessions: make(map[int64]string),
	}
}

// Put records path for chatID, replacing any previous entry.
// The previous file is not touched.
func (s *sessionRepository) Put(chatID int64, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[chatID] = path
}

// Take removes the entry for chatID and returns its path.
func (s *sessionRepository) Take(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.sessions[chatID]
	if ok {
		delete(s.sessions, chatID)
	}
	return path, ok
}

func (s *sessionRepository) Peek(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.sessions[chatID]
	return path, ok
}

// List returns a snapshot of all sessions ordered by chat ID.
func (s *sessionRepository) List() []domain.PlaybackSession {
	s.mu.Lock()
	sessions := lo.MapToSlice(s.sessions, func(chatID int64, path string) domain.PlaybackSession {
		return domain.PlaybackSession{ChatID: chatID, AudioFilePath: path}
	})
	s.mu.Unlock()

	slices.SortFunc(sessions, func(a, b domain.PlaybackSession) int {
		return cmp.Compare(a.ChatID, b.ChatID)
	})
	return sessions
}
