package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
)

type CallsClient interface {
	Join(ctx context.Context, chatID int64, file string) error
	Leave(ctx context.Context, chatID int64) error
	Pause(ctx context.Context, chatID int64) error
	Resume(ctx context.Context, chatID int64) error
}

type SessionRepository interface {
	Put(chatID int64, path string)
	Take(chatID int64) (string, bool)
	Peek(chatID int64) (string, bool)
}

// voiceService sequences voice chat operations and keeps the session
// repository in line with what is actually playing.
type voiceService struct {
	calls    CallsClient
	sessions SessionRepository

	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewVoiceService(calls CallsClient, sessions SessionRepository) *voiceService {
	return &voiceService{
		calls:    calls,
		sessions: sessions,
		locks:    make(map[int64]*chatLock),
	}
}

// lock serializes session changes for one chat. The entry is dropped once
// no caller holds or waits for it.
func (v *voiceService) lock(chatID int64) func() {
	v.mu.Lock()
	l, ok := v.locks[chatID]
	if !ok {
		l = &chatLock{}
		v.locks[chatID] = l
	}
	l.refs++
	v.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		v.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(v.locks, chatID)
		}
		v.mu.Unlock()
	}
}

// Start plays path in the chat's voice session. A session already playing
// in the chat is stopped and its file removed first. The file at path is
// owned by the service from here on: it is removed if joining fails and
// no session is recorded.
func (v *voiceService) Start(ctx context.Context, chatID int64, path string) error {
	unlock := v.lock(chatID)
	defer unlock()

	if _, ok := v.sessions.Peek(chatID); ok {
		slog.InfoContext(ctx, "Replacing active session", "chatID", chatID)
		if err := v.stop(ctx, chatID); err != nil {
			slog.WarnContext(ctx, "Stopping previous session", "chatID", chatID, logger.Err(err))
		}
	}

	if err := v.calls.Join(ctx, chatID, path); err != nil {
		if rmErr := removeFile(path); rmErr != nil {
			slog.ErrorContext(ctx, "Removing unplayed audio file", "path", path, logger.Err(rmErr))
		}
		return fmt.Errorf("%w: %w", domain.ErrVoiceJoin, err)
	}

	v.sessions.Put(chatID, path)
	slog.InfoContext(ctx, "Playback started", "chatID", chatID, "path", path)
	return nil
}

// Stop leaves the chat's voice session and removes its file. Leaving is
// attempted even without a recorded session, since the gateway may still be
// playing after a restart; that case reports no error and deletes nothing.
// Returned errors are best-effort failures: the session is gone either way.
func (v *voiceService) Stop(ctx context.Context, chatID int64) error {
	unlock := v.lock(chatID)
	defer unlock()

	return v.stop(ctx, chatID)
}

func (v *voiceService) stop(ctx context.Context, chatID int64) error {
	leaveErr := v.calls.Leave(ctx, chatID)

	if _, ok := v.sessions.Peek(chatID); !ok {
		if leaveErr != nil {
			slog.DebugContext(ctx, "Leaving voice chat without session", "chatID", chatID, logger.Err(leaveErr))
		}
		return nil
	}

	var result error
	if leaveErr != nil {
		result = multierror.Append(result, fmt.Errorf("%w: leaving: %w", domain.ErrVoiceControl, leaveErr))
	}
	if err := v.cleanup(chatID); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// HandleStreamEnd clears the session of a chat whose audio file finished.
// Events for a file the chat no longer plays are ignored. The platform has
// already closed the voice session, so it is not left again.
func (v *voiceService) HandleStreamEnd(chatID int64, file string) {
	unlock := v.lock(chatID)
	defer unlock()

	if path, ok := v.sessions.Peek(chatID); !ok || path != file {
		slog.Debug("Ignoring stream end for inactive file", "chatID", chatID, "file", file)
		return
	}

	if err := v.cleanup(chatID); err != nil {
		slog.Error("Cleaning up finished stream", "chatID", chatID, logger.Err(err))
	}
}

func (v *voiceService) Pause(ctx context.Context, chatID int64) error {
	if err := v.calls.Pause(ctx, chatID); err != nil {
		return fmt.Errorf("%w: pausing: %w", domain.ErrVoiceControl, err)
	}
	return nil
}

func (v *voiceService) Resume(ctx context.Context, chatID int64) error {
	if err := v.calls.Resume(ctx, chatID); err != nil {
		return fmt.Errorf("%w: resuming: %w", domain.ErrVoiceControl, err)
	}
	return nil
}

// cleanup removes the chat's session and deletes its file. It backs both
// the explicit stop and the stream-end event.
func (v *voiceService) cleanup(chatID int64) error {
	path, ok := v.sessions.Take(chatID)
	if !ok {
		return nil
	}
	if err := removeFile(path); err != nil {
		return fmt.Errorf("removing audio file %s: %w", path, err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
