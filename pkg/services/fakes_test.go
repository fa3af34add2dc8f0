package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dskvich/voicechat-telegram-bot/pkg/repository"
)

type fakeCalls struct {
	mu        sync.Mutex
	calls     []string
	joinErr   error
	leaveErr  error
	pauseErr  error
	resumeErr error

	// When joinStarted is set, Join signals it and waits for joinRelease.
	joinStarted chan struct{}
	joinRelease chan struct{}
}

func (f *fakeCalls) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeCalls) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeCalls) Join(context.Context, int64, string) error {
	f.record("join")
	f.mu.Lock()
	started, release := f.joinStarted, f.joinRelease
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
	return f.joinErr
}

func (f *fakeCalls) Leave(context.Context, int64) error {
	f.record("leave")
	return f.leaveErr
}

func (f *fakeCalls) Pause(context.Context, int64) error {
	f.record("pause")
	return f.pauseErr
}

func (f *fakeCalls) Resume(context.Context, int64) error {
	f.record("resume")
	return f.resumeErr
}

// audioFile creates a downloaded-looking file in a temp dir.
func audioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("ID3"), 0600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func newTestVoiceService(calls *fakeCalls) (*voiceService, SessionRepository) {
	sessions := repository.NewSessionRepository()
	return NewVoiceService(calls, sessions), sessions
}
