package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
)

type fakeSearcher struct {
	url   string
	err   error
	calls int
}

func (s *fakeSearcher) Search(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.url, s.err
}

// fakeDownloader writes an mp3 next to the output template, optionally
// leaving a partial file and failing.
type fakeDownloader struct {
	mu       sync.Mutex
	sources  []string
	fail     bool
	partial  bool
	noOutput bool
	delay    time.Duration
	active   atomic.Int32
	maxConc  atomic.Int32
}

func (d *fakeDownloader) Download(_ context.Context, source, outputTemplate string) (string, error) {
	n := d.active.Add(1)
	defer d.active.Add(-1)
	for {
		m := d.maxConc.Load()
		if n <= m || d.maxConc.CompareAndSwap(m, n) {
			break
		}
	}

	d.mu.Lock()
	d.sources = append(d.sources, source)
	d.mu.Unlock()

	time.Sleep(d.delay)

	if d.partial {
		_ = os.WriteFile(strings.Replace(outputTemplate, "%(ext)s", "webm.part", 1), []byte("x"), 0600)
	}
	if d.fail {
		return "", errors.New("network down")
	}

	path := strings.Replace(outputTemplate, "%(ext)s", "mp3", 1)
	if d.noOutput {
		return path, nil
	}
	if err := os.WriteFile(path, []byte("ID3"), 0600); err != nil {
		return "", err
	}
	return path, nil
}

func TestNewFetcherCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")

	if _, err := NewFetcher(dir, 1, nil, &fakeDownloader{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory %s to exist, err=%v", dir, err)
	}
}

func TestFetchSearchPhrase(t *testing.T) {
	dir := t.TempDir()
	searcher := &fakeSearcher{url: "https://www.youtube.com/watch?v=abc"}
	downloader := &fakeDownloader{}
	f, _ := NewFetcher(dir, 1, searcher, downloader)

	path, err := f.Fetch(context.Background(), "  song A ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Dir(path) != dir || filepath.Ext(path) != ".mp3" {
		t.Errorf("expected an mp3 inside %s, got %s", dir, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
	if downloader.sources[0] != searcher.url {
		t.Errorf("expected downloader to get the search result, got %q", downloader.sources[0])
	}
}

func TestFetchURLSkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{url: "unused"}
	downloader := &fakeDownloader{}
	f, _ := NewFetcher(t.TempDir(), 1, searcher, downloader)

	if _, err := f.Fetch(context.Background(), "https://youtu.be/xyz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.calls != 0 {
		t.Errorf("expected no search for a URL, got %d calls", searcher.calls)
	}
	if downloader.sources[0] != "https://youtu.be/xyz" {
		t.Errorf("unexpected source %q", downloader.sources[0])
	}
}

func TestFetchSearchFailureFallsBackToQuery(t *testing.T) {
	downloader := &fakeDownloader{}
	f, _ := NewFetcher(t.TempDir(), 1, &fakeSearcher{err: errors.New("quota")}, downloader)

	if _, err := f.Fetch(context.Background(), "song A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if downloader.sources[0] != "song A" {
		t.Errorf("expected raw query fallback, got %q", downloader.sources[0])
	}
}

func TestFetchEmptyQuery(t *testing.T) {
	downloader := &fakeDownloader{}
	f, _ := NewFetcher(t.TempDir(), 1, nil, downloader)

	_, err := f.Fetch(context.Background(), "   ")
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if len(downloader.sources) != 0 {
		t.Error("downloader must not run for an empty query")
	}
}

func TestFetchFailureRemovesPartials(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFetcher(dir, 1, nil, &fakeDownloader{fail: true, partial: true})

	_, err := f.Fetch(context.Background(), "song A")
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no leftovers, found %d entries", len(entries))
	}
}

func TestFetchMissingOutputFile(t *testing.T) {
	f, _ := NewFetcher(t.TempDir(), 1, nil, &fakeDownloader{noOutput: true})

	if _, err := f.Fetch(context.Background(), "song A"); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestFetchUsesUniqueNames(t *testing.T) {
	f, _ := NewFetcher(t.TempDir(), 1, nil, &fakeDownloader{})

	a, _ := f.Fetch(context.Background(), "https://youtu.be/same")
	b, _ := f.Fetch(context.Background(), "https://youtu.be/same")
	if a == b {
		t.Errorf("expected distinct files for repeated fetches, both were %s", a)
	}
}

func TestFetchSingleSlot(t *testing.T) {
	downloader := &fakeDownloader{delay: 20 * time.Millisecond}
	f, _ := NewFetcher(t.TempDir(), 1, nil, downloader)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.Fetch(context.Background(), "https://youtu.be/x")
		}()
	}
	wg.Wait()

	if got := downloader.maxConc.Load(); got != 1 {
		t.Errorf("expected downloads to run one at a time, saw %d concurrently", got)
	}
}

func TestFetchCanceledWhileWaitingForSlot(t *testing.T) {
	f, _ := NewFetcher(t.TempDir(), 1, nil, &fakeDownloader{})
	f.slots <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, "song"); !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrFetch) {
		t.Errorf("expected canceled fetch error, got %v", err)
	}
}

func TestPurgeStale(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFetcher(dir, 1, nil, &fakeDownloader{})

	stale := filepath.Join(dir, uuid.NewString()+".mp3")
	keep := filepath.Join(dir, "notes.txt")
	for _, p := range []string{stale, keep} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := f.PurgeStale(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected stale download to be removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("expected unrelated file to be kept")
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.youtube.com/watch?v=abc", true},
		{"http://example.com/a.mp3", true},
		{"never gonna give you up", false},
		{"ftp://example.com/a.mp3", false},
		{"youtube.com/watch", false},
	}

	for _, test := range tests {
		if got := isURL(test.in); got != test.want {
			t.Errorf("For '%s', expected %v, but got %v", test.in, test.want, got)
		}
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("[info] x\n/downloads/a.mp3\n\n"); got != "/downloads/a.mp3" {
		t.Errorf("unexpected last line %q", got)
	}
	if got := lastLine("  \n"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
