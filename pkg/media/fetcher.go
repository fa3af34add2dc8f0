package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
)

// Searcher resolves a free-text query to the URL of its first result.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Downloader fetches source into outputTemplate and returns the final file path.
// outputTemplate carries a yt-dlp style "%(ext)s" placeholder.
type Downloader interface {
	Download(ctx context.Context, source, outputTemplate string) (string, error)
}

type fetcher struct {
	dir        string
	searcher   Searcher
	downloader Downloader
	slots      chan struct{}
}

// NewFetcher creates the download directory if needed. slots bounds the
// number of concurrent downloads; values below one mean one.
func NewFetcher(dir string, slots int, searcher Searcher, downloader Downloader) (*fetcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating downloads directory '%s': %w", dir, err)
	}
	if slots < 1 {
		slots = 1
	}

	return &fetcher{
		dir:        dir,
		searcher:   searcher,
		downloader: downloader,
		slots:      make(chan struct{}, slots),
	}, nil
}

// Fetch resolves query and downloads it as an mp3 into the download directory.
// Any failure is terminal for the call, wraps domain.ErrFetch and leaves no
// file behind.
func (f *fetcher) Fetch(ctx context.Context, query string) (string, error) {
	path, err := f.fetch(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	return path, nil
}

func (f *fetcher) fetch(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("empty query")
	}

	select {
	case f.slots <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for download slot: %w", ctx.Err())
	}
	defer func() { <-f.slots }()

	source := f.resolve(ctx, query)

	name := uuid.NewString()
	slog.InfoContext(ctx, "Downloading audio", "query", query, "source", source, "name", name)

	path, err := f.downloader.Download(ctx, source, filepath.Join(f.dir, name+".%(ext)s"))
	if err != nil {
		f.removePartials(ctx, name)
		return "", fmt.Errorf("downloading '%s': %w", source, err)
	}

	if _, err := os.Stat(path); err != nil {
		f.removePartials(ctx, name)
		return "", fmt.Errorf("checking downloaded file: %w", err)
	}

	slog.InfoContext(ctx, "Audio downloaded", "path", path)
	return path, nil
}

// resolve turns a search phrase into a media URL. Without a searcher, or if
// it fails, the phrase is handed to the downloader's own search.
func (f *fetcher) resolve(ctx context.Context, query string) string {
	if isURL(query) || f.searcher == nil {
		return query
	}

	source, err := f.searcher.Search(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "Search failed, falling back to downloader search", "query", query, logger.Err(err))
		return query
	}
	return source
}

func (f *fetcher) removePartials(ctx context.Context, name string) {
	matches, err := filepath.Glob(filepath.Join(f.dir, name+"*"))
	if err != nil {
		slog.ErrorContext(ctx, "Listing partial downloads", logger.Err(err))
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			slog.ErrorContext(ctx, "Removing partial download", "path", m, logger.Err(err))
		}
	}
}

// PurgeStale deletes downloads left by a previous process. Only files named
// by this fetcher are touched.
func (f *fetcher) PurgeStale(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("reading downloads directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if _, err := uuid.Parse(strings.SplitN(name, ".", 2)[0]); err != nil {
			continue
		}
		path := filepath.Join(f.dir, name)
		if err := os.Remove(path); err != nil {
			slog.WarnContext(ctx, "Removing stale download", "path", path, logger.Err(err))
			continue
		}
		removed++
	}
	return removed, nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
