package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpDownloader downloads the best audio stream and transcodes it to mp3
// through yt-dlp's ffmpeg post-processor.
type YtdlpDownloader struct {
	// Proxy is passed to yt-dlp when set.
	Proxy string
}

func (d *YtdlpDownloader) Download(ctx context.Context, source, outputTemplate string) (string, error) {
	cmd := ytdlp.New().
		Format("bestaudio/best").
		DefaultSearch("ytsearch").
		NoPlaylist().
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("192K").
		Output(outputTemplate).
		RestrictFilenames().
		NoCheckCertificates().
		SourceAddress("0.0.0.0").
		NoCacheDir().
		NoSimulate().
		Print("after_move:filepath").
		Quiet().
		NoWarnings().
		IgnoreConfig()

	if d.Proxy != "" {
		cmd.Proxy(d.Proxy)
	}

	res, err := cmd.Run(ctx, source)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return "", fmt.Errorf("running yt-dlp: %w: %s", err, strings.TrimSpace(res.Stderr))
		}
		return "", fmt.Errorf("running yt-dlp: %w", err)
	}

	path := lastLine(res.Stdout)
	if path == "" {
		return "", errors.New("yt-dlp reported no output file")
	}
	return path, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
