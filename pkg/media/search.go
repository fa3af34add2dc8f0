package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppalone/ytsearch"
)

var errNoResults = errors.New("no search results")

// YouTubeSearcher resolves search phrases with the YouTube web search.
type YouTubeSearcher struct{}

func (YouTubeSearcher) Search(ctx context.Context, query string) (string, error) {
	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("searching youtube: %w", err)
	}

	for _, v := range res.Results {
		if v.VideoID != "" {
			return "https://www.youtube.com/watch?v=" + v.VideoID, nil
		}
	}
	return "", errNoResults
}
