package fetcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Telegram rejects bot uploads above 50 MB.
const maxTelegramSize = 50 * 1024 * 1024

// YouTubeFetcher downloads a YouTube clip to a temp file instead of calling a
// remote extraction API: YouTube serves streams, not direct shareable URLs.
type YouTubeFetcher struct {
	client youtube.Client
}

func NewYouTubeFetcher() *YouTubeFetcher {
	return &YouTubeFetcher{client: youtube.Client{}}
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, link string, kind Kind) (*Asset, error) {
	video, err := f.client.GetVideoContext(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("get video info: %w", err)
	}

	var format *youtube.Format
	var pattern string
	if kind == KindAudio {
		format = pickFormat(video.Formats, "audio/mp4")
		if format == nil {
			return nil, ErrNoAudio
		}
		pattern = "clip-*.m4a"
	} else {
		format = pickFormat(video.Formats.WithAudioChannels(), "video/mp4")
		if format == nil {
			return nil, fmt.Errorf("no suitable mp4 format under %d bytes", maxTelegramSize)
		}
		pattern = "clip-*.mp4"
	}

	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	defer stream.Close()

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, stream); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("download stream: %w", err)
	}

	return &Asset{FilePath: tmp.Name(), Title: video.Title}, nil
}

// pickFormat returns the smallest format of the wanted MIME family that fits
// the upload limit, or nil.
func pickFormat(formats youtube.FormatList, mimePrefix string) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.Contains(f.MimeType, mimePrefix) {
			continue
		}
		if f.ContentLength > maxTelegramSize {
			continue
		}
		if best == nil || (f.ContentLength > 0 && f.ContentLength < best.ContentLength) {
			best = f
		}
	}
	return best
}
