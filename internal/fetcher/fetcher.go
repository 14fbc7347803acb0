package fetcher

import (
	"context"
	"errors"
	"os"
)

// Kind selects which track of a clip is wanted.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ErrNoAudio means the source has no separate audio track to extract.
var ErrNoAudio = errors.New("no audio track available")

// Asset is one deliverable media file, either hosted remotely (URL) or
// downloaded to a local temp file (FilePath).
type Asset struct {
	URL      string
	FilePath string
	Title    string
}

// Cleanup removes the local temp file, if any.
func (a *Asset) Cleanup() {
	if a.FilePath != "" {
		os.Remove(a.FilePath)
	}
}

// Fetcher resolves a submitted link into a deliverable asset.
type Fetcher interface {
	Fetch(ctx context.Context, link string, kind Kind) (*Asset, error)
}
