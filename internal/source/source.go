package source

import (
	"context"
	"io"

	"github.com/Capitan-Parrot/safety-monitor/internal/config"
	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/Capitan-Parrot/safety-monitor/internal/storage"
)

// FrameSource yields frames from one feed. Next returns io.EOF at end of
// stream. Close releases the underlying source.
type FrameSource interface {
	Next(ctx context.Context) (models.Frame, error)
	Close() error
}

// Opener creates the frame source for a feed. Open failure is fatal to that
// feed only.
type Opener func(ctx context.Context, feed config.FeedConfig) (FrameSource, error)

// SliceSource serves a fixed in-memory frame sequence. Used for pre-downloaded
// frame folders and in tests.
type SliceSource struct {
	frames [][]byte
	next   int
}

func NewSliceSource(frames [][]byte) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next(ctx context.Context) (models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}
	if s.next >= len(s.frames) {
		return models.Frame{}, io.EOF
	}
	frame := models.Frame{Index: s.next, Data: s.frames[s.next]}
	s.next++
	return frame, nil
}

func (s *SliceSource) Close() error { return nil }

// MinioOpener opens a feed whose source descriptor is an S3-style folder URL of
// pre-extracted frames.
func MinioOpener(client *storage.Client) Opener {
	return func(ctx context.Context, feed config.FeedConfig) (FrameSource, error) {
		frames, err := client.DownloadFrames(ctx, feed.Source)
		if err != nil {
			return nil, err
		}
		return NewSliceSource(frames), nil
	}
}
