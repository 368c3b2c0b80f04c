package transcript

import (
	"context"
	"errors"
)

// ErrNotAvailable means the video has no usable captions yet. Live and
// freshly ended broadcasts commonly sit in this state for a while, so
// callers treat it as a clean skip rather than a fault.
var ErrNotAvailable = errors.New("자막이 아직 업로드되지 않았습니다")

// Service retrieves the caption text of a video
type Service interface {
	Get(ctx context.Context, videoID string) (string, error)
}
