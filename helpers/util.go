package helpers

import (
	"context"
	"errors"
	"strings"
	"time"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// TruncateRunes shortens s to at most n runes for log previews
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// SleepContext sleeps for the given duration unless the context ends first
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BackoffWait sleeps 2^attempt seconds between retries
func BackoffWait(ctx context.Context, attempt int) error {
	return SleepContext(ctx, time.Duration(1<<attempt)*time.Second)
}
