package publisher

import "time"

// CaptureEvent is the payload published after a briefing is captured
// and stored. Consumers use it to react to fresh reports without
// polling the record store.
type CaptureEvent struct {
	Keyword     string    `json:"keyword"`
	ChannelName string    `json:"channel_name"`
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	VideoDate   time.Time `json:"video_date"`
	VideoLength string    `json:"video_length"`
	IsLive      bool      `json:"is_live"`
	PageID      string    `json:"page_id"`
	CapturedAt  time.Time `json:"captured_at"`
}
