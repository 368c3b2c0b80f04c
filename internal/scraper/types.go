package scraper

// Video is one listing entry that matched the channel keyword
type Video struct {
	Title      string `json:"title"`
	VideoID    string `json:"video_id"`
	URL        string `json:"url"`
	UploadDate string `json:"upload_date"`
	IsUpcoming bool   `json:"is_upcoming"`
	IsLive     bool   `json:"is_live"`
	Length     string `json:"video_length"`
	Duration   int    `json:"duration_seconds"`
}

// rank orders videos for selection: live first, then normal uploads,
// then upcoming premieres
func (v Video) rank() int {
	switch {
	case v.IsLive:
		return -1
	case v.IsUpcoming:
		return 1
	default:
		return 0
	}
}

// StatusText returns a short Korean status label for logging
func (v Video) StatusText() string {
	switch {
	case v.IsLive:
		return "라이브 중"
	case v.IsUpcoming:
		return "예정됨"
	default:
		return "일반"
	}
}
