package store

import (
	"context"
	"time"
)

// Channel is one watched channel row from the channel database.
// Keyword doubles as the program title on captured reports.
type Channel struct {
	PageID      string
	Keyword     string
	URL         string
	ChannelName string
	Hour        int // -1 when the row has no hour setting
	Active      bool
}

// Report carries the properties of a captured briefing page. The page
// body itself is passed separately as markdown.
type Report struct {
	Keyword     string
	URL         string
	VideoDate   time.Time
	ChannelName string
	VideoLength string
}

// Store is the record store behind the watcher: the channel roster on
// one side and the captured briefing reports on the other.
type Store interface {
	// QueryChannels returns all channel rows
	QueryChannels(ctx context.Context) ([]Channel, error)

	// SetChannelActive flips the activation checkbox of one channel
	SetChannelActive(ctx context.Context, pageID string, active bool) error

	// ResetAllChannels reactivates every channel and returns how many
	// rows were updated
	ResetAllChannels(ctx context.Context) (int, error)

	// CreateReport writes a new report page and returns its id
	CreateReport(ctx context.Context, report Report, content string) (string, error)

	// ReportExistsByURL reports whether any report references the video URL
	ReportExistsByURL(ctx context.Context, videoURL string) (bool, error)

	// RecentReportExists reports whether a report with the keyword as its
	// title and the given video URL exists on or after since. An empty
	// videoURL matches on the keyword alone.
	RecentReportExists(ctx context.Context, keyword, videoURL string, since time.Time) (bool, error)
}
