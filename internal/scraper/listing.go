package scraper

import (
	"encoding/json"
	"sort"
	"strings"

	"hyunsoo718/briefingworker/internal/timetext"
	"hyunsoo718/briefingworker/logger"
)

// The subset of the ytInitialData tree the listing walk touches.
// YouTube serves one of three container shapes depending on the page
// generation; every field is optional and decodes to its zero value
// when absent.
type initialData struct {
	Contents struct {
		TwoColumnBrowseResultsRenderer *struct {
			Tabs []tab `json:"tabs"`
		} `json:"twoColumnBrowseResultsRenderer"`
		SectionListRenderer *sectionListRenderer `json:"sectionListRenderer"`
	} `json:"contents"`
}

type tab struct {
	TabRenderer *tabRenderer `json:"tabRenderer"`
}

type tabRenderer struct {
	Content tabContent `json:"content"`
}

type tabContent struct {
	SectionListRenderer *sectionListRenderer `json:"sectionListRenderer"`
	RichGridRenderer    *richGridRenderer    `json:"richGridRenderer"`
}

type sectionListRenderer struct {
	Contents []struct {
		ItemSectionRenderer *struct {
			Contents []struct {
				GridRenderer *struct {
					Items []struct {
						GridVideoRenderer *videoRenderer `json:"gridVideoRenderer"`
					} `json:"items"`
				} `json:"gridRenderer"`
				VideoRenderer *videoRenderer `json:"videoRenderer"`
			} `json:"contents"`
		} `json:"itemSectionRenderer"`
	} `json:"contents"`
}

type richGridRenderer struct {
	Contents []struct {
		RichItemRenderer *struct {
			Content struct {
				VideoRenderer *videoRenderer `json:"videoRenderer"`
			} `json:"content"`
		} `json:"richItemRenderer"`
	} `json:"contents"`
}

type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
	PublishedTimeText struct {
		SimpleText string `json:"simpleText"`
	} `json:"publishedTimeText"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
	Badges []struct {
		MetadataBadgeRenderer *struct {
			Style string `json:"style"`
		} `json:"metadataBadgeRenderer"`
	} `json:"badges"`
	ThumbnailOverlays []struct {
		ThumbnailOverlayTimeStatusRenderer *struct {
			Style string `json:"style"`
		} `json:"thumbnailOverlayTimeStatusRenderer"`
	} `json:"thumbnailOverlays"`
}

// FindVideosWithKeyword walks the initial data payload and collects the
// listing entries whose title contains the keyword, case-insensitively.
// The result is sorted live first, then normal uploads, then upcoming,
// keeping the listing order within each class.
func FindVideosWithKeyword(data []byte, keyword string) []Video {
	log := logger.ForScraper()

	var parsed initialData
	if err := json.Unmarshal(data, &parsed); err != nil {
		log.Warn().Err(err).Msg("초기 데이터 구조를 해석할 수 없습니다")
		return nil
	}

	tabs := tabsFromContents(&parsed)
	if len(tabs) == 0 {
		log.Warn().Msg("탭 렌더러를 찾을 수 없습니다")
		return nil
	}

	var videos []Video
	for _, t := range tabs {
		if t.TabRenderer == nil {
			continue
		}
		content := t.TabRenderer.Content

		switch {
		case content.SectionListRenderer != nil:
			videos = append(videos, videosFromSectionList(content.SectionListRenderer, keyword)...)
		case content.RichGridRenderer != nil:
			videos = append(videos, videosFromRichGrid(content.RichGridRenderer, keyword)...)
		}
	}

	for _, v := range videos {
		log.Info().
			Str("status", v.StatusText()).
			Msgf("매칭된 영상 발견: %s", v.Title)
	}

	// 라이브 > 일반 비디오 > 예정
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].rank() < videos[j].rank()
	})

	return videos
}

// tabsFromContents normalizes the two top-level container shapes into a
// tab list. A bare sectionListRenderer is wrapped as a single synthetic
// tab so the walk below has one shape to deal with.
func tabsFromContents(parsed *initialData) []tab {
	if r := parsed.Contents.TwoColumnBrowseResultsRenderer; r != nil {
		return r.Tabs
	}
	if s := parsed.Contents.SectionListRenderer; s != nil {
		synthetic := tab{TabRenderer: &tabRenderer{Content: tabContent{SectionListRenderer: s}}}
		return []tab{synthetic}
	}
	return nil
}

// videosFromSectionList handles the sectionListRenderer shape, which
// carries items either as a grid or as a flat video list
func videosFromSectionList(section *sectionListRenderer, keyword string) []Video {
	var videos []Video
	for _, s := range section.Contents {
		if s.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range s.ItemSectionRenderer.Contents {
			switch {
			case item.GridRenderer != nil:
				for _, gridItem := range item.GridRenderer.Items {
					if gridItem.GridVideoRenderer == nil {
						continue
					}
					if v, ok := videoFromGridRenderer(gridItem.GridVideoRenderer, keyword); ok {
						videos = append(videos, v)
					}
				}
			case item.VideoRenderer != nil:
				if v, ok := videoFromVideoRenderer(item.VideoRenderer, keyword); ok {
					videos = append(videos, v)
				}
			}
		}
	}
	return videos
}

// videosFromRichGrid handles the richGridRenderer shape used by newer
// channel pages
func videosFromRichGrid(grid *richGridRenderer, keyword string) []Video {
	var videos []Video
	for _, item := range grid.Contents {
		if item.RichItemRenderer == nil || item.RichItemRenderer.Content.VideoRenderer == nil {
			continue
		}
		if v, ok := videoFromVideoRenderer(item.RichItemRenderer.Content.VideoRenderer, keyword); ok {
			videos = append(videos, v)
		}
	}
	return videos
}

// videoFromGridRenderer normalizes a gridVideoRenderer entry. Grid
// items carry live state only on their thumbnail overlay.
func videoFromGridRenderer(r *videoRenderer, keyword string) (Video, bool) {
	title := joinedTitle(r)
	if !keywordMatches(title, keyword) {
		return Video{}, false
	}

	v := newVideo(r, title)
	v.IsLive, v.IsUpcoming = overlayStatus(r)
	return v, true
}

// videoFromVideoRenderer normalizes a videoRenderer entry, which marks
// live streams with a metadata badge as well as the thumbnail overlay
func videoFromVideoRenderer(r *videoRenderer, keyword string) (Video, bool) {
	title := joinedTitle(r)
	if !keywordMatches(title, keyword) {
		return Video{}, false
	}

	v := newVideo(r, title)
	for _, badge := range r.Badges {
		if badge.MetadataBadgeRenderer != nil && badge.MetadataBadgeRenderer.Style == "BADGE_STYLE_TYPE_LIVE_NOW" {
			v.IsLive = true
		}
	}
	live, upcoming := overlayStatus(r)
	v.IsLive = v.IsLive || live
	v.IsUpcoming = upcoming
	return v, true
}

func newVideo(r *videoRenderer, title string) Video {
	length := "Unknown"
	duration := 0
	if r.LengthText.SimpleText != "" {
		length = r.LengthText.SimpleText
		duration = timetext.ParseDuration(length)
	}

	return Video{
		Title:      title,
		VideoID:    r.VideoID,
		URL:        "https://www.youtube.com/watch?v=" + r.VideoID,
		UploadDate: r.PublishedTimeText.SimpleText,
		Length:     length,
		Duration:   duration,
	}
}

func joinedTitle(r *videoRenderer) string {
	var b strings.Builder
	for _, run := range r.Title.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

func keywordMatches(title, keyword string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(keyword))
}

func overlayStatus(r *videoRenderer) (live, upcoming bool) {
	for _, overlay := range r.ThumbnailOverlays {
		status := overlay.ThumbnailOverlayTimeStatusRenderer
		if status == nil {
			continue
		}
		switch status.Style {
		case "UPCOMING":
			upcoming = true
		case "LIVE":
			live = true
		}
	}
	return live, upcoming
}
