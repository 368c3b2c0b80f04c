package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridShape is the older channel page generation: tabs wrapping a
// section list whose items sit in a grid of gridVideoRenderer entries
const gridShape = `{
  "contents": {
    "twoColumnBrowseResultsRenderer": {
      "tabs": [
        {"tabRenderer": {"content": {"sectionListRenderer": {"contents": [
          {"itemSectionRenderer": {"contents": [
            {"gridRenderer": {"items": [
              {"gridVideoRenderer": {
                "videoId": "clip111",
                "title": {"runs": [{"text": "테스트"}, {"text": " 클립"}]},
                "publishedTimeText": {"simpleText": "3시간 전"},
                "lengthText": {"simpleText": "3:20"},
                "thumbnailOverlays": [{"thumbnailOverlayTimeStatusRenderer": {"style": "DEFAULT"}}]
              }},
              {"gridVideoRenderer": {
                "videoId": "live111",
                "title": {"runs": [{"text": "테스트 방송"}]},
                "publishedTimeText": {"simpleText": "스트리밍 시간: 2시간 전"},
                "thumbnailOverlays": [{"thumbnailOverlayTimeStatusRenderer": {"style": "LIVE"}}]
              }},
              {"gridVideoRenderer": {
                "videoId": "other11",
                "title": {"runs": [{"text": "무관한 영상"}]},
                "lengthText": {"simpleText": "12:00"}
              }}
            ]}}
          ]}}
        ]}}}}
      ]
    }
  }
}`

// flatShape is a bare sectionListRenderer with flat videoRenderer items,
// one of them marked live through the metadata badge only
const flatShape = `{
  "contents": {
    "sectionListRenderer": {"contents": [
      {"itemSectionRenderer": {"contents": [
        {"videoRenderer": {
          "videoId": "badge11",
          "title": {"runs": [{"text": "모닝 브리핑 생방송"}]},
          "badges": [{"metadataBadgeRenderer": {"style": "BADGE_STYLE_TYPE_LIVE_NOW"}}]
        }},
        {"videoRenderer": {
          "videoId": "norm111",
          "title": {"runs": [{"text": "모닝 브리핑 다시보기"}]},
          "publishedTimeText": {"simpleText": "1일 전"},
          "lengthText": {"simpleText": "1:30:45"}
        }}
      ]}}
    ]}
  }
}`

// richShape is the newer channel page generation built on richGridRenderer
const richShape = `{
  "contents": {
    "twoColumnBrowseResultsRenderer": {
      "tabs": [
        {"tabRenderer": {"content": {"richGridRenderer": {"contents": [
          {"richItemRenderer": {"content": {"videoRenderer": {
            "videoId": "upcm111",
            "title": {"runs": [{"text": "Market Briefing 예고"}]},
            "thumbnailOverlays": [{"thumbnailOverlayTimeStatusRenderer": {"style": "UPCOMING"}}]
          }}}},
          {"richItemRenderer": {"content": {"videoRenderer": {
            "videoId": "rich111",
            "title": {"runs": [{"text": "market briefing 3월 10일"}]},
            "publishedTimeText": {"simpleText": "5시간 전"},
            "lengthText": {"simpleText": "45:00"}
          }}}}
        ]}}}}
      ]
    }
  }
}`

// TestFindVideosWithKeywordGridShape tests the grid listing walk and the
// live-first ordering of the result
func TestFindVideosWithKeywordGridShape(t *testing.T) {
	videos := FindVideosWithKeyword([]byte(gridShape), "테스트")
	require.Len(t, videos, 2)

	// 라이브가 목록 뒤에 있어도 정렬 후 맨 앞에 온다
	assert.Equal(t, "테스트 방송", videos[0].Title)
	assert.True(t, videos[0].IsLive)
	assert.False(t, videos[0].IsUpcoming)
	assert.Equal(t, "live111", videos[0].VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=live111", videos[0].URL)
	assert.Equal(t, "스트리밍 시간: 2시간 전", videos[0].UploadDate)
	assert.Equal(t, "Unknown", videos[0].Length)
	assert.Equal(t, 0, videos[0].Duration)

	assert.Equal(t, "테스트 클립", videos[1].Title)
	assert.False(t, videos[1].IsLive)
	assert.Equal(t, "3:20", videos[1].Length)
	assert.Equal(t, 200, videos[1].Duration)
}

// TestFindVideosWithKeywordFlatShape tests the bare section list shape and
// badge based live detection
func TestFindVideosWithKeywordFlatShape(t *testing.T) {
	videos := FindVideosWithKeyword([]byte(flatShape), "모닝 브리핑")
	require.Len(t, videos, 2)

	assert.Equal(t, "모닝 브리핑 생방송", videos[0].Title)
	assert.True(t, videos[0].IsLive)

	assert.Equal(t, "모닝 브리핑 다시보기", videos[1].Title)
	assert.False(t, videos[1].IsLive)
	assert.Equal(t, 5445, videos[1].Duration)
}

// TestFindVideosWithKeywordRichShape tests the rich grid shape and the
// upcoming overlay
func TestFindVideosWithKeywordRichShape(t *testing.T) {
	// 키워드 매칭은 대소문자를 구분하지 않는다
	videos := FindVideosWithKeyword([]byte(richShape), "MARKET BRIEFING")
	require.Len(t, videos, 2)

	assert.Equal(t, "market briefing 3월 10일", videos[0].Title)
	assert.False(t, videos[0].IsLive)
	assert.False(t, videos[0].IsUpcoming)
	assert.Equal(t, 2700, videos[0].Duration)

	assert.Equal(t, "Market Briefing 예고", videos[1].Title)
	assert.True(t, videos[1].IsUpcoming)
}

// TestFindVideosWithKeywordNoMatch tests that an unmatched keyword yields
// an empty result
func TestFindVideosWithKeywordNoMatch(t *testing.T) {
	videos := FindVideosWithKeyword([]byte(gridShape), "존재하지 않는 키워드")
	assert.Empty(t, videos)
}

// TestFindVideosWithKeywordDegradesGracefully tests that unknown or broken
// payload shapes return an empty result instead of failing
func TestFindVideosWithKeywordDegradesGracefully(t *testing.T) {
	assert.Empty(t, FindVideosWithKeyword([]byte(`{"contents": {}}`), "테스트"))
	assert.Empty(t, FindVideosWithKeyword([]byte(`{"responseContext": {"foo": 1}}`), "테스트"))
	assert.Empty(t, FindVideosWithKeyword([]byte(`not json`), "테스트"))
	assert.Empty(t, FindVideosWithKeyword([]byte(`{"contents": {"twoColumnBrowseResultsRenderer": {"tabs": [{"expandableTabRenderer": {}}]}}}`), "테스트"))
}
