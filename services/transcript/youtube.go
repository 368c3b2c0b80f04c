package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"html"
	"strings"

	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/internal/scraper"
	"hyunsoo718/briefingworker/logger"
	"hyunsoo718/briefingworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

const defaultMaxRetries = 3

// YouTubeService reads captions from the watch page's embedded player
// response and the timedtext track it points at. Korean tracks are
// preferred, manually written ones over auto generated, and any other
// language serves as the last fallback.
type YouTubeService struct {
	watchBase  string
	maxRetries int
	log        *logger.Logger
}

// NewYouTubeService creates a caption service for YouTube videos
func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		watchBase:  "https://www.youtube.com/watch?v=",
		maxRetries: defaultMaxRetries,
		log:        logger.ForTranscript(),
	}
}

type playerResponse struct {
	Captions struct {
		Renderer struct {
			Tracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Get returns the caption text of the video. A video without caption
// tracks yields ErrNotAvailable; transport faults are retried.
func (s *YouTubeService) Get(ctx context.Context, videoID string) (string, error) {
	s.log.Info().Msgf("영상 ID에 대한 자막 가져오기: %s", videoID)

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := helpers.BackoffWait(ctx, attempt-1); err != nil {
				return "", lastErr
			}
			s.log.Warn().Msgf("자막 가져오기 재시도 (시도 %d/%d)", attempt+1, s.maxRetries)
		}

		text, err := s.fetchOnce(ctx, videoID)
		if err == nil {
			return text, nil
		}
		if err == ErrNotAvailable {
			s.log.Info().Msgf("이 영상에는 아직 자막이 업로드되지 않았습니다: %s", videoID)
			return "", err
		}
		lastErr = err
	}

	return "", lastErr
}

func (s *YouTubeService) fetchOnce(ctx context.Context, videoID string) (string, error) {
	reader, err := helpers.FetchPage(ctx, s.watchBase+videoID)
	if err != nil {
		return "", errors.NewTranscript(videoID, "영상 페이지 요청 실패", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", errors.NewTranscript(videoID, "영상 페이지 파싱 실패", err)
	}

	raw, ok := scraper.EmbeddedObject(doc, "ytInitialPlayerResponse")
	if !ok {
		return "", errors.NewTranscript(videoID, "플레이어 응답을 찾을 수 없습니다", nil)
	}

	var parsed playerResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.NewTranscript(videoID, "플레이어 응답 파싱 실패", err)
	}

	track, ok := selectTrack(parsed.Captions.Renderer.Tracks)
	if !ok {
		return "", ErrNotAvailable
	}

	text, err := s.fetchTrack(ctx, track)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNotAvailable
	}

	if track.LanguageCode == "ko" {
		s.log.Info().Msg("한국어 자막을 찾았습니다")
	} else {
		s.log.Info().Msgf("자동 감지 언어(%s)로 자막을 찾았습니다", track.LanguageCode)
	}
	return text, nil
}

func (s *YouTubeService) fetchTrack(ctx context.Context, track captionTrack) (string, error) {
	data, err := helpers.FetchSimply(ctx, track.BaseURL)
	if err != nil {
		return "", errors.NewTranscript(track.LanguageCode, "자막 트랙 요청 실패", err)
	}

	var parsed timedText
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return "", errors.NewTranscript(track.LanguageCode, "자막 트랙 파싱 실패", err)
	}

	parts := make([]string, 0, len(parsed.Texts))
	for _, entry := range parsed.Texts {
		// timedtext escapes entities twice, once for XML and once more
		// inside the text
		cleaned := strings.TrimSpace(html.UnescapeString(entry.Value))
		if cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " "), nil
}

// selectTrack picks the preferred caption track: Korean written by hand,
// then Korean of any kind, then whatever comes first
func selectTrack(tracks []captionTrack) (captionTrack, bool) {
	if len(tracks) == 0 {
		return captionTrack{}, false
	}

	var korean *captionTrack
	for i := range tracks {
		if tracks[i].LanguageCode != "ko" {
			continue
		}
		if tracks[i].Kind != "asr" {
			return tracks[i], true
		}
		if korean == nil {
			korean = &tracks[i]
		}
	}
	if korean != nil {
		return *korean, true
	}
	return tracks[0], true
}
