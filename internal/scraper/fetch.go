package scraper

import (
	"context"
	stderrors "errors"
	"strings"

	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/logger"
	"hyunsoo718/briefingworker/pkg/errors"
	"hyunsoo718/briefingworker/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// defaultMaxRetries bounds the fetch attempts per listing path
const defaultMaxRetries = 3

// ChannelScraper finds the newest keyword-matching video on a channel's
// listing pages. A channel that answered with a rate limit is blocked
// through the cache service until the block expires.
type ChannelScraper struct {
	blocklist  *cache.Blocklist
	maxRetries int
	log        *logger.Logger
}

// NewChannelScraper creates a channel scraper. The blocklist may be nil.
func NewChannelScraper(blocklist *cache.Blocklist) *ChannelScraper {
	return &ChannelScraper{
		blocklist:  blocklist,
		maxRetries: defaultMaxRetries,
		log:        logger.ForScraper(),
	}
}

// FindLatest scrapes the channel listing for the newest video whose
// title contains the keyword. The /streams listing is tried first and
// /videos serves as the fallback; each path gets its own retry budget.
// Listings that fetch fine but hold nothing suitable yield a nil video
// with no error; only transport faults and rate limits are errors.
func (s *ChannelScraper) FindLatest(ctx context.Context, channelURL, keyword string) (*Video, error) {
	s.log.Info().
		Str("url", channelURL).
		Str("keyword", keyword).
		Msg("채널 URL 스크래핑 시작")

	slug := channelSlug(channelURL)
	if s.blocklist.Blocked(slug) {
		return nil, errors.NewRateLimit(keyword, s.blocklist.BlockTime())
	}

	var lastErr error
	for i, listingURL := range listingPaths(channelURL) {
		if i > 0 {
			s.log.Info().Msgf("/streams 실패, /videos로 재시도: %s", listingURL)
		}

		video, err := s.scanListing(ctx, listingURL, keyword, slug)
		if video != nil {
			return video, nil
		}
		if err != nil {
			lastErr = err

			var watchErr *errors.WatchError
			if stderrors.As(err, &watchErr) && watchErr.Type == errors.ErrorTypeRateLimit {
				return nil, err
			}
		}
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			return nil, lastErr
		}
	}

	var watchErr *errors.WatchError
	if stderrors.As(lastErr, &watchErr) && watchErr.Type == errors.ErrorTypeNetwork {
		s.log.Error().Err(lastErr).Msgf("최대 재시도 횟수 초과: %s", channelURL)
		return nil, lastErr
	}

	// 목록은 읽었지만 조건에 맞는 영상이 없는 경우는 오류가 아니다
	s.log.Info().Err(lastErr).Msgf("적합한 영상을 찾지 못했습니다: %s", channelURL)
	return nil, nil
}

// scanListing runs the bounded retry loop against one listing URL
func (s *ChannelScraper) scanListing(ctx context.Context, listingURL, keyword, slug string) (*Video, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := helpers.BackoffWait(ctx, attempt-1); err != nil {
				return nil, lastErr
			}
		}

		s.log.Info().Msgf("채널 페이지 요청 중 (시도 %d/%d)", attempt+1, s.maxRetries)

		reader, err := helpers.FetchPage(ctx, listingURL)
		if err != nil {
			if stderrors.Is(err, helpers.ErrRateLimited) {
				if blockErr := s.blocklist.Block(slug); blockErr != nil {
					s.log.Warn().Err(blockErr).Msg("차단 목록 기록 실패")
				}
				s.log.Warn().Msgf("%s: %d초 동안 더 이상 요청을 보내지 않음", slug, int(s.blocklist.BlockTime().Seconds()))
				return nil, errors.NewRateLimit(keyword, s.blocklist.BlockTime())
			}
			lastErr = errors.NewNetwork(keyword, "채널 페이지 요청 실패", err)
			s.log.Warn().Err(err).Msgf("채널 페이지 요청 실패 (시도 %d/%d)", attempt+1, s.maxRetries)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(reader)
		if err != nil {
			lastErr = errors.NewParsing(keyword, "채널 페이지 문서 파싱 실패", err)
			continue
		}

		data, err := ExtractInitialData(doc)
		if err != nil {
			lastErr = errors.NewParsing(keyword, "초기 데이터 추출 실패", err)
			s.log.Warn().Msgf("YouTube 데이터를 추출할 수 없습니다 (시도 %d/%d)", attempt+1, s.maxRetries)
			continue
		}

		videos := FindVideosWithKeyword(data, keyword)
		if len(videos) == 0 {
			lastErr = errors.NewParsing(keyword, "키워드가 포함된 영상 없음", nil)
			s.log.Warn().Msgf("키워드 '%s'가 포함된 영상을 찾을 수 없습니다 (시도 %d/%d)", keyword, attempt+1, s.maxRetries)
			continue
		}

		if candidate, ok := SelectCandidate(videos); ok {
			s.log.Info().
				Str("status", candidate.StatusText()).
				Msgf("선택된 영상: %s", candidate.Title)
			return &candidate, nil
		}

		lastErr = errors.NewParsing(keyword, "적합한 영상 없음", nil)
		s.log.Warn().Msg("적합한 영상을 찾을 수 없습니다 (모두 5분 이하 또는 없음)")
	}

	return nil, lastErr
}

// listingPaths expands a channel URL into the listing URLs to try, in
// order. A URL that already names a listing path is used as is, except
// that /streams still falls back to /videos.
func listingPaths(channelURL string) []string {
	if strings.Contains(channelURL, "/videos") {
		return []string{channelURL}
	}
	if strings.Contains(channelURL, "/streams") {
		return []string{channelURL, strings.Replace(channelURL, "/streams", "/videos", 1)}
	}

	base := strings.TrimRight(channelURL, "/")
	return []string{base + "/streams", base + "/videos"}
}

// channelSlug derives a short blocklist key from a channel URL, such as
// "@handle" or "channel_UCxxxx"
func channelSlug(channelURL string) string {
	slug, err := helpers.GetSplitPart(channelURL, "/", 3)
	if err != nil || slug == "" {
		return channelURL
	}
	switch slug {
	case "channel", "c", "user":
		if next, err := helpers.GetSplitPart(channelURL, "/", 4); err == nil && next != "" {
			return slug + "_" + next
		}
	}
	return slug
}
