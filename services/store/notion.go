package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/logger"
	"hyunsoo718/briefingworker/pkg/errors"
)

// Property names of the channel and report databases. The databases
// are Korean, so the schema is too.
const (
	propTitle         = "제목"
	propURL           = "URL"
	propActive        = "활성화"
	propHour          = "시간"
	propChannelName   = "채널명"
	propVideoDate     = "영상 날짜"
	propVideoLength   = "영상 길이"
	propCitationCount = "인용 횟수"
	propPresenters    = "출연자"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"

	// The page API caps children at 100 blocks per request; 90 leaves
	// headroom
	maxBlocksPerRequest = 90
	appendPace          = 500 * time.Millisecond
)

// NotionStore implements Store against the Notion REST API
type NotionStore struct {
	apiKey     string
	channelDB  string
	reportDB   string
	baseURL    string
	maxRetries int
	client     *http.Client
	log        *logger.Logger
}

// NewNotionStore creates a store over the two databases
func NewNotionStore(apiKey, channelDB, reportDB string) *NotionStore {
	return &NotionStore{
		apiKey:     apiKey,
		channelDB:  channelDB,
		reportDB:   reportDB,
		baseURL:    defaultBaseURL,
		maxRetries: 3,
		client:     &http.Client{Timeout: 120 * time.Second},
		log:        logger.ForStore(),
	}
}

// property is the wire shape of a page property, for reads and writes
// alike. Exactly one of the fields is set at a time.
type property struct {
	Title       []richText      `json:"title,omitempty"`
	RichText    []richText      `json:"rich_text,omitempty"`
	URL         *string         `json:"url,omitempty"`
	Checkbox    *bool           `json:"checkbox,omitempty"`
	Number      *float64        `json:"number,omitempty"`
	Select      *selectOption   `json:"select,omitempty"`
	MultiSelect *[]selectOption `json:"multi_select,omitempty"`
	Date        *dateValue      `json:"date,omitempty"`
}

type richText struct {
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type selectOption struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type queryResponse struct {
	Results []page `json:"results"`
}

type queryRequest struct {
	Filter *queryFilter `json:"filter,omitempty"`
}

type queryFilter struct {
	And []filterCondition `json:"and,omitempty"`
}

type filterCondition struct {
	Property string       `json:"property"`
	Date     *dateFilter  `json:"date,omitempty"`
	Title    *titleFilter `json:"title,omitempty"`
}

type dateFilter struct {
	OnOrAfter string `json:"on_or_after"`
}

type titleFilter struct {
	Equals string `json:"equals"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type pageCreate struct {
	Parent     pageParent          `json:"parent"`
	Properties map[string]property `json:"properties"`
	Children   []Block             `json:"children,omitempty"`
}

type pageUpdate struct {
	Properties map[string]property `json:"properties"`
}

type blockAppend struct {
	Children []Block `json:"children"`
}

// do sends one API request with the retry policy of the store: network
// faults back off exponentially, a 429 waits out Retry-After, and any
// other API error fails immediately.
func (s *NotionStore) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewStore("notion", "요청 직렬화 실패", err)
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, errors.NewStore("notion", "요청 생성 실패", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("Notion-Version", notionVersion)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = errors.NewStore("notion", "요청 실패", err)
			s.log.Warn().Err(err).Msgf("Notion 요청 실패 (시도 %d/%d)", attempt+1, s.maxRetries)
			if attempt < s.maxRetries-1 {
				if waitErr := helpers.BackoffWait(ctx, attempt); waitErr != nil {
					return nil, lastErr
				}
			}
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.NewStore("notion", "응답 읽기 실패", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			lastErr = errors.NewStore("notion", "요청 한도 초과", nil)
			if attempt < s.maxRetries-1 {
				s.log.Warn().Msgf("Notion 요청 한도 초과, %s 후 재시도", wait)
				if waitErr := helpers.SleepContext(ctx, wait); waitErr != nil {
					return nil, lastErr
				}
			}
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			s.log.Error().Int("status", resp.StatusCode).Msgf("Notion API 오류: %s", apiErrorMessage(data))
			return nil, errors.NewStore("notion", fmt.Sprintf("API 오류 (HTTP %d): %s", resp.StatusCode, apiErrorMessage(data)), nil)
		}

		return data, nil
	}

	return nil, lastErr
}

// apiErrorMessage pulls the message field out of an API error body
func apiErrorMessage(data []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Message == "" {
		return helpers.TruncateRunes(string(data), 200)
	}
	if parsed.Code != "" {
		return parsed.Code + ": " + parsed.Message
	}
	return parsed.Message
}

func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

func (s *NotionStore) queryDatabase(ctx context.Context, databaseID string, body queryRequest) ([]page, error) {
	data, err := s.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", body)
	if err != nil {
		return nil, err
	}

	var parsed queryResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.NewStore("notion", "쿼리 응답 파싱 실패", err)
	}
	s.log.Debug().Msgf("Notion 데이터베이스에서 %d개 레코드 조회", len(parsed.Results))
	return parsed.Results, nil
}

// QueryChannels returns every row of the channel database. Rows missing
// an hour setting come back with Hour -1; the caller applies defaults.
func (s *NotionStore) QueryChannels(ctx context.Context) ([]Channel, error) {
	pages, err := s.queryDatabase(ctx, s.channelDB, queryRequest{})
	if err != nil {
		return nil, err
	}

	channels := make([]Channel, 0, len(pages))
	for _, p := range pages {
		ch := Channel{PageID: p.ID, Hour: -1}
		if prop, ok := p.Properties[propTitle]; ok {
			ch.Keyword = prop.titleText()
		}
		if prop, ok := p.Properties[propURL]; ok && prop.URL != nil {
			ch.URL = *prop.URL
		}
		if prop, ok := p.Properties[propChannelName]; ok && prop.Select != nil {
			ch.ChannelName = prop.Select.Name
		}
		if prop, ok := p.Properties[propActive]; ok && prop.Checkbox != nil {
			ch.Active = *prop.Checkbox
		}
		if prop, ok := p.Properties[propHour]; ok && prop.Number != nil {
			ch.Hour = int(*prop.Number)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// SetChannelActive flips the activation checkbox of a channel row
func (s *NotionStore) SetChannelActive(ctx context.Context, pageID string, active bool) error {
	update := pageUpdate{Properties: map[string]property{
		propActive: {Checkbox: boolPtr(active)},
	}}
	_, err := s.do(ctx, http.MethodPatch, "/pages/"+pageID, update)
	return err
}

// ResetAllChannels reactivates every channel row one by one. Rows that
// fail to update are logged and skipped.
func (s *NotionStore) ResetAllChannels(ctx context.Context) (int, error) {
	pages, err := s.queryDatabase(ctx, s.channelDB, queryRequest{})
	if err != nil {
		return 0, err
	}
	s.log.Info().Msgf("%d개 채널을 활성화 상태로 초기화합니다", len(pages))

	count := 0
	for _, p := range pages {
		if err := s.SetChannelActive(ctx, p.ID, true); err != nil {
			s.log.Warn().Err(err).Msgf("채널 활성화 실패: %s", p.ID)
			continue
		}
		count++
	}
	s.log.Info().Msgf("%d/%d개 채널 활성화 완료", count, len(pages))
	return count, nil
}

// CreateReport writes a report page with the markdown content as its
// body. Oversized bodies are created in chunks; chunks that fail to
// append are dropped so at least the leading part of the report lands.
func (s *NotionStore) CreateReport(ctx context.Context, report Report, content string) (string, error) {
	blocks := MarkdownBlocks(content)

	length := report.VideoLength
	if length == "" {
		length = "알 수 없음"
	}

	create := pageCreate{
		Parent: pageParent{DatabaseID: s.reportDB},
		Properties: map[string]property{
			propTitle:         {Title: []richText{{Text: &textContent{Content: report.Keyword}}}},
			propURL:           {URL: strPtr(report.URL)},
			propVideoDate:     {Date: &dateValue{Start: report.VideoDate.Format(time.RFC3339)}},
			propChannelName:   {Select: &selectOption{Name: report.ChannelName}},
			propVideoLength:   {RichText: []richText{{Text: &textContent{Content: length}}}},
			propCitationCount: {Number: float64Ptr(0)},
			propPresenters:    {MultiSelect: &[]selectOption{}},
		},
	}

	first := blocks
	var rest []Block
	if len(blocks) > maxBlocksPerRequest {
		s.log.Info().Msgf("블록이 너무 많아 여러 요청으로 나누어 저장합니다. 총 %d개 블록", len(blocks))
		first = blocks[:maxBlocksPerRequest]
		rest = blocks[maxBlocksPerRequest:]
	}
	create.Children = first

	data, err := s.do(ctx, http.MethodPost, "/pages", create)
	if err != nil {
		return "", err
	}
	var created page
	if err := json.Unmarshal(data, &created); err != nil {
		return "", errors.NewStore("notion", "생성 응답 파싱 실패", err)
	}

	for start := 0; start < len(rest); start += maxBlocksPerRequest {
		end := start + maxBlocksPerRequest
		if end > len(rest) {
			end = len(rest)
		}

		part := start/maxBlocksPerRequest + 2
		if err := s.appendBlocks(ctx, created.ID, rest[start:end]); err != nil {
			s.log.Warn().Err(err).Msgf("%d번째 블록 묶음 추가 실패, 계속 진행합니다", part)
			continue
		}
		s.log.Debug().Msgf("%d번째 블록 묶음 추가 완료", part)
		if err := helpers.SleepContext(ctx, appendPace); err != nil {
			break
		}
	}

	return created.ID, nil
}

func (s *NotionStore) appendBlocks(ctx context.Context, pageID string, blocks []Block) error {
	_, err := s.do(ctx, http.MethodPatch, "/blocks/"+pageID+"/children", blockAppend{Children: blocks})
	return err
}

// ReportExistsByURL scans the report database for a page referencing
// the video URL
func (s *NotionStore) ReportExistsByURL(ctx context.Context, videoURL string) (bool, error) {
	pages, err := s.queryDatabase(ctx, s.reportDB, queryRequest{})
	if err != nil {
		return false, err
	}

	for _, p := range pages {
		if prop, ok := p.Properties[propURL]; ok && prop.URL != nil && *prop.URL == videoURL {
			return true, nil
		}
	}
	return false, nil
}

// RecentReportExists checks for a report titled with the keyword on or
// after since, then narrows to the video URL when one is given
func (s *NotionStore) RecentReportExists(ctx context.Context, keyword, videoURL string, since time.Time) (bool, error) {
	body := queryRequest{Filter: &queryFilter{And: []filterCondition{
		{Property: propVideoDate, Date: &dateFilter{OnOrAfter: since.Format(time.RFC3339)}},
		{Property: propTitle, Title: &titleFilter{Equals: keyword}},
	}}}

	pages, err := s.queryDatabase(ctx, s.reportDB, body)
	if err != nil {
		return false, err
	}

	if videoURL == "" {
		return len(pages) > 0, nil
	}
	for _, p := range pages {
		if prop, ok := p.Properties[propURL]; ok && prop.URL != nil && *prop.URL == videoURL {
			return true, nil
		}
	}
	return false, nil
}

func (p property) titleText() string {
	if len(p.Title) == 0 {
		return ""
	}
	return strings.TrimSpace(p.Title[0].PlainText)
}

func boolPtr(b bool) *bool          { return &b }
func strPtr(s string) *string       { return &s }
func float64Ptr(f float64) *float64 { return &f }
