// Package timetext parses the duration and publish time strings that
// appear on YouTube channel listing pages, such as "10:30" or "3일 전".
package timetext

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// KST is the fixed zone every parsed timestamp carries. Korea has no DST.
var KST = time.FixedZone("KST", 9*60*60)

// Now returns the current time in KST
func Now() time.Time {
	return time.Now().In(KST)
}

var (
	numberPattern = regexp.MustCompile(`(\d+)`)
	koreanDate    = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
	englishDate   = regexp.MustCompile(`([A-Za-z]{3})\s*(\d{1,2}),?\s*(\d{4})`)

	englishMonths = map[string]time.Month{
		"Jan": time.January, "Feb": time.February, "Mar": time.March,
		"Apr": time.April, "May": time.May, "Jun": time.June,
		"Jul": time.July, "Aug": time.August, "Sep": time.September,
		"Oct": time.October, "Nov": time.November, "Dec": time.December,
	}
)

// ParseDuration converts a video length text like "10:30" or "1:30:45"
// to seconds. Malformed or negative input returns 0.
func ParseDuration(durationText string) int {
	parts := strings.Split(strings.TrimSpace(durationText), ":")

	var fields []int
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		fields = append(fields, n)
	}

	switch len(fields) {
	case 3: // 시:분:초
		return fields[0]*3600 + fields[1]*60 + fields[2]
	case 2: // 분:초
		return fields[0]*60 + fields[1]
	case 1: // 초
		return fields[0]
	default:
		return 0
	}
}

// ParseUploadDate converts an upload time text such as "3일 전" or
// "5시간 전" to an absolute KST timestamp relative to now. Text that
// matches no known form resolves to now itself, so a missing publish
// time never breaks a capture; callers should log when that happens.
func ParseUploadDate(uploadTimeText string, now time.Time) time.Time {
	now = now.In(KST)

	if uploadTimeText == "" {
		return now
	}

	// 라이브 목록은 "스트리밍 시간:" 접두어를 붙인다
	if strings.Contains(uploadTimeText, "스트리밍 시간:") {
		uploadTimeText = strings.TrimSpace(strings.ReplaceAll(uploadTimeText, "스트리밍 시간:", ""))
	}

	numberMatch := numberPattern.FindStringSubmatch(uploadTimeText)
	if numberMatch == nil {
		return now
	}
	value, _ := strconv.Atoi(numberMatch[1])

	switch {
	case strings.Contains(uploadTimeText, "분 전") || strings.Contains(uploadTimeText, "minutes ago"):
		return now.Add(-time.Duration(value) * time.Minute)
	case strings.Contains(uploadTimeText, "시간 전") || strings.Contains(uploadTimeText, "hours ago"):
		return now.Add(-time.Duration(value) * time.Hour)
	case strings.Contains(uploadTimeText, "일 전") || strings.Contains(uploadTimeText, "days ago"):
		return now.AddDate(0, 0, -value)
	case strings.Contains(uploadTimeText, "주 전") || strings.Contains(uploadTimeText, "weeks ago"):
		return now.AddDate(0, 0, -value*7)
	case strings.Contains(uploadTimeText, "개월 전") || strings.Contains(uploadTimeText, "months ago"):
		return now.AddDate(0, 0, -value*30)
	case strings.Contains(uploadTimeText, "년 전") || strings.Contains(uploadTimeText, "years ago"):
		return now.AddDate(0, 0, -value*365)
	}

	// 직접적인 날짜 형식 처리 (예: "2024년 3월 13일")
	if m := koreanDate.FindStringSubmatch(uploadTimeText); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, KST)
		}
		return now
	}

	// 영어 날짜 형식 처리 (예: "Mar 13, 2024")
	if m := englishDate.FindStringSubmatch(uploadTimeText); m != nil {
		month, ok := englishMonths[m[1]]
		if !ok {
			month = time.January
		}
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if day >= 1 && day <= 31 {
			return time.Date(year, month, day, 0, 0, 0, 0, KST)
		}
		return now
	}

	return now
}
