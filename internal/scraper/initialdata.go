package scraper

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// assignmentMarkers builds the three assignment forms YouTube has used
// for embedding its initial payloads, most specific first.
func assignmentMarkers(name string) []*regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	return []*regexp.Regexp{
		regexp.MustCompile(`var\s+` + quoted + `\s*=\s*\{`),
		regexp.MustCompile(`window\["` + quoted + `"\]\s*=\s*\{`),
		regexp.MustCompile(quoted + `\s*=\s*\{`),
	}
}

// EmbeddedObject extracts the JSON object assigned to the named page
// variable from the document's script tags. The markers are tried in
// order and the first candidate that decodes as JSON wins; anything
// else degrades to a not-found result rather than an error.
func EmbeddedObject(doc *goquery.Document, name string) ([]byte, bool) {
	markers := assignmentMarkers(name)

	var found []byte
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		for _, marker := range markers {
			loc := marker.FindStringIndex(text)
			if loc == nil {
				continue
			}
			// The marker ends on the opening brace of the object
			candidate, ok := balancedObject(text, loc[1]-1)
			if !ok || !json.Valid([]byte(candidate)) {
				continue
			}
			found = []byte(candidate)
			return false
		}
		return true
	})

	return found, found != nil
}

// balancedObject returns the brace-balanced substring starting at the
// opening brace at start. String literals and escapes are respected so
// braces inside JSON strings do not end the scan early.
func balancedObject(text string, start int) (string, bool) {
	if start < 0 || start >= len(text) || text[start] != '{' {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ExtractInitialData pulls the ytInitialData payload out of a channel
// listing page
func ExtractInitialData(doc *goquery.Document) ([]byte, error) {
	data, ok := EmbeddedObject(doc, "ytInitialData")
	if !ok {
		return nil, fmt.Errorf("ytInitialData를 찾을 수 없습니다")
	}
	return data, nil
}
