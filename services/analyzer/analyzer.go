package analyzer

import (
	"context"
	"strings"
)

// Request carries one transcript to analyze along with the context the
// report is written under
type Request struct {
	Transcript  string
	VideoTitle  string
	ChannelName string
	ProgramName string
}

// Analyzer turns a transcript into a markdown briefing report
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// IsErrorReport reports whether a generated report is really an error
// notice. Reports carrying these markers must not be stored.
func IsErrorReport(report string) bool {
	return strings.Contains(report, "분석 오류") || strings.Contains(report, "오류 내용")
}

// CleanMarkdown normalizes a generated report: asterisk bullets become
// dashes and headings get surrounding blank lines
func CleanMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "* ") {
			line = strings.Replace(line, "* ", "- ", 1)
		}

		if strings.HasPrefix(line, "#") && i > 0 && strings.TrimSpace(lines[i-1]) != "" {
			result = append(result, "")
		}
		result = append(result, line)
		if strings.HasPrefix(line, "#") && i < len(lines)-1 && strings.TrimSpace(lines[i+1]) != "" && !strings.HasPrefix(lines[i+1], "#") {
			result = append(result, "")
		}
	}

	return strings.Join(result, "\n")
}
