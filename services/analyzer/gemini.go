package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hyunsoo718/briefingworker/logger"
	"hyunsoo718/briefingworker/pkg/errors"

	"google.golang.org/genai"
)

const (
	// 분당 최대 2개의 요청 허용
	maxConcurrentCalls = 2
	requestInterval    = 60 * time.Second
)

const systemInstruction = `당신은 투자 전문가로서 한국주식 종목 분석을 담당합니다. 주어진 스크립트에서 매수 가치가 있는 종목들과 주의해야 할 종목들을 추출하여 정리해주세요.

다음 지침을 반드시 따르세요:

다음 세 가지 카테고리로 종목들을 분류하세요:
- 강력 추천 종목: 방송에서 적극적으로 매수를 권하거나, "적극 매수", "강력 추천", "꼭 사야 한다" 등의 표현을 사용한 종목
- 관심 종목: 긍정적으로 언급되었거나, "관심 가질만하다", "매력적이다", "기회가 될 수 있다" 등으로 표현된 종목
- 주의 종목: "지금 사면 위험하다", "매도하라", "비중 줄여라", "지금은 때가 아니다" 등으로 언급된 종목

각 카테고리를 대제목(#)으로 구분하고, 그 아래 종목들을 소제목(##)으로 나열하세요.

각 종목에 대해 다음 정보를 포함하세요:
- 언급 이유: 간결하게 1-2문장으로 설명
- 추천/주의 근거: 어떤 표현이나 이유로 추천/주의가 언급되었는지
- 핵심 포인트: 3-5개의 불릿 포인트로 핵심 정보만 요약

중요 규칙:
1. 오직 구체적인 개별 종목만 포함하세요. 종목명을 명확하게 언급하지 않은 섹터, 테마, 업종 등은 절대 포함하지 마세요.
2. 단순히 과거의 매매 성공 사례를 설명하기만 하고 현재 매수/매도 의견이 없는 종목은 제외하세요.
3. 종목명은 정확하게 작성하세요.
4. "화장품주", "건설 관련주" 같은 섹터나 그룹은 포함하지 말고 구체적인 회사명(예: 아모레퍼시픽, 현대건설)만 포함하세요.
5. 특정 카테고리에 해당하는 종목이 없으면 해당 카테고리는 생략하세요.

각 종목별 내용은 간결하게 유지하고, 불필요한 반복을 피하세요.`

// GeminiAnalyzer generates briefing reports with the Gemini API. Calls
// are throttled to the free tier's per-minute request budget.
type GeminiAnalyzer struct {
	client  *genai.Client
	model   string
	limiter *throttle
	log     *logger.Logger
}

// NewGeminiAnalyzer creates an analyzer bound to the given model
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAnalysis("gemini", "클라이언트 생성 실패", err)
	}

	log := logger.ForAnalyzer()
	return &GeminiAnalyzer{
		client:  client,
		model:   model,
		limiter: newThrottle(maxConcurrentCalls, requestInterval, log),
		log:     log,
	}, nil
}

// Analyze runs the stock briefing prompt over the transcript and returns
// the cleaned markdown report
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (string, error) {
	if err := a.limiter.acquire(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	defer a.limiter.release(ctx, start)

	a.log.Info().Msgf("Gemini API 호출 시작: %s", req.VideoTitle)

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0),
		TopP:              genai.Ptr[float32](0.1),
		TopK:              genai.Ptr[float32](64),
		ResponseMIMEType:  "text/plain",
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt(req)), config)
	if err != nil {
		return "", errors.NewAnalysis(req.ProgramName, "Gemini API 호출 실패", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.NewAnalysis(req.ProgramName, "Gemini가 빈 응답을 반환했습니다", nil)
	}

	if IsErrorReport(text) {
		a.log.Error().Msg("Gemini 분석 오류 발생")
		return text, nil
	}
	a.log.Info().Msg("Gemini 분석 완료")

	if !strings.HasPrefix(text, "# ") {
		text = fmt.Sprintf("# %s - 주식 종목 분석 보고서\n\n", req.ProgramName) + text
	}
	return CleanMarkdown(text), nil
}

func prompt(req Request) string {
	return fmt.Sprintf(`# 주식 종목 분석 요청

제목: %s
채널: %s
프로그램명: %s

스크립트 내용:
%s`, req.VideoTitle, req.ChannelName, req.ProgramName, req.Transcript)
}
