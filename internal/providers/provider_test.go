package providers

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/internal/contracts"
)

func TestParseAnalysis_PlainJSON(t *testing.T) {
	analysis, err := ParseAnalysis(`{"verdict": "BUY", "confidence": 0.82, "rationale": "strong dual flow"}`)
	require.NoError(t, err)

	assert.Equal(t, contracts.VerdictBuy, analysis.Verdict)
	assert.Equal(t, 0.82, analysis.Confidence)
	assert.Equal(t, "strong dual flow", analysis.Rationale)
}

func TestParseAnalysis_StripsMarkdownFence(t *testing.T) {
	// 일부 모델은 지시를 무시하고 코드블록으로 감싼다
	tests := []string{
		"```json\n{\"verdict\": \"HOLD\", \"confidence\": 0.5, \"rationale\": \"mixed\"}\n```",
		"```\n{\"verdict\": \"HOLD\", \"confidence\": 0.5, \"rationale\": \"mixed\"}\n```",
		"  {\"verdict\": \"HOLD\", \"confidence\": 0.5, \"rationale\": \"mixed\"}  ",
	}

	for _, raw := range tests {
		analysis, err := ParseAnalysis(raw)
		require.NoError(t, err, "input: %q", raw)
		assert.Equal(t, contracts.VerdictHold, analysis.Verdict)
	}
}

func TestParseAnalysis_VerdictLabels(t *testing.T) {
	tests := []struct {
		label string
		want  contracts.Verdict
	}{
		{"BUY", contracts.VerdictBuy},
		{"buy", contracts.VerdictBuy},
		{"STRONG_BUY", contracts.VerdictBuy},
		{"HOLD", contracts.VerdictHold},
		{"neutral", contracts.VerdictHold},
		{"WAIT", contracts.VerdictHold},
		{"SELL", contracts.VerdictSell},
		{"Avoid", contracts.VerdictSell},
	}

	for _, tt := range tests {
		raw := fmt.Sprintf(`{"verdict": %q, "confidence": 0.5, "rationale": "r"}`, tt.label)
		analysis, err := ParseAnalysis(raw)
		require.NoError(t, err, "label %q", tt.label)
		assert.Equal(t, tt.want, analysis.Verdict)
	}
}

func TestParseAnalysis_FailuresArePermanent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "the stock looks great, I would buy it"},
		{"unknown verdict", `{"verdict": "MAYBE", "confidence": 0.5, "rationale": "r"}`},
		{"confidence above 1", `{"verdict": "BUY", "confidence": 1.2, "rationale": "r"}`},
		{"negative confidence", `{"verdict": "BUY", "confidence": -0.1, "rationale": "r"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.raw)
			require.Error(t, err)
			assert.True(t, IsPermanent(err), "파싱 실패 재시도는 무의미")
		})
	}
}

func TestPermanentError_Unwrap(t *testing.T) {
	base := errors.New("bad key")
	wrapped := Permanent(base)

	assert.True(t, IsPermanent(wrapped))
	assert.True(t, errors.Is(wrapped, base))
	assert.False(t, IsPermanent(errors.New("transient")))
	assert.True(t, IsPermanent(fmt.Errorf("submit: %w", wrapped)), "래핑돼도 식별")
}

func TestBuildPrompt_CarriesCandidateContext(t *testing.T) {
	prompt := BuildPrompt(Request{
		Code:      "005930",
		Name:      "삼성전자",
		Date:      time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		Composite: 87.5,
		Close:     70000,
		ChangePct: 3.2,
		GateLevel: contracts.GateGreen,
	})

	assert.True(t, strings.Contains(prompt, "005930"))
	assert.True(t, strings.Contains(prompt, "삼성전자"))
	assert.True(t, strings.Contains(prompt, "2026-08-28"))
	assert.True(t, strings.Contains(prompt, "GREEN"))
	assert.True(t, strings.Contains(prompt, `"verdict"`), "응답 포맷 지시 포함")
}
