package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/argos/internal/contracts"
)

// Client is the uniform capability contract every AI provider implements.
// Submit returns a typed Analysis or an error; raw response text never
// leaves the adapter boundary.
type Client interface {
	ID() string
	Submit(ctx context.Context, req Request) (*Analysis, error)
}

// Request carries the candidate context rendered into the prompt
type Request struct {
	Code         string
	Name         string
	Date         time.Time
	Composite    float64
	FlowScore    float64
	InstScore    float64
	PatternScore float64
	BonusScore   float64
	Close        float64
	ChangePct    float64
	GateLevel    contracts.GateLevel
}

// Analysis is the parsed, validated provider output
type Analysis struct {
	Verdict    contracts.Verdict
	Confidence float64
	Rationale  string
}

// PermanentError marks failures that must not be retried
// (인증 실패, 응답 파싱 불가 등)
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent provider error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err as non-retryable
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err should skip retry
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// systemPersona is the fixed analyst persona shared by all providers
const systemPersona = `You are a senior Korean equities analyst. You evaluate ` +
	`daily trade-signal candidates from the KRX market using price action, ` +
	`investor flow (foreign/institutional net buying), and volatility ` +
	`contraction patterns. You answer strictly in the requested JSON format ` +
	`and never add commentary outside it.`

// BuildPrompt renders the fixed prompt template for one candidate
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this KRX candidate for a swing entry (1-4 week horizon).\n\n")
	fmt.Fprintf(&b, "Instrument: %s (%s)\n", req.Name, req.Code)
	fmt.Fprintf(&b, "Session date: %s\n", req.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Close: %.0f KRW (%+.2f%%)\n", req.Close, req.ChangePct)
	fmt.Fprintf(&b, "Composite score: %.1f/100\n", req.Composite)
	fmt.Fprintf(&b, "  - foreign flow: %.1f/40\n", req.FlowScore)
	fmt.Fprintf(&b, "  - institutional flow: %.1f/30\n", req.InstScore)
	fmt.Fprintf(&b, "  - volatility contraction: %.1f/10\n", req.PatternScore)
	fmt.Fprintf(&b, "  - dual-buying bonus: %.1f\n", req.BonusScore)
	fmt.Fprintf(&b, "Market gate: %s\n\n", req.GateLevel)
	b.WriteString(`Respond with exactly one JSON object: {"verdict": "BUY"|"HOLD"|"SELL", "confidence": 0.0-1.0, "rationale": "<one or two sentences>"}`)
	return b.String()
}

// rawAnalysis is the wire shape every provider must produce
type rawAnalysis struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// stripMarkdownFence removes a surrounding ``` code fence if present.
// 일부 모델은 지시와 무관하게 코드블록으로 감싼다.
func stripMarkdownFence(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// ParseAnalysis converts raw provider text into a validated Analysis.
// Parse failures are permanent: retrying an ill-formatted model answer
// with the identical prompt is not useful.
func ParseAnalysis(text string) (*Analysis, error) {
	clean := stripMarkdownFence(text)

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, Permanent(fmt.Errorf("decode analysis JSON: %w", err))
	}

	verdict, err := normalizeVerdict(raw.Verdict)
	if err != nil {
		return nil, Permanent(err)
	}

	if raw.Confidence < 0 || raw.Confidence > 1 {
		return nil, Permanent(fmt.Errorf("confidence %.3f out of range [0, 1]", raw.Confidence))
	}

	return &Analysis{
		Verdict:    verdict,
		Confidence: raw.Confidence,
		Rationale:  strings.TrimSpace(raw.Rationale),
	}, nil
}

// normalizeVerdict maps the label to the canonical verdict set
func normalizeVerdict(label string) (contracts.Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "BUY", "STRONG BUY", "STRONG_BUY":
		return contracts.VerdictBuy, nil
	case "HOLD", "NEUTRAL", "WAIT":
		return contracts.VerdictHold, nil
	case "SELL", "AVOID", "STRONG SELL", "STRONG_SELL":
		return contracts.VerdictSell, nil
	default:
		return "", fmt.Errorf("unknown verdict label %q", label)
	}
}
