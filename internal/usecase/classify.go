package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

// RetryPolicy controls how classification retries malformed model
// output. Delays double between attempts up to MaxDelay; waits abort
// early when the context is canceled.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Wait sleeps the backoff delay before the given retry attempt
// (1-based). Returns the context error if canceled mid-wait.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SchemaParseError reports that the model never produced a valid
// analysis within the retry budget. RawOutput preserves the last
// response verbatim for operator inspection.
type SchemaParseError struct {
	Attempts  int
	RawOutput string
	Err       error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("could not parse model response after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SchemaParseError) Unwrap() error {
	return e.Err
}

const classifySystemPrompt = `You are an expert US immigration attorney and form classifier.
Your job is to analyze a user's immigration situation and identify:
1. What immigration category they fall into (family-based, employment-based, nonimmigrant, humanitarian, naturalization)
2. What specific USCIS forms are most relevant to their situation (e.g. I-485, I-130, N-400)
3. What concrete next steps they should take (e.g. "File Form I-130 with USCIS, including evidence of marriage and proof of spouse's citizenship")
4. A rough timeline estimate for their case (e.g. "12-24 months for green card approval, depending on USCIS workload")

IMPORTANT RULES:
- Only give legal advice if the user explicitly asks for it. Otherwise, focus on explaining the process and forms only.
- Be conservative - if you're not sure about the category or forms, set confidence low and set needs_more_info to true rather than guessing.
- Base your analysis on common USCIS processes and forms, not invented information.
- If the situation involves removal/deportation proceedings and you don't have enough information, always set confidence to 0.2 and recommend they consult an immigration attorney immediately. If you are confident in the solution you may set confidence to 0.8 or higher and tell the user what to do, but also highlight that they should seek legal advice from an attorney immediately.

` + formatInstructions

const formatInstructions = `Respond with a single JSON object and nothing else, matching exactly this schema:
{
  "immigration_category": "one of: family_based, employment_based, nonimmigrant, humanitarian, naturalization, unknown",
  "applicable_forms": ["1 to 5 USCIS forms like 'I-130 (family petition)'"],
  "priority_steps": ["1 to 5 actionable steps starting with verbs"],
  "estimated_timeline": "timeline like '6-12 months' or 'Varies'",
  "confidence": 0.0,
  "needs_more_info": false
}`

// ClassifyUseCase turns a free-text situation description into a
// validated structured analysis, retrying when the model's output
// fails to parse or validate.
type ClassifyUseCase struct {
	llm    port.LLM
	policy RetryPolicy
}

func NewClassifyUseCase(llm port.LLM, policy RetryPolicy) *ClassifyUseCase {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &ClassifyUseCase{llm: llm, policy: policy}
}

func (u *ClassifyUseCase) Classify(ctx context.Context, situation string) (*domain.Analysis, error) {
	prompt := fmt.Sprintf("Please analyse this immigration situation and provide accurate guidance: %s", situation)

	var lastRaw string
	var lastErr error
	for attempt := 1; attempt <= u.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := u.policy.Wait(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		raw, err := u.llm.Complete(ctx, classifySystemPrompt, nil, prompt)
		if err != nil {
			// Transport failure, not a schema problem. Still worth
			// another attempt unless the caller gave up.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastRaw, lastErr = "", err
			continue
		}

		analysis, err := ParseAnalysis(raw)
		if err != nil {
			lastRaw, lastErr = raw, err
			continue
		}
		return analysis, nil
	}

	return nil, &SchemaParseError{
		Attempts:  u.policy.MaxAttempts,
		RawOutput: lastRaw,
		Err:       lastErr,
	}
}

// ParseAnalysis decodes and validates a model response. Code fences and
// prose around the JSON object are tolerated; everything inside it is
// strictly validated.
func ParseAnalysis(raw string) (*domain.Analysis, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if !knownCategory(analysis.Category) {
		return nil, fmt.Errorf("unknown immigration category %q", analysis.Category)
	}
	if n := len(analysis.ApplicableForms); n < 1 || n > 5 {
		return nil, fmt.Errorf("applicable_forms must contain 1 to 5 entries, got %d", n)
	}
	if n := len(analysis.PrioritySteps); n < 1 || n > 5 {
		return nil, fmt.Errorf("priority_steps must contain 1 to 5 entries, got %d", n)
	}
	if analysis.Confidence < 0 || analysis.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range [0, 1]", analysis.Confidence)
	}
	return &analysis, nil
}

// extractJSON returns the first balanced top-level JSON object in text,
// skipping markdown fences and surrounding prose.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
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
				return text[start : i+1]
			}
		}
	}
	return ""
}

func knownCategory(category string) bool {
	for _, c := range domain.KnownCategories {
		if category == c {
			return true
		}
	}
	return false
}
