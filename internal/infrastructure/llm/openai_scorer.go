package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

const (
	systemPrompt = "You are an expert B2B sales lead qualifier. Rate social media posts for buying intent on a scale of 1-10."

	defaultBatchSize  = 5
	defaultBatchPause = time.Second
)

var (
	scoreExpr     = regexp.MustCompile(`Score:\s*(\d+)`)
	reasoningExpr = regexp.MustCompile(`Score:\s*\d+\s*-\s*(.+)`)
)

// OpenAIScorer implements ports.IntentScorer against an OpenAI-compatible
// chat-completions endpoint. It never returns an error: any call or parse
// failure degrades to score 1 so a provider outage cannot stall the
// pipeline or masquerade as a hot lead.
type OpenAIScorer struct {
	endpoint   string
	model      string
	apiKey     string
	batchSize  int
	batchPause time.Duration
	httpClient *http.Client
}

var _ ports.IntentScorer = (*OpenAIScorer)(nil)

// NewOpenAIScorer builds a scorer from configuration. Batch size and pause
// bound the call rate against the provider.
func NewOpenAIScorer(cfg config.OpenAIConfig, batchSize int, batchPause time.Duration) *OpenAIScorer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if batchPause < 0 {
		batchPause = defaultBatchPause
	}
	return &OpenAIScorer{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		batchSize:  batchSize,
		batchPause: batchPause,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Score rates a single piece of content, clamping the result to [1,10].
func (s *OpenAIScorer) Score(ctx context.Context, content string, platform domain.Platform) (int, string) {
	answer, err := s.complete(ctx, scoringPrompt(content, platform))
	if err != nil {
		return 1, "Error analyzing content"
	}
	return parseAnswer(answer)
}

// ScoreBatch scores candidates in bounded batches, pausing between batches
// to respect provider rate limits. Each candidate degrades independently;
// the output order matches the input.
func (s *OpenAIScorer) ScoreBatch(ctx context.Context, candidates []domain.Candidate) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, len(candidates))

	for start := 0; start < len(candidates); start += s.batchSize {
		end := start + s.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				score, reasoning := s.Score(ctx, candidates[i].Content, candidates[i].Platform)
				scored[i] = domain.ScoredCandidate{
					Candidate: candidates[i],
					Score:     score,
					Reasoning: reasoning,
				}
			}(i)
		}
		wg.Wait()

		if end < len(candidates) && s.batchPause > 0 {
			select {
			case <-time.After(s.batchPause):
			case <-ctx.Done():
				for i := end; i < len(candidates); i++ {
					scored[i] = domain.ScoredCandidate{
						Candidate: candidates[i],
						Score:     1,
						Reasoning: "Error analyzing content",
					}
				}
				return scored
			}
		}
	}

	return scored
}

func (s *OpenAIScorer) complete(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" || s.endpoint == "" || s.model == "" {
		return "", fmt.Errorf("openai scorer misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  100,
		"temperature": 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("score content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func scoringPrompt(content string, platform domain.Platform) string {
	return fmt.Sprintf(`Rate this %s post as a B2B sales lead from 1-10 based on buying intent, urgency, budget indicators, and decision-maker language.

Post content:
%q

Consider these factors:
- Buying intent keywords (looking for, need, want, seeking, shopping for, etc.)
- Urgency indicators (ASAP, urgent, deadline, soon, etc.)
- Budget mentions (budget, price, cost, affordable, expensive, etc.)
- Decision-maker language (I need, we're looking, our company, etc.)
- Problem statements indicating pain points
- Comparison requests (vs, alternative, better than, etc.)

Respond with only a number (1-10) followed by a brief 10-word reasoning.
Format: "Score: X - Brief reasoning here"`, platform, content)
}

// parseAnswer extracts score and reasoning from the model's constrained
// reply, tolerating format drift. Unparsable replies default to score 1.
func parseAnswer(answer string) (int, string) {
	match := scoreExpr.FindStringSubmatch(answer)
	if match == nil {
		return 1, "Unable to analyze content"
	}

	score, err := strconv.Atoi(match[1])
	if err != nil {
		return 1, "Unable to analyze content"
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	reasoning := "Unable to analyze content"
	if m := reasoningExpr.FindStringSubmatch(answer); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	return score, reasoning
}
