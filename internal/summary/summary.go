package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/pagediff/internal/cache"
	"github.com/hyperifyio/pagediff/internal/llm"
	"github.com/hyperifyio/pagediff/internal/report"
)

// Summarizer asks an OpenAI-compatible model for a short plain-language
// summary of a change report. Entirely optional: comparisons work without
// it, and callers treat a summary failure as a degraded result, not an
// error in the comparison itself.
type Summarizer struct {
	Client llm.Client
	Cache  *cache.SummaryCache
	Model  string
}

// ErrNotConfigured indicates no model is set up for summaries.
var ErrNotConfigured = errors.New("summarizer not configured")

const systemPrompt = "You summarize website content changes. Given a change report " +
	"with added, removed, and modified text excerpts, reply with a short plain-text " +
	"summary (at most three sentences) of what changed on the page. Do not speculate " +
	"beyond the excerpts."

// Summarize returns a natural-language summary of rep. Responses are cached
// by model and prompt digest so re-running a comparison is free.
func (s *Summarizer) Summarize(ctx context.Context, rep report.Report, archiveURL, liveURL string) (string, error) {
	if s == nil || s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return "", ErrNotConfigured
	}
	if rep.Empty() {
		return "No significant content changes were detected between the two versions.", nil
	}

	user := buildUserMessage(rep, archiveURL, liveURL)

	var key string
	if s.Cache != nil {
		key = cache.KeyFrom(s.Model, systemPrompt+"\n\n"+user)
		if raw, ok, _ := s.Cache.Get(ctx, key); ok {
			var out struct {
				Summary string `json:"summary"`
			}
			if err := json.Unmarshal(raw, &out); err == nil && strings.TrimSpace(out.Summary) != "" {
				return out.Summary, nil
			}
		}
	}

	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("summary call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summary: empty response")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("summary: empty response")
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(struct {
			Summary string `json:"summary"`
		}{Summary: out}); err == nil {
			_ = s.Cache.Save(ctx, key, raw)
		}
	}
	return out, nil
}

func buildUserMessage(rep report.Report, archiveURL, liveURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Archived version: %s\nLive version: %s\n\n", archiveURL, liveURL)
	b.WriteString(rep.Markdown())
	return b.String()
}
