package news

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

const (
	defaultSummaryModel = openai.GPT4oMini
	summaryPrompt       = "You rewrite market news for a swipe-to-trade card. Reply with one sentence of at most 25 words that states the likely impact on the named country index. No preamble."
)

// Summarizer shortens item summaries with an OpenAI chat model.
type Summarizer struct {
	client *openai.Client
	model  string
}

// NewSummarizer creates a summarizer for apiKey. baseURL may be empty.
func NewSummarizer(apiKey, baseURL, model string) *Summarizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultSummaryModel
	}
	return &Summarizer{client: openai.NewClientWithConfig(cfg), model: model}
}

// Summarize returns a copy of items with shortened summaries. An item whose
// completion fails keeps its original summary.
func (s *Summarizer) Summarize(ctx context.Context, items []types.DerivativeNews) []types.DerivativeNews {
	out := make([]types.DerivativeNews, len(items))
	for i, item := range items {
		out[i] = item
		summary, err := s.summarizeOne(ctx, item)
		if err != nil {
			log.Printf("⚠️  news: summary for %s kept: %v", item.ID, err)
			continue
		}
		out[i].Summary = summary
	}
	return out
}

func (s *Summarizer) summarizeOne(ctx context.Context, item types.DerivativeNews) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summaryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Index: %s\nHeadline: %s\n\n%s", item.Symbol, item.Title, item.Summary)},
		},
		MaxTokens:   80,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("empty completion")
	}
	return summary, nil
}

// SummarizingSource wraps a Source and summarizes what it fetches.
type SummarizingSource struct {
	Source     Source
	Summarizer *Summarizer
}

// Fetch implements Source.
func (s SummarizingSource) Fetch(ctx context.Context) ([]types.DerivativeNews, error) {
	items, err := s.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.Summarizer.Summarize(ctx, items), nil
}
