package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mikesol/inboxpilot/config"
)

// Supported rewrite tones and purposes
var (
	RewriteTones    = []string{"friendly", "professional", "punchy"}
	RewritePurposes = []string{"cold_outreach", "follow_up"}
)

var toneDescriptions = map[string]string{
	"friendly":     "warm, approachable, and conversational",
	"professional": "polished, clear, and business-appropriate",
	"punchy":       "direct, impactful, and attention-grabbing",
}

var purposeDescriptions = map[string]string{
	"cold_outreach": "reaching out to someone for the first time",
	"follow_up":     "following up on a previous conversation or email",
}

const rewriteTimeout = 20 * time.Second

// Rewriter rewrites email copy with an LLM. Stateless; the caller may retry,
// the rewriter itself never does.
type Rewriter struct {
	client *openai.Client
}

func NewRewriter() *Rewriter {
	return &Rewriter{
		client: openai.NewClient(config.AppConfig.OpenAIAPIKey),
	}
}

// Rewrite returns the text rewritten for the given tone and purpose.
// Template variables like {{first_name}} are kept intact.
func (r *Rewriter) Rewrite(ctx context.Context, text, tone, purpose string) (string, error) {
	toneDesc, ok := toneDescriptions[tone]
	if !ok {
		toneDesc = toneDescriptions["professional"]
	}
	purposeDesc, ok := purposeDescriptions[purpose]
	if !ok {
		purposeDesc = purposeDescriptions["cold_outreach"]
	}

	prompt := fmt.Sprintf(`Rewrite the following email text to be %s.
The purpose is %s.

Keep any template variables like {{first_name}} or {{company}} intact.
Only return the rewritten text, nothing else.

Original text:
%s`, toneDesc, purposeDesc, text)

	ctx, cancel := context.WithTimeout(ctx, rewriteTimeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert email copywriter. Rewrite emails to be more effective while maintaining the core message.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("rewrite request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("rewrite returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
