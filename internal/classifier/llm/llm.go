// Package llm implements the LLM sub-classifier: a structured prompt
// sent to a chat-completions endpoint via go-openai, parsed into a
// verdict, confidence, and reasoning.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a cybersecurity analyst specializing in website defacement detection.

A defacement typically involves unauthorized replacement of content with attacker
messages, political or ideological statements, "hacked by" signatures, injected
cryptocurrency miners, or phishing content.

Legitimate changes include news updates, maintenance notices, marketing campaigns,
and routine content management.

Respond with a single JSON object only: {"verdict": "benign|suspicious|defacement|unclear",
"confidence": 0.0-1.0, "reasoning": "..."}`

// Request carries everything the ensemble knows about a change.
type Request struct {
	SiteURL               string
	ChangedContent        []string
	StaticContext         []string
	PreviousVerdict       models.Verdict
	SiteMetadataAvailable bool
}

// Client is the LLM classification port. Its single method returns an
// abstained SubResult on any failure (timeout, malformed reply,
// rate-limit) rather than propagating the error, so the ensemble can
// proceed without this vote.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// New builds a Client. baseURL overrides the default OpenAI endpoint
// when set (e.g. an OpenAI-compatible gateway), following
// NewOpenAIProvider's DefaultConfig/BaseURL pattern.
func New(apiKey, baseURL, model string, maxTokens int, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm classifier: API key is required")
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if maxTokens == 0 {
		maxTokens = 512
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}, nil
}

type structuredReply struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify sends the change context to the chat-completions endpoint
// and parses the structured reply. Any failure yields an abstained
// SubResult rather than an error; abstained votes are excluded from
// the ensemble's aggregation.
func (c *Client) Classify(ctx context.Context, req Request) models.SubResult {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
		MaxTokens:      c.maxTokens,
		Temperature:    0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return abstain()
	}
	if len(resp.Choices) == 0 {
		return abstain()
	}

	reply, err := parseReply(resp.Choices[0].Message.Content)
	if err != nil {
		return abstain()
	}

	return models.SubResult{
		Tag:        models.TagLLM,
		Classifier: "llm",
		Verdict:    reply.verdict,
		Confidence: reply.Confidence,
		Reasoning:  reply.Reasoning,
	}
}

func abstain() models.SubResult {
	return models.SubResult{Tag: models.TagAbstained, Classifier: "llm"}
}

type parsedReply struct {
	structuredReply
	verdict models.Verdict
}

func parseReply(raw string) (parsedReply, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return parsedReply{}, appErrors.NewClassifierError("llm", "malformed reply: no JSON object found", nil)
	}

	var sr structuredReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &sr); err != nil {
		return parsedReply{}, appErrors.NewClassifierError("llm", "malformed reply: invalid JSON", err)
	}

	verdict, ok := parseVerdict(sr.Verdict)
	if !ok {
		return parsedReply{}, appErrors.NewClassifierError("llm", "malformed reply: unknown verdict", nil)
	}

	confidence := sr.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return parsedReply{structuredReply: structuredReply{Reasoning: sr.Reasoning, Confidence: confidence}, verdict: verdict}, nil
}

func parseVerdict(s string) (models.Verdict, bool) {
	switch models.Verdict(strings.ToLower(strings.TrimSpace(s))) {
	case models.VerdictBenign:
		return models.VerdictBenign, true
	case models.VerdictSuspicious:
		return models.VerdictSuspicious, true
	case models.VerdictDefacement:
		return models.VerdictDefacement, true
	case models.VerdictUnclear:
		return models.VerdictUnclear, true
	default:
		return "", false
	}
}

func buildUserPrompt(req Request) string {
	changed := "No content changes detected"
	if len(req.ChangedContent) > 0 {
		changed = strings.Join(req.ChangedContent, "\n\n")
	}
	static := "No context available"
	if len(req.StaticContext) > 0 {
		limit := len(req.StaticContext)
		if limit > 5 {
			limit = 5
		}
		static = strings.Join(req.StaticContext[:limit], "\n\n")
	}
	prev := "None"
	if req.PreviousVerdict != "" {
		prev = string(req.PreviousVerdict)
	}

	prompt := fmt.Sprintf(
		"WEBSITE URL: %s\n\nCHANGED CONTENT:\n%s\n\nSTATIC CONTEXT:\n%s\n\nPREVIOUS VERDICT: %s\n",
		req.SiteURL, changed, static, prev)

	const maxPromptLen = 50000
	if len(prompt) > maxPromptLen {
		prompt = prompt[:maxPromptLen] + "\n\n[content truncated]"
	}
	return prompt
}
