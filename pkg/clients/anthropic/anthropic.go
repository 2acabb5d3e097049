package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAPIURL = "https://api.anthropic.com/v1/messages"
	apiVersion    = "2023-06-01"
	model         = "claude-3-haiku-20240307"
	maxTokens     = 256
)

const systemPrompt = `You translate messages from poultry farmers into exactly one command for a flock age calculator.
Today is %s. Dates are YYYY-MM-DD.

Commands:
/age <flock name or hatch date> [target date]
/date <flock name or hatch date> <weeks> [days]
/flocks
/add <flock name> <hatch date>
/delete <flock name>
/help

Rules:
- Reply with the command only, on a single line, no explanation.
- Resolve relative dates ("today", "next monday") against today's date.
- If the message does not ask for any of these, reply /help.`

// Client defines the interface for AI text processing.
type Client interface {
	TranslateToCommand(ctx context.Context, input string) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
	url        string
	now        func() time.Time
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	return newClient(apiKey, defaultAPIURL)
}

func newClient(apiKey, url string) *anthropicClient {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client, url: url, now: time.Now}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// TranslateToCommand asks the model for the slash command matching a free-text message.
// It returns an empty string when the model answers with something that is not a command.
func (c *anthropicClient) TranslateToCommand(ctx context.Context, input string) (string, error) {
	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    fmt.Sprintf(systemPrompt, c.now().Format("2006-01-02")),
		Messages: []Message{
			{Role: "user", Content: input},
			// Prefill so the answer starts as a command.
			{Role: "assistant", Content: "/"},
		},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(c.url)

	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return normalizeCommand("/" + respBody.Content[0].Text), nil
}

func normalizeCommand(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "`")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return ""
	}
	return text
}
