package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic implements the Client interface for Anthropic's messages API.
type Anthropic struct {
	apiKey string
	model  string
	client *http.Client
}

// NewAnthropic creates a new Anthropic client. The API key comes from
// ANTHROPIC_API_KEY; a missing key is an auth error at construction time.
func NewAnthropic(model string) (*Anthropic, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, &Error{Kind: KindAuth, Provider: "anthropic", Message: "ANTHROPIC_API_KEY environment variable is not set"}
	}
	return &Anthropic{
		apiKey: key,
		model:  model,
		client: &http.Client{},
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	httpResp, err := a.send(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Provider: "anthropic", Message: "reading response", Err: err}
	}
	if err := a.mapStatus(httpResp.StatusCode, respBody); err != nil {
		return "", err
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &Error{Kind: KindMalformedResponse, Provider: "anthropic", Message: "parsing response", Err: err}
	}

	var content strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return "", &Error{Kind: KindMalformedResponse, Provider: "anthropic", Message: "no text content in API response"}
	}
	return content.String(), nil
}

func (a *Anthropic) CompleteStream(ctx context.Context, req Request, onChunk ChunkFunc) (string, error) {
	httpResp, err := a.send(ctx, req, true)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", a.mapStatus(httpResp.StatusCode, respBody)
	}

	// SSE stream: text arrives as content_block_delta events carrying
	// text_delta payloads; message_stop ends the stream.
	var full strings.Builder
	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return "", &Error{Kind: KindMalformedResponse, Provider: "anthropic", Message: "parsing stream event", Err: err}
		}
		if event.Type == "message_stop" {
			break
		}
		if event.Type != "content_block_delta" || event.Delta.Type != "text_delta" {
			continue
		}
		fragment := event.Delta.Text
		if fragment == "" {
			continue
		}
		full.WriteString(fragment)
		if onChunk != nil {
			onChunk(fragment)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &Error{Kind: KindNetwork, Provider: "anthropic", Message: "reading stream", Err: err}
	}
	return full.String(), nil
}

func (a *Anthropic) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", anthropicBaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Provider: "anthropic", Message: "sending request", Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Provider: "anthropic", Message: "reading response", Err: err}
	}
	if err := a.mapStatus(httpResp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var result anthropicModelList
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Provider: "anthropic", Message: "parsing model list", Err: err}
	}
	models := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (a *Anthropic) send(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.UserPrompt},
		},
		Stream: stream,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicBaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Provider: "anthropic", Message: "sending request", Err: err}
	}
	return httpResp, nil
}

// mapStatus is the Anthropic error-mapping table.
func (a *Anthropic) mapStatus(status int, body []byte) error {
	switch {
	case status == 200:
		return nil
	case status == 401 || status == 403:
		return &Error{Kind: KindAuth, Provider: "anthropic", Message: string(body)}
	case status == 429:
		return &Error{Kind: KindRateLimit, Provider: "anthropic", Message: "rate limited"}
	case status == 404:
		return &Error{Kind: KindModelUnavailable, Provider: "anthropic", Message: fmt.Sprintf("model %q not recognized", a.model)}
	case status >= 500: // includes 529 overloaded
		return &Error{Kind: KindNetwork, Provider: "anthropic", Message: fmt.Sprintf("server error (status %d)", status)}
	default:
		return &Error{Kind: KindMalformedResponse, Provider: "anthropic", Message: fmt.Sprintf("API error (status %d): %s", status, string(body))}
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

type anthropicModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
