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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAI implements the Client interface for OpenAI's chat completions API.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates a new OpenAI client. The API key comes from
// OPENAI_API_KEY; a missing key is an auth error at construction time.
func NewOpenAI(model string) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &Error{Kind: KindAuth, Provider: "openai", Message: "OPENAI_API_KEY environment variable is not set"}
	}
	baseURL := os.Getenv("CRITIC_OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAI{
		apiKey:  key,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	httpResp, err := o.send(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Provider: "openai", Message: "reading response", Err: err}
	}
	if err := o.mapStatus(httpResp.StatusCode, respBody); err != nil {
		return "", err
	}

	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &Error{Kind: KindMalformedResponse, Provider: "openai", Message: "parsing response", Err: err}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &Error{Kind: KindMalformedResponse, Provider: "openai", Message: "no text content in API response"}
	}
	return result.Choices[0].Message.Content, nil
}

func (o *OpenAI) CompleteStream(ctx context.Context, req Request, onChunk ChunkFunc) (string, error) {
	httpResp, err := o.send(ctx, req, true)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", o.mapStatus(httpResp.StatusCode, respBody)
	}

	// SSE stream: "data: {json}" lines terminated by "data: [DONE]".
	var full strings.Builder
	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}
		var chunk openaiStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", &Error{Kind: KindMalformedResponse, Provider: "openai", Message: "parsing stream chunk", Err: err}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		full.WriteString(fragment)
		if onChunk != nil {
			onChunk(fragment)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &Error{Kind: KindNetwork, Provider: "openai", Message: "reading stream", Err: err}
	}
	return full.String(), nil
}

func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Provider: "openai", Message: "sending request", Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Provider: "openai", Message: "reading response", Err: err}
	}
	if err := o.mapStatus(httpResp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var result openaiModelList
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Provider: "openai", Message: "parsing model list", Err: err}
	}
	models := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (o *OpenAI) send(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages := []openaiMessage{
		{Role: "system", Content: req.SystemPrompt},
		{Role: "user", Content: req.UserPrompt},
	}

	body := openaiRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    stream,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Provider: "openai", Message: "sending request", Err: err}
	}
	return httpResp, nil
}

// mapStatus is the OpenAI error-mapping table.
func (o *OpenAI) mapStatus(status int, body []byte) error {
	switch {
	case status == 200:
		return nil
	case status == 401 || status == 403:
		return &Error{Kind: KindAuth, Provider: "openai", Message: string(body)}
	case status == 429:
		return &Error{Kind: KindRateLimit, Provider: "openai", Message: "rate limited"}
	case status == 404:
		return &Error{Kind: KindModelUnavailable, Provider: "openai", Message: fmt.Sprintf("model %q not recognized", o.model)}
	case status >= 500:
		return &Error{Kind: KindNetwork, Provider: "openai", Message: fmt.Sprintf("server error (status %d)", status)}
	default:
		return &Error{Kind: KindMalformedResponse, Provider: "openai", Message: fmt.Sprintf("API error (status %d): %s", status, string(body))}
	}
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type openaiModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
