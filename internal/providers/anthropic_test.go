package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAnthropic(server *httptest.Server) *Anthropic {
	return &Anthropic{
		apiKey: "test-key",
		model:  "claude-3-5-haiku-20241022",
		client: testClient(server),
	}
}

func TestAnthropic_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicAPIVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		var body anthropicRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.System != "sys" {
			t.Errorf("System = %q", body.System)
		}
		resp := anthropicResponse{Content: []anthropicBlock{
			{Type: "text", Text: "part one"},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: " part two"},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := newTestAnthropic(server)
	got, err := a.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "user"})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if got != "part one part two" {
		t.Errorf("Complete = %q", got)
	}
}

func TestAnthropic_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{429, KindRateLimit},
		{404, KindModelUnavailable},
		{529, KindNetwork},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"type":"boom"}}`))
			}))
			defer server.Close()

			a := newTestAnthropic(server)
			_, err := a.Complete(context.Background(), Request{UserPrompt: "x"})
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnthropic_CompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\n")
		fmt.Fprint(w, "data: {\"type\":\"message_start\"}\n\n")
		for _, frag := range []string{"alpha", " beta"} {
			fmt.Fprint(w, "event: content_block_delta\n")
			fmt.Fprintf(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":%q}}\n\n", frag)
		}
		fmt.Fprint(w, "event: message_stop\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	a := newTestAnthropic(server)
	var chunks []string
	got, err := a.CompleteStream(context.Background(), Request{UserPrompt: "x"}, func(frag string) {
		chunks = append(chunks, frag)
	})
	if err != nil {
		t.Fatalf("CompleteStream error: %v", err)
	}
	if got != "alpha beta" {
		t.Errorf("concatenated = %q", got)
	}
	if len(chunks) != 2 {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestAnthropic_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"claude-3-5-haiku-20241022"}]}`))
	}))
	defer server.Close()

	a := newTestAnthropic(server)
	models, err := a.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 1 || models[0] != "claude-3-5-haiku-20241022" {
		t.Errorf("models = %v", models)
	}
}

func TestNewAnthropic_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropic("claude-3-5-haiku-20241022")
	if !IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}
