package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RESTClient calls an OpenAI-compatible chat-completions endpoint and asks for
// JSON output. It backs regions whose reasoning backend is reachable over a
// plain HTTPS deployment rather than the Gemini API.
type RESTClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
	region  string
}

func NewRESTClient(apiKey, model, baseURL, region string) (*RESTClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("rest endpoint %s: base url is required", region)
	}
	if region == "" {
		region = "primary"
	}
	return &RESTClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/") + "/chat/completions",
		region:  region,
	}, nil
}

func (c *RESTClient) Name() string { return "rest:" + c.model + "@" + c.region }
func (c *RESTClient) Close() error { return nil }

type chatReq struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateJSON sends prompt as the system message and input as the user
// message, requesting a JSON object response.
func (c *RESTClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.MarshalIndent(input, "", "  ")
	body := chatReq{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: "[INPUT JSON]\n" + string(in)},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		const maxBody = 2048
		if len(raw) > maxBody {
			raw = raw[:maxBody]
		}
		err := fmt.Errorf("%s: unexpected status %s: %s", c.Name(), resp.Status, string(raw))
		// Context-length overflows never resolve through failover.
		if resp.StatusCode == 400 && strings.Contains(string(raw), "context_length_exceeded") {
			return nil, NewPermanentError(err)
		}
		// Quota exhaustion (429) and transport-level 5xx are both retryable
		// at the failover layer; they are deliberately not distinguished.
		return nil, err
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(out.Choices[0].Message.Content), nil
}
