package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// OpenAI talks to any server exposing the OpenAI chat completions API,
// including Gemini's compatibility endpoint.
type OpenAI struct {
	name       string
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// OpenAIConfig holds configuration for the OpenAI-compatible backend.
type OpenAIConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"-"`
	Timeout time.Duration `yaml:"timeout"`
}

// NewOpenAI creates a new OpenAI-compatible backend.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	url := strings.TrimRight(cfg.URL, "/")
	if url == "" {
		url = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 180 * time.Second
	}

	return &OpenAI{
		name:    name,
		baseURL: url,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (o *OpenAI) Name() string { return o.name }
func (o *OpenAI) Type() Type   { return TypeOpenAI }

// IsAvailable lists models as a cheap authenticated probe.
func (o *OpenAI) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	o.authorize(req)
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (o *OpenAI) Capabilities() Capabilities {
	return Capabilities{
		ContextLimit:      1048576,
		SupportsStreaming: true,
		MaxTokens:         8192,
	}
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage TokenUsage `json:"usage"`
}

func (o *OpenAI) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	req.Stream = false

	resp, err := o.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, o.transportError(ctx, err)
	}

	var out completionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, qerrors.BackendWrap(err, qerrors.ErrBackendAPIError, "malformed completion response").
			WithContext("backend", o.name)
	}
	if len(out.Choices) == 0 {
		return nil, qerrors.Backend(qerrors.ErrBackendAPIError, "completion response has no choices").
			WithContext("backend", o.name)
	}

	choice := out.Choices[0]
	finish := "stop"
	if choice.FinishReason != nil {
		finish = *choice.FinishReason
	}
	model := out.Model
	if model == "" {
		model = req.Model
	}

	return &ChatResponse{
		Content:      choice.Message.Content,
		Model:        model,
		FinishReason: finish,
		LatencyMS:    float64(time.Since(start).Milliseconds()),
		Usage:        out.Usage,
	}, nil
}

func (o *OpenAI) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		req.Stream = true
		resp, err := o.post(ctx, req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		for ev := range parseSSE(ctx, resp.Body) {
			if ev.Data == "[DONE]" {
				chunks <- StreamChunk{Done: true, FinishReason: "stop"}
				return
			}
			var out completionResponse
			if err := json.Unmarshal([]byte(ev.Data), &out); err != nil {
				errs <- qerrors.BackendWrap(err, qerrors.ErrBackendAPIError, "malformed stream chunk").
					WithContext("backend", o.name)
				return
			}
			if len(out.Choices) == 0 {
				continue
			}
			c := out.Choices[0]
			chunk := StreamChunk{Content: c.Delta.Content}
			if c.FinishReason != nil {
				chunk.FinishReason = *c.FinishReason
			}
			chunks <- chunk
		}
		if err := ctx.Err(); err != nil {
			errs <- o.transportError(ctx, err)
		}
	}()

	return chunks, errs
}

// post sends req and returns a 200 response; anything else becomes a
// backend error.
func (o *OpenAI) post(ctx context.Context, req ChatRequest) (*http.Response, error) {
	if req.Model == "" {
		req.Model = o.model
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, qerrors.BackendWrap(err, qerrors.ErrBackendAPIError, "failed to encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, qerrors.BackendWrap(err, qerrors.ErrBackendConnectionFailed, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	o.authorize(httpReq)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, o.transportError(ctx, err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	defer resp.Body.Close()
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	code := qerrors.ErrBackendAPIError
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		code = qerrors.ErrBackendAuthFailed
	}
	return nil, qerrors.Backend(code, fmt.Sprintf("%s returned status %d", o.name, resp.StatusCode)).
		WithContext("backend", o.name).
		WithContext("status", fmt.Sprint(resp.StatusCode)).
		WithContext("body", strings.TrimSpace(string(detail)))
}

func (o *OpenAI) authorize(req *http.Request) {
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
}

func (o *OpenAI) transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return qerrors.BackendWrap(err, qerrors.ErrBackendTimeout, "backend request timed out").
			WithContext("backend", o.name)
	}
	return qerrors.BackendWrap(err, qerrors.ErrBackendConnectionFailed, "backend request failed").
		WithContext("backend", o.name).
		WithContext("url", o.baseURL)
}

// SetModel updates the default model.
func (o *OpenAI) SetModel(model string) { o.model = model }

// Model returns the current model.
func (o *OpenAI) Model() string { return o.model }
