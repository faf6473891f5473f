// Package llm provides a client for the generateContent style language-model endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"smart-pdf-chatbot/internal/config"
	"smart-pdf-chatbot/pkg/log"
	"time"
)

// Client defines the interface for an LLM client.
type Client interface {
	// Ask 发送单个提示词并返回首个候选答案的文本。不重试、不缓存。
	Ask(ctx context.Context, prompt string) (Answer, error)
}

// Answer wraps the first-candidate text of a model reply.
type Answer struct {
	Text string
}

// TransportError 表示网络、超时或非 2xx 状态等传输层失败。
type TransportError struct {
	StatusCode int // 0 表示请求未得到 HTTP 响应
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("answer service returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("answer service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError 表示模型有响应，但缺少 candidates[0].content.parts[0].text。
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed answer service response: " + e.Reason
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformed reports whether err is a MalformedResponseError.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

type geminiClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client from config.
func NewClient(cfg config.LLMConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &geminiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// buildGenerationConfig 从配置注入生成参数（仅非零值）。
func (c *geminiClient) buildGenerationConfig() *generationConfig {
	var gc generationConfig
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		gc.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		gc.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		gc.MaxOutputTokens = &m
	}
	if gc.Temperature == nil && gc.TopP == nil && gc.MaxOutputTokens == nil {
		return nil
	}
	return &gc
}

func (c *geminiClient) endpoint() string {
	u := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	if c.cfg.APIKey != "" {
		u += "?key=" + url.QueryEscape(c.cfg.APIKey)
	}
	return u
}

// Ask calls the generateContent endpoint once.
func (c *geminiClient) Ask(ctx context.Context, prompt string) (Answer, error) {
	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: c.buildGenerationConfig(),
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(reqBytes))
	if err != nil {
		return Answer{}, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[LLMClient] 调用模型接口失败, model: %s, error: %v", c.cfg.Model, err)
		return Answer{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Answer{}, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("[LLMClient] 模型接口返回非 2xx 状态码: %s", resp.Status)
		return Answer{}, &TransportError{StatusCode: resp.StatusCode, Err: errors.New(truncate(string(body), 512))}
	}

	text, err := extractAnswer(body)
	if err != nil {
		log.Warnf("[LLMClient] 模型响应格式异常: %v", err)
		return Answer{}, err
	}
	log.Infow("[LLMClient] 模型调用完成",
		"model", c.cfg.Model,
		"promptLen", len(prompt),
		"answerLen", len(text),
		"latency", time.Since(start).String(),
	)
	return Answer{Text: text}, nil
}

// extractAnswer 取出 candidates[0].content.parts[0].text，路径缺失时返回 MalformedResponseError。
func extractAnswer(body []byte) (string, error) {
	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", &MalformedResponseError{Reason: "body is not valid JSON"}
	}
	if len(gr.Candidates) == 0 {
		return "", &MalformedResponseError{Reason: "no candidates"}
	}
	first := gr.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 {
		return "", &MalformedResponseError{Reason: "candidate has no content parts"}
	}
	if first.Content.Parts[0].Text == nil {
		return "", &MalformedResponseError{Reason: "first part has no text"}
	}
	return *first.Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
