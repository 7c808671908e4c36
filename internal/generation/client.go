// Package generation はLLMバックエンドを使った構造化コンテンツ生成を提供する。
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const generationPath = "/api/v1/services/aigc/text-generation/generation"

// Message はチャット形式のメッセージ。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client はDashScope互換のテキスト生成APIクライアント。
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
	httpClient *http.Client
}

// NewClient はClientを生成する。
func NewClient(baseURL, apiKey, model string, logger *slog.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generationRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []Message `json:"messages"`
	} `json:"input"`
	Parameters struct {
		ResultFormat string `json:"result_format"`
	} `json:"parameters"`
}

type generationResponse struct {
	Output struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Generate はメッセージ列を送信し、アシスタントの応答テキストを返す。
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	reqBody := generationRequest{Model: c.model}
	reqBody.Input.Messages = messages
	reqBody.Parameters.ResultFormat = "message"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generationPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}

	var genResp generationResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse generation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("generation backend returned error",
			slog.Int("status", resp.StatusCode),
			slog.String("code", genResp.Code),
			slog.String("message", genResp.Message))
		return "", fmt.Errorf("AI generation failed: %s", genResp.Message)
	}

	if len(genResp.Output.Choices) == 0 {
		return "", fmt.Errorf("generation response contains no choices")
	}

	c.logger.Info("generation completed",
		slog.String("request_id", genResp.RequestID),
		slog.Duration("duration", time.Since(start)))
	return genResp.Output.Choices[0].Message.Content, nil
}
