// Package translator submits extracted problem statements to an
// OpenAI-compatible chat completions endpoint for English→Chinese
// translation.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"contest-translator/internal/logger"
	"contest-translator/internal/types"
)

const (
	// DefaultModel is the default model to use for translation
	DefaultModel = "deepseek-chat"
	// DefaultBaseURL is the default chat completions base URL
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultTimeout is the HTTP client timeout for API calls
	DefaultTimeout = 120 * time.Second
)

// systemPrompt is the fixed translation instruction sent with every request.
const systemPrompt = `You are an expert Competitive Programming Translator.
Translate the following Algorithm Problem Statement from English to Chinese.
RULES:
1. Keep all mathematical formulas in LaTeX format.
2. Use standard Chinese algorithmic terminology.
3. Structure the output clearly using Markdown headers.
4. Reconstruct Sample Input/Output using Markdown Code Blocks.`

// Engine translates problem statements through a chat completions API.
type Engine struct {
	mu     sync.RWMutex
	apiKey string
	model  string
	apiURL string
	client *http.Client
	log    logger.Logger
}

// NewEngine creates an Engine. Empty model/baseURL fall back to defaults;
// a non-default base URL is normalized to end with /chat/completions.
func NewEngine(apiKey, model, baseURL string, log logger.Logger) *Engine {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Engine{
		apiKey: apiKey,
		model:  model,
		apiURL: normalizeAPIURL(baseURL),
		client: &http.Client{Timeout: DefaultTimeout},
		log:    log,
	}
}

// normalizeAPIURL ensures the API URL ends with /chat/completions
func normalizeAPIURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if strings.HasSuffix(url, "/chat/completions") {
		return url
	}
	return url + "/chat/completions"
}

// SetAPIKey updates the credential used for subsequent requests.
func (e *Engine) SetAPIKey(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apiKey = key
}

// SetAPIURL sets the full endpoint URL (useful for tests with mock servers).
func (e *Engine) SetAPIURL(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apiURL = url
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate sends the extracted text and returns the translated content.
// A missing API key fails with CONFIG_MISSING before any request; a non-2xx
// response or a response without message content fails with
// REMOTE_API_FAILED.
func (e *Engine) Translate(ctx context.Context, text string) (string, error) {
	e.mu.RLock()
	apiKey, model, apiURL := e.apiKey, e.model, e.apiURL
	e.mu.RUnlock()

	if apiKey == "" {
		return "", types.NewAppError(types.ErrConfigMissing, "请先设置 API Key", nil)
	}

	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "PDF Content (Problem Part):\n\n" + text},
		},
		Stream: false,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	e.log.Debug("translation request",
		logger.String("url", apiURL), logger.String("model", model),
		logger.Int("textLength", len(text)))

	resp, err := e.client.Do(req)
	if err != nil {
		return "", types.NewAppError(types.ErrRemoteAPI, "翻译接口请求失败", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewAppError(types.ErrRemoteAPI, "翻译接口响应读取失败", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.log.Warn("translation API error",
			logger.Int("status", resp.StatusCode), logger.Int("bodyLength", len(body)))
		return "", types.NewAppError(types.ErrRemoteAPI,
			fmt.Sprintf("API Error: %d", resp.StatusCode), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", types.NewAppError(types.ErrRemoteAPI, "翻译接口响应格式错误", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", types.NewAppError(types.ErrRemoteAPI, "未获取到翻译结果", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}
