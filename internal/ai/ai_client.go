package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mailmind/internal/logger"
	"mailmind/internal/model"
	"mailmind/internal/service"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

const (
	temperature     = 0.7
	maxOutputTokens = 1024
	requestTimeout  = 60 * time.Second
)

// Options selects the provider. Empty fields take the provider defaults.
type Options struct {
	Provider   string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

type aiClient struct {
	provider   string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewAIClient(opts Options, logger *logger.Logger) service.AIClient {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderGemini
	}

	client := &aiClient{
		provider:   provider,
		model:      opts.Model,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		logger:     logger.With("ai"),
	}
	if client.model == "" {
		client.model = getModel(provider)
	}
	if client.baseURL == "" {
		client.baseURL = getBaseURL(provider)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: requestTimeout}
	}

	return client
}

// getBaseURL returns the appropriate API base URL based on the provider
func getBaseURL(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "https://api.deepseek.com"
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com/v1beta"
	default:
		return "https://api.openai.com/v1"
	}
}

// getModel returns the appropriate model based on the provider
func getModel(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o"
	}
}

// OpenAI/DeepSeek API request/response structures
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Gemini API request/response structures
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// ClassifyMessage asks the configured model for a full classification. Every
// failure is a *model.RemoteClassificationError; nothing is retried here.
func (a *aiClient) ClassifyMessage(ctx context.Context, msg model.Message, apiKey string) (model.Classification, error) {
	if apiKey == "" {
		return model.Classification{}, fmt.Errorf("failed to classify message %s: %w", msg.ID, model.ErrConfigMissing)
	}

	prompt := buildPrompt(msg)

	var text string
	var err error
	switch a.provider {
	case ProviderGemini:
		text, err = a.completeWithGemini(ctx, prompt, apiKey)
	default:
		text, err = a.completeWithOpenAIStyle(ctx, prompt, apiKey)
	}
	if err != nil {
		a.logger.Warnf("classification of %s failed: %v", msg.ID, err)
		return model.Classification{}, err
	}

	classification, err := parseClassification(text)
	if err != nil {
		a.logger.Warnf("classification of %s returned unusable output: %v", msg.ID, err)
		return model.Classification{}, err
	}

	a.logger.Infof("classified %s as %s/%s", msg.ID, classification.Intent, classification.Urgency)
	return classification, nil
}

// completeWithGemini handles the generateContent call of Google Gemini
func (a *aiClient) completeWithGemini(ctx context.Context, prompt, apiKey string) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{
						Text: prompt,
					},
				},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	// The key must stay out of the URL; transport errors quote it.
	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, a.model)
	headers := map[string]string{"x-goog-api-key": apiKey}

	var resp geminiResponse
	if err := a.post(ctx, url, headers, request, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", parseError(fmt.Errorf("no content returned from Gemini"))
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// completeWithOpenAIStyle handles chat completions for OpenAI and DeepSeek
func (a *aiClient) completeWithOpenAIStyle(ctx context.Context, prompt, apiKey string) (string, error) {
	request := chatCompletionRequest{
		Model: a.model,
		Messages: []message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	}

	headers := map[string]string{"Authorization": "Bearer " + apiKey}

	var resp chatCompletionResponse
	if err := a.post(ctx, a.baseURL+"/chat/completions", headers, request, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", parseError(fmt.Errorf("no choices returned from AI"))
	}

	return resp.Choices[0].Message.Content, nil
}

// post sends one JSON request and decodes a 2xx JSON response into out.
func (a *aiClient) post(ctx context.Context, url string, headers map[string]string, request, out interface{}) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return &model.RemoteClassificationError{Kind: model.RemoteErrorTransport, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return &model.RemoteClassificationError{Kind: model.RemoteErrorTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &model.RemoteClassificationError{Kind: model.RemoteErrorTransport, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &model.RemoteClassificationError{
			Kind:       model.RemoteErrorStatus,
			StatusCode: resp.StatusCode,
			RawBody:    string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return parseError(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func parseError(err error) *model.RemoteClassificationError {
	return &model.RemoteClassificationError{Kind: model.RemoteErrorParse, Err: err}
}
