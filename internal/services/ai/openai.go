package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIBaseURL is the default API base URL.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls.
	DefaultTimeout = 60 * time.Second
)

// OpenAIBackend is a Backend over an OpenAI-compatible chat-completions API.
type OpenAIBackend struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIBackend creates a backend for one concrete model.
func NewOpenAIBackend(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIBackend {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{Timeout: DefaultTimeout}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIBackend{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Name returns the concrete model identifier.
func (b *OpenAIBackend) Name() string {
	return b.model
}

// Generate issues one chat-completion request built from the prompt parts.
func (b *OpenAIBackend) Generate(ctx context.Context, parts []Part, opts GenerateOptions) (*Response, error) {
	content, err := buildContentParts(parts)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(content)},
	}
	if opts.JSONOutput {
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxCompletionTokens = openai.Int(opts.MaxOutputTokens)
	}
	if opts.Temperature != nil {
		req.Temperature = openai.Float(*opts.Temperature)
	}

	if b.debugMode {
		b.logger.Debug("llm_api_request",
			zap.String("model", b.model),
			zap.Int("part_count", len(parts)),
			zap.Bool("json_output", opts.JSONOutput),
		)
	}

	start := time.Now()
	resp, err := b.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if b.debugMode {
			b.logger.Debug("llm_api_error",
				zap.String("model", b.model),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return &Response{Usage: extractUsage(resp)}, nil
	}

	choice := resp.Choices[0]
	usage := extractUsage(resp)

	if choice.FinishReason == "content_filter" || choice.Message.Refusal != "" {
		reason := choice.Message.Refusal
		if reason == "" {
			reason = "content_filter"
		}
		return &Response{Usage: usage, BlockReason: reason}, nil
	}

	if b.debugMode {
		b.logger.Debug("llm_api_response",
			zap.String("model", b.model),
			zap.Int("response_length", len(choice.Message.Content)),
			zap.String("response_preview", SanitizeResponse(choice.Message.Content, false)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return &Response{Text: choice.Message.Content, Usage: usage}, nil
}

// buildContentParts converts opaque prompt parts to API content parts.
// Binary media is inlined as a base64 data URL (images) or input audio.
func buildContentParts(parts []Part) ([]openai.ChatCompletionContentPartUnionParam, error) {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		switch {
		case !p.IsMedia():
			out = append(out, openai.TextContentPart(p.Text))
		case strings.HasPrefix(p.MIMEType, "image/"):
			url := fmt.Sprintf("data:%s;base64,%s", p.MIMEType, base64.StdEncoding.EncodeToString(p.Data))
			out = append(out, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
		case strings.HasPrefix(p.MIMEType, "audio/"):
			format := strings.TrimPrefix(p.MIMEType, "audio/")
			if format == "mpeg" {
				format = "mp3"
			}
			out = append(out, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
				Data:   base64.StdEncoding.EncodeToString(p.Data),
				Format: format,
			}))
		default:
			return nil, fmt.Errorf("unsupported media type: %s", p.MIMEType)
		}
	}
	return out, nil
}

func extractUsage(resp *openai.ChatCompletion) *Usage {
	if resp == nil || resp.Usage.TotalTokens == 0 {
		return nil
	}
	return &Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
}

// classifyOpenAIError maps SDK errors to the package's error taxonomy so the
// dispatcher can distinguish capacity refusals from everything else.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			Message:    apiErr.Message,
			Type:       apiErr.Type,
			Code:       fmt.Sprintf("%v", apiErr.Code),
			StatusCode: apiErr.StatusCode,
		}
	}
	if strings.Contains(err.Error(), "429") {
		return &APIError{Message: err.Error(), Type: "rate_limit_error", StatusCode: 429}
	}
	return err
}
