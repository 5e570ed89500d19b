package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"echo-diary/internal/config"
	"echo-diary/internal/logger"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type FallbackReason string

const (
	ReasonNone          FallbackReason = ""
	ReasonNoCredential  FallbackReason = "no-credential"
	ReasonDisabled      FallbackReason = "disabled"
	ReasonProviderError FallbackReason = "provider-error"
	ReasonEmptyContent  FallbackReason = "empty-content"
)

// DraftResult is either provider text (Fallback false) or the local fallback with its reason.
type DraftResult struct {
	Text     string
	Fallback bool
	Reason   FallbackReason
	Err      error
}

const (
	draftSystemPrompt = "You turn the user's notes into a short, natural diary entry written in the first person."
	imagePromptSuffix = "Requirements: no style resembling an identifiable real person, a safe and ordinary everyday scene, no text overlay."
	imageFetchTimeout = 20 * time.Second
)

// FallbackDraft is the deterministic text used whenever the provider is unavailable.
func FallbackDraft(tone, source string) string {
	return fmt.Sprintf("[%s] %s", tone, source)
}

func draftPrompt(tone, source string) string {
	return fmt.Sprintf("Tone: %s\nInput: %s\nRequest: write a natural diary draft of 4 to 6 sentences.", tone, source)
}

func imagePrompt(diaryText string) string {
	return "Create one image depicting a warm, everyday scene based on the following diary entry:\n" +
		diaryText + "\n" + imagePromptSuffix
}

type AIService struct {
	client     openai.Client
	enabled    bool
	disabled   bool
	model      string
	imageModel string
	imageSize  string
	timeout    time.Duration
	imgTimeout time.Duration
	httpClient *http.Client
}

func NewAIService(cfg config.LLMConfig) *AIService {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	imgTimeout := cfg.ImageTimeout()
	if imgTimeout <= 0 {
		imgTimeout = cfg.Timeout()
	}
	return &AIService{
		client:     openai.NewClient(opts...),
		enabled:    cfg.APIKey != "",
		disabled:   cfg.Disabled,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		imageSize:  cfg.ImageSize,
		timeout:    cfg.Timeout(),
		imgTimeout: imgTimeout,
		httpClient: &http.Client{Timeout: imageFetchTimeout},
	}
}

func (s *AIService) unavailable() FallbackReason {
	switch {
	case !s.enabled:
		return ReasonNoCredential
	case s.disabled:
		return ReasonDisabled
	default:
		return ReasonNone
	}
}

// GenerateDraft makes a single bounded attempt at the provider and falls back locally otherwise.
func (s *AIService) GenerateDraft(ctx context.Context, tone, source string) DraftResult {
	fallback := func(reason FallbackReason, err error) DraftResult {
		return DraftResult{Text: FallbackDraft(tone, source), Fallback: true, Reason: reason, Err: err}
	}
	if reason := s.unavailable(); reason != ReasonNone {
		return fallback(reason, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(s.model),
		Temperature: openai.Float(0.7),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(draftSystemPrompt),
			openai.UserMessage(draftPrompt(tone, source)),
		},
	})
	if err != nil {
		logger.Warn("ai.draft.failed", "model", s.model, "err", err)
		return fallback(ReasonProviderError, fmt.Errorf("llm call: %w", err))
	}
	if len(resp.Choices) == 0 {
		return fallback(ReasonEmptyContent, nil)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return fallback(ReasonEmptyContent, nil)
	}
	return DraftResult{Text: text}
}

// GenerateImage returns PNG bytes, or false on any failure; errors are logged, never returned.
func (s *AIService) GenerateImage(ctx context.Context, diaryText string) ([]byte, bool) {
	if s.unavailable() != ReasonNone {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.imgTimeout)
	defer cancel()

	resp, err := s.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: imagePrompt(diaryText),
		Model:  openai.ImageModel(s.imageModel),
		Size:   openai.ImageGenerateParamsSize(s.imageSize),
	})
	if err != nil {
		logger.Warn("ai.image.failed", "model", s.imageModel, "err", err)
		return nil, false
	}
	if len(resp.Data) == 0 {
		return nil, false
	}

	first := resp.Data[0]
	if first.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			logger.Warn("ai.image.decode_failed", "err", err)
			return nil, false
		}
		return data, true
	}
	if first.URL != "" {
		data, err := s.fetchImage(ctx, first.URL)
		if err != nil {
			logger.Warn("ai.image.fetch_failed", "err", err)
			return nil, false
		}
		return data, true
	}
	return nil, false
}

func (s *AIService) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
