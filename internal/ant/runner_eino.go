package ant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"antfarm/internal/domain"
	"antfarm/internal/errors"
	"antfarm/internal/logging"
	"antfarm/internal/tokenutil"
)

// Per-operation generation parameters. Message generation uses the provider
// config; summary and thought use fixed low-temperature settings.
const (
	summaryTemperature = 0.2
	summaryMaxTokens   = 600
	thoughtTemperature = 0.2
	thoughtMaxTokens   = 500
)

// Provider names accepted by ProviderConfig.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
	ProviderTogether  = "together"
)

// ProviderConfig describes one hosted-model backend.
type ProviderConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	ModelName   string
	Temperature float32
	MaxTokens   int
}

// EinoRunner is a Runner backed by an eino chat model. One generic struct
// covers every hosted provider; the differences live in newChatModel.
type EinoRunner struct {
	id     domain.ModelID
	chat   einomodel.ToolCallingChatModel
	cfg    ProviderConfig
	retry  errors.RetryConfig
	prices PriceTable
	logger logging.Logger
}

// NewEinoRunner constructs the chat model for cfg and wraps it as a Runner
// registered under id.
func NewEinoRunner(ctx context.Context, id domain.ModelID, cfg ProviderConfig, retry errors.RetryConfig, prices PriceTable, logger logging.Logger) (*EinoRunner, error) {
	if strings.TrimSpace(cfg.ModelName) == "" {
		return nil, fmt.Errorf("provider %s: model name required", cfg.Provider)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	chat, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &EinoRunner{
		id:     id,
		chat:   chat,
		cfg:    cfg,
		retry:  retry,
		prices: prices,
		logger: logging.OrNop(logger),
	}, nil
}

func newChatModel(ctx context.Context, cfg ProviderConfig) (einomodel.ToolCallingChatModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return chat, nil

	case ProviderTogether:
		// Together exposes an OpenAI-compatible API; only the base URL differs.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.together.xyz/v1"
		}
		chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: baseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create together model: %w", err)
		}
		return chat, nil

	case ProviderAnthropic:
		conf := &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.ModelName,
			MaxTokens: cfg.MaxTokens,
		}
		if cfg.BaseURL != "" {
			conf.BaseURL = &cfg.BaseURL
		}
		chat, err := claude.NewChatModel(ctx, conf)
		if err != nil {
			return nil, fmt.Errorf("create claude model: %w", err)
		}
		return chat, nil

	case ProviderGoogle:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chat, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return chat, nil

	case ProviderOllama:
		chat, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return chat, nil
	}

	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func (r *EinoRunner) Model() domain.ModelID { return r.id }

func (r *EinoRunner) GenerateMessage(ctx context.Context, a domain.Ant, roomID string, mc *ModelContext) (string, error) {
	system := BuildSystemPrompt(a.Name, a.PersonalityPrompt)
	user := BuildUserPrompt(mc)
	return r.invoke(ctx, a, roomID, "GenerateMessage", system, user, r.cfg.Temperature, r.cfg.MaxTokens)
}

func (r *EinoRunner) GenerateSummary(ctx context.Context, a domain.Ant, roomID string, mc *ModelContext, existingSummary string) (string, error) {
	system := BuildSummarySystemPrompt(a.Name, a.PersonalityPrompt)
	user := BuildSummaryUserPrompt(mc, existingSummary)
	maxTokens := summaryMaxTokens
	if r.cfg.MaxTokens < maxTokens {
		maxTokens = r.cfg.MaxTokens
	}
	return r.invoke(ctx, a, roomID, "GenerateRoomSummary", system, user, summaryTemperature, maxTokens)
}

func (r *EinoRunner) GenerateThought(ctx context.Context, a domain.Ant, roomID string, mc *ModelContext) (string, error) {
	system := BuildThoughtSystemPrompt(a.Name)
	user := BuildThoughtUserPrompt(mc)
	return r.invoke(ctx, a, roomID, "GenerateBicameralThought", system, user, thoughtTemperature, thoughtMaxTokens)
}

// invoke performs one retried model call, recording a metrics event per
// attempt on the tick's collector.
func (r *EinoRunner) invoke(ctx context.Context, a domain.Ant, roomID, operation, system, user string, temperature float32, maxTokens int) (string, error) {
	collector := TickFromContext(ctx)
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	type callResult struct {
		content      string
		inputTokens  int
		outputTokens int
		latency      time.Duration
	}

	lastAttempt := 0
	result, err := errors.RetryWithResult(ctx, r.retry, r.logger,
		func(ctx context.Context) (callResult, error) {
			start := time.Now()
			resp, err := r.chat.Generate(ctx, messages,
				einomodel.WithTemperature(temperature),
				einomodel.WithMaxTokens(maxTokens),
			)
			latency := time.Since(start)
			if err != nil {
				return callResult{latency: latency}, errors.Classify(err)
			}

			content := strings.TrimSpace(resp.Content)
			inTok, outTok := r.usage(resp, system+user, content)
			if content == "" {
				return callResult{inputTokens: inTok, latency: latency},
					fmt.Errorf("%s %s: %w", r.id, operation, errors.ErrBlankCompletion)
			}
			return callResult{
				content:      content,
				inputTokens:  inTok,
				outputTokens: outTok,
				latency:      latency,
			}, nil
		},
		func(attempt int, err error) {
			lastAttempt = attempt
			if err == nil {
				return
			}
			class := errorClass(err)
			r.logger.Warn("antModel fail antId=%s roomId=%s model=%s attempt=%d errorClass=%s message=%s",
				a.ID, roomID, r.id, attempt, class, errors.Summary(err))
			collector.Record(Event{
				Operation:   operation,
				Model:       r.id,
				Attempt:     attempt,
				MaxAttempts: r.retry.MaxAttempts,
				ErrorClass:  class,
			})
		},
	)
	if err != nil {
		return "", err
	}

	cost := r.prices.EstimateCost(r.id, result.inputTokens, result.outputTokens)
	collector.Record(Event{
		Operation:    operation,
		Model:        r.id,
		Latency:      result.latency,
		InputTokens:  result.inputTokens,
		OutputTokens: result.outputTokens,
		EstimatedUSD: cost,
		Attempt:      lastAttempt,
		MaxAttempts:  r.retry.MaxAttempts,
		Success:      true,
	})
	r.logger.Info("antModel ok antId=%s roomId=%s model=%s latencyMs=%d inputTokens=%d outputTokens=%d",
		a.ID, roomID, r.id, result.latency.Milliseconds(), result.inputTokens, result.outputTokens)

	return result.content, nil
}

// usage harvests token counts from the response meta, falling back to
// tiktoken estimation when the provider reports none.
func (r *EinoRunner) usage(resp *schema.Message, promptText, completion string) (int, int) {
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil && resp.ResponseMeta.Usage.TotalTokens > 0 {
		return resp.ResponseMeta.Usage.PromptTokens, resp.ResponseMeta.Usage.CompletionTokens
	}
	return tokenutil.CountTokens(promptText), tokenutil.CountTokens(completion)
}

func errorClass(err error) string {
	switch {
	case errors.IsAuth(err):
		return "AuthError"
	case errors.IsTransient(err):
		return "TransientError"
	default:
		return "Error"
	}
}
