package narrative

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"StructBreak/internal/domain/models"
	"StructBreak/pkg/logger"
)

const systemPrompt = "You are a succinct financial risk analyst. Output in Markdown."

// Config holds LLM narrator settings.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	Timeout     time.Duration
}

// OpenAI is a Narrator backed by the OpenAI chat API. When the call fails the
// raw briefing goes out instead of nothing; an alert delayed is an alert lost.
type OpenAI struct {
	client openai.Client
	cfg    Config
	l      *logger.Logger
}

// NewOpenAI creates an LLM narrator.
func NewOpenAI(cfg Config, l *logger.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("narrative: openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4o
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 250
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		l:      l,
	}, nil
}

// Narrate summarizes the signal through the chat API, falling back to the raw
// briefing on any failure.
func (o *OpenAI) Narrate(ctx context.Context, sig models.QualifiedSignal, regime models.RegimeState) (string, error) {
	prompt := Prompt(sig, regime)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(o.cfg.Temperature),
		MaxCompletionTokens: openai.Int(o.cfg.MaxTokens),
	})
	if err != nil {
		o.l.Warn("llm narration failed, sending raw briefing",
			logger.String("symbol", sig.Symbol),
			logger.Error(err))
		return "⚠️ **AI Error** - Raw Signal:\n" + prompt, nil
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "⚠️ **AI Error** - Raw Signal:\n" + prompt, nil
	}
	return resp.Choices[0].Message.Content, nil
}
