package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// single text item to translate
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// interface for text translation
type Translator interface {
	Translate(
		ctx context.Context,
		items []TranslationItem,
	) ([]TranslationResult, error)
}

// optional interface for translators that support concurrent batch processing
type ConcurrentTranslator interface {
	Translator
	TranslateWithConcurrency(
		ctx context.Context,
		items []TranslationItem,
		concurrency int,
	) ([]TranslationResult, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// env var holding the API key of each provider
var APIKeyEnv = map[Provider]string{
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

const (
	DefaultBatchSize   = 50
	DefaultContextSize = 2
)

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request (default 50)
	// neighbouring source lines sent with each batch as read-only context;
	// negative disables it, zero means DefaultContextSize
	ContextSize int
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o Options) contextSize() int {
	switch {
	case o.ContextSize < 0:
		return 0
	case o.ContextSize == 0:
		return DefaultContextSize
	default:
		return o.ContextSize
	}
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (*Engine, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// ParseProvider validates a provider name.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := APIKeyEnv[p]; !ok {
		return "", fmt.Errorf(
			"unsupported translation provider %q: use gemini, openai, or anthropic",
			name,
		)
	}
	return p, nil
}

// BuildPrompt creates the translation prompt for one batch
func BuildPrompt(opts Options, batch Batch) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s subtitle texts to %s.\n\n",
			opts.InputLanguage,
			opts.TargetLanguage,
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following subtitle texts to %s.\n\n",
			opts.TargetLanguage,
		))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Keep line breaks in the same positions.\n")
	sb.WriteString("3. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("4. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("5. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n")
	if len(batch.Before) > 0 || len(batch.After) > 0 {
		sb.WriteString("7. Context lines are for reference only; do not translate or return them.\n")
	}
	sb.WriteString("\n")

	if opts.Prompt != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt))
	}

	if len(batch.Before) > 0 {
		sb.WriteString("Previous context:\n")
		for _, line := range batch.Before {
			sb.WriteString("- " + line + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(batch.Items, "", "  ")
	sb.Write(inputJSON)
	sb.WriteString("\n\n")

	if len(batch.After) > 0 {
		sb.WriteString("Following context:\n")
		for _, line := range batch.After {
			sb.WriteString("- " + line + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Output the translated JSON array only:")

	return sb.String()
}
