package translator

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/saitejashb/context-translation/internal/placeholder"
	"github.com/saitejashb/context-translation/internal/postprocess"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIBackend translates with a chat model, one segment per request.
// Segments arrive already masked, so the prompt instructs the model to
// leave [GTn] markers untouched; postprocess.Clean repairs what it
// mangles anyway.
type OpenAIBackend struct {
	model  string
	client *openai.Client
}

func NewOpenAIBackend(apiKey, model, baseURL string) *OpenAIBackend {
	if model == "" {
		model = defaultOpenAIModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (b *OpenAIBackend) Name() string {
	return "openai"
}

func (b *OpenAIBackend) Translate(ctx context.Context, batch []string, sourceLang, targetLang string, opts Options) ([]string, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	maxTokens := opts.MaxLength
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	results := make([]string, 0, len(batch))
	for _, text := range batch {
		prompt := fmt.Sprintf(`Translate the following text from %s to %s.
Only respond with the translation, nothing else.
%s

Text: %s`, sourceLang, targetLang, placeholder.InstructionHint(), text)

		resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: b.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens:   maxTokens,
			Temperature: 0.3,
		})
		if err != nil {
			return nil, &BackendError{Backend: b.Name(), Err: err}
		}
		if len(resp.Choices) == 0 {
			return nil, &BackendError{Backend: b.Name(), Err: fmt.Errorf("no translation returned")}
		}

		results = append(results, postprocess.Clean(strings.TrimSpace(resp.Choices[0].Message.Content)))
	}

	if len(results) != len(batch) {
		return nil, CountMismatchError(b.Name(), len(batch), len(results))
	}
	return results, nil
}

func (b *OpenAIBackend) IsAvailable(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("openai client not configured")
	}
	return nil
}
