package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleBackend translates batches with the Google Cloud Translation API.
// Generation options are ignored; the API exposes no beam controls.
type GoogleBackend struct {
	credentials string
}

func NewGoogleBackend(credentials string) *GoogleBackend {
	return &GoogleBackend{credentials: credentials}
}

func (b *GoogleBackend) Name() string {
	return "google"
}

func (b *GoogleBackend) Translate(ctx context.Context, batch []string, sourceLang, targetLang string, _ Options) ([]string, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language %q: %w", targetLang, err)
	}

	var opts []option.ClientOption
	if b.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(b.credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Err: fmt.Errorf("failed to create client: %w", err)}
	}
	defer client.Close()

	var translateOpts *translate.Options
	if sourceLang != "" {
		sourceTag, err := language.Parse(sourceLang)
		if err != nil {
			return nil, fmt.Errorf("invalid source language %q: %w", sourceLang, err)
		}
		translateOpts = &translate.Options{Source: sourceTag}
	}

	translations, err := client.Translate(ctx, batch, targetTag, translateOpts)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Err: fmt.Errorf("translation failed: %w", err)}
	}

	if len(translations) != len(batch) {
		return nil, CountMismatchError(b.Name(), len(batch), len(translations))
	}

	results := make([]string, len(translations))
	for i, t := range translations {
		results[i] = t.Text
	}
	return results, nil
}

func (b *GoogleBackend) IsAvailable(ctx context.Context) error {
	return nil
}
