package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultIndicTransURL     = "http://localhost:8001"
	defaultIndicTransTimeout = 60 * time.Second
)

// IndicTransBackend talks to an IndicTrans2 inference server over HTTP.
// The server exposes POST /translate (batch) and GET /languages.
//
// Model loading is slow and the server is prone to capacity stalls, so
// calls go through a circuit breaker: after repeated consecutive failures
// the breaker opens and requests fail fast until the cool-down elapses.
type IndicTransBackend struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewIndicTransBackend creates an adapter for the given server URL.
// An empty baseURL falls back to the default local endpoint.
func NewIndicTransBackend(baseURL string, timeout time.Duration) *IndicTransBackend {
	if baseURL == "" {
		baseURL = defaultIndicTransURL
	}
	if timeout <= 0 {
		timeout = defaultIndicTransTimeout
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "indictrans2",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &IndicTransBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
	}
}

func (b *IndicTransBackend) Name() string {
	return "indictrans2"
}

type indicTransRequest struct {
	Text               []string `json:"text"`
	SrcLang            string   `json:"src_lang"`
	TgtLang            string   `json:"tgt_lang"`
	MaxLength          int      `json:"max_length,omitempty"`
	NumBeams           int      `json:"num_beams,omitempty"`
	NumReturnSequences int      `json:"num_return_sequences,omitempty"`
}

type indicTransResponse struct {
	Translations []string `json:"translations"`
}

// Translate sends the whole batch in one request. The server returns one
// translation per input; when multiple return sequences are requested it
// already selects the first of each set.
func (b *IndicTransBackend) Translate(ctx context.Context, batch []string, sourceLang, targetLang string, opts Options) ([]string, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	reqBody := indicTransRequest{
		Text:               batch,
		SrcLang:            sourceLang,
		TgtLang:            targetLang,
		MaxLength:          opts.MaxLength,
		NumBeams:           opts.NumBeams,
		NumReturnSequences: opts.NumReturnSequences,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	out, err := b.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/translate", bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := b.client.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
		}

		var apiResp indicTransResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return apiResp.Translations, nil
	})
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Err: err}
	}

	translations := out.([]string)
	if len(translations) != len(batch) {
		return nil, CountMismatchError(b.Name(), len(batch), len(translations))
	}
	return translations, nil
}

// Languages fetches the server's language name → code map.
func (b *IndicTransBackend) Languages(ctx context.Context) (map[string]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/languages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{Backend: b.Name(), Err: fmt.Errorf("API returned status %d", resp.StatusCode)}
	}

	langs := make(map[string]string)
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return nil, fmt.Errorf("failed to decode languages: %w", err)
	}
	return langs, nil
}

// IsAvailable checks the /languages endpoint answers.
func (b *IndicTransBackend) IsAvailable(ctx context.Context) error {
	_, err := b.Languages(ctx)
	return err
}
