package gendoc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	genai "google.golang.org/genai"
)

// ErrEmptyDocument is returned when the model answers with no content.
var ErrEmptyDocument = errors.New("gendoc: empty document from model")

// PermanentError marks failures that retrying cannot fix (bad template,
// rejected prompt). The retry loop stops on these.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// ModelClient produces one HTML document per call. The Gemini client is the
// real implementation; tests use fakes.
type ModelClient interface {
	GenerateDocument(ctx context.Context, prompt string) (string, error)
	Close() error
}

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) GenerateDocument(ctx context.Context, prompt string) (string, error) {
	log.Printf("gendoc request (%s): %d bytes", g.model, len(prompt))
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyDocument
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// retrying wraps a ModelClient with bounded exponential backoff. Permanent
// errors pass through; context cancellation stops the loop immediately.
type retrying struct {
	next ModelClient
	max  int
	base time.Duration
}

// WithRetry decorates client the way every remote call out of the gateway
// is decorated: bounded attempts, exponential backoff.
func WithRetry(client ModelClient, maxAttempts int, baseDelay time.Duration) ModelClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return &retrying{next: client, max: maxAttempts, base: baseDelay}
}

func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateDocument(ctx context.Context, prompt string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		doc, err := r.next.GenerateDocument(ctx, prompt)
		if err == nil {
			return doc, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if i < r.max-1 {
			time.Sleep(r.base * time.Duration(1<<i))
		}
	}
	return "", fmt.Errorf("gendoc: %d attempts failed: %w", r.max, last)
}
