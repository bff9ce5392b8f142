package docstract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when no API key is configured and the
// GEMINI_API_KEY environment variable is unset.
var ErrMissingAPIKey = errors.New("gemini api key not set")

// NewClient builds a Gemini API client. An empty key falls back to the
// GEMINI_API_KEY environment variable.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// Invoker isolates the model call so tests can stub it out.
type Invoker interface {
	Generate(ctx context.Context, model string, prompt string, media []*Part, opts *Options) ([]byte, error)
}

// geminiInvoker implements Invoker against the Gemini API.
type geminiInvoker struct {
	client *genai.Client
	log    *slog.Logger
}

func (gv *geminiInvoker) Generate(
	ctx context.Context,
	model string,
	prompt string,
	media []*Part,
	opts *Options,
) ([]byte, error) {
	if gv.client == nil {
		return nil, fmt.Errorf("client not initialized")
	}

	cfg, err := generationConfig(opts)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(media)+1)
	for _, part := range media {
		switch part.Type {
		case "text":
			parts = append(parts, genai.NewPartFromText(part.Text))
		case "document":
			parts = append(parts, genai.NewPartFromBytes(part.Data, part.MimeType))
		case "file":
			file := genai.File{
				URI:      part.FileURI,
				MIMEType: part.MimeType,
			}
			parts = append(parts, genai.NewPartFromFile(file))
		}
	}
	// The prompt goes last, after the documents it refers to.
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	gv.log.Debug("Generating content", "model", model, "part_count", len(parts), "prompt_length", len(prompt))

	resp, err := gv.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no parts in candidate content")
	}
	text := candidate.Content.Parts[0].Text
	if text == "" {
		return nil, fmt.Errorf("no text in first part of response")
	}

	gv.log.Debug("Received response", "response_length", len(text))
	return []byte(text), nil
}

// generationConfig translates Options into the SDK generation config.
// Responses are always requested as JSON.
func generationConfig(opts *Options) (*genai.GenerateContentConfig, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	temp := DefaultTemperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	if temp < 0 || temp > 1 {
		return nil, fmt.Errorf("temperature %v must be between 0.0 and 1.0", temp)
	}
	cfg.Temperature = &temp

	if opts.TopP != nil {
		if *opts.TopP < 0 || *opts.TopP > 1 {
			return nil, fmt.Errorf("topP %v must be between 0.0 and 1.0", *opts.TopP)
		}
		cfg.TopP = opts.TopP
	}

	if opts.MaxOutputTokens < 0 {
		return nil, fmt.Errorf("maxOutputTokens %d must be greater than 0", opts.MaxOutputTokens)
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxOutputTokens
	}

	return cfg, nil
}
