package docstract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// Extractor runs schema-driven extraction for one schema type T.
type Extractor[T any] struct {
	client  *genai.Client
	invoker Invoker
	prompts *PromptBuilder
	log     *slog.Logger
}

// New returns an Extractor that logs with slog.Default(). A nil prompts
// argument selects the default prompt builder.
func New[T any](client *genai.Client, prompts *PromptBuilder) *Extractor[T] {
	return NewWithLogger[T](client, prompts, slog.Default())
}

// NewWithLogger lets the caller supply their own logger.
func NewWithLogger[T any](client *genai.Client, prompts *PromptBuilder, log *slog.Logger) *Extractor[T] {
	if log == nil {
		log = slog.Default()
	}
	if prompts == nil {
		prompts = NewPromptBuilder()
	}
	return &Extractor[T]{
		client:  client,
		invoker: &geminiInvoker{client: client, log: log},
		prompts: prompts,
		log:     log,
	}
}

// Extract runs the full flow against the given sources and returns a
// validated value: detect → load → prompt → call → parse → validate.
func (x *Extractor[T]) Extract(ctx context.Context, sources []Source, optFns ...func(*Options)) (*T, error) {
	raw, sch, err := x.generate(ctx, sources, optFns)
	if err != nil {
		return nil, err
	}
	return decodeAndValidate[T](SanitizeJSONResponse(raw), sch)
}

// ExtractRaw runs the same flow but skips schema validation, returning the
// parsed response as a generic map.
func (x *Extractor[T]) ExtractRaw(ctx context.Context, sources []Source, optFns ...func(*Options)) (map[string]any, error) {
	raw, _, err := x.generate(ctx, sources, optFns)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(SanitizeJSONResponse(raw), &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return out, nil
}

// FromFiles extracts a validated value from documents on disk.
func (x *Extractor[T]) FromFiles(ctx context.Context, paths []string, optFns ...func(*Options)) (*T, error) {
	return x.Extract(ctx, SourcesFromPaths(paths...), optFns...)
}

// FromBytes extracts a validated value from in-memory documents.
func (x *Extractor[T]) FromBytes(ctx context.Context, blobs []*BytesSource, optFns ...func(*Options)) (*T, error) {
	sources := make([]Source, len(blobs))
	for i, b := range blobs {
		sources[i] = b
	}
	return x.Extract(ctx, sources, optFns...)
}

// FromUploads extracts a validated value from files pushed through the
// Files API instead of inlined bytes. Prefer this for large PDFs.
func (x *Extractor[T]) FromUploads(ctx context.Context, paths []string, optFns ...func(*Options)) (*T, error) {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = NewUploadSource(x.client, p)
	}
	return x.Extract(ctx, sources, optFns...)
}

// FromBase64 extracts a validated value from base64-encoded documents.
func (x *Extractor[T]) FromBase64(ctx context.Context, docs []*Base64Source, optFns ...func(*Options)) (*T, error) {
	sources := make([]Source, len(docs))
	for i, d := range docs {
		sources[i] = d
	}
	return x.Extract(ctx, sources, optFns...)
}

// ExtractIdentityDocument extracts a two-sided identity document using the
// canned DNI instruction set. Callers may still override options; a later
// WithInstructions wins.
func (x *Extractor[T]) ExtractIdentityDocument(ctx context.Context, frontPath, backPath string, optFns ...func(*Options)) (*T, error) {
	optFns = append([]func(*Options){WithInstructions(IdentityDocumentInstructions)}, optFns...)
	return x.FromFiles(ctx, []string{frontPath, backPath}, optFns...)
}

// ExtractInvoice extracts an invoice using the canned invoice instruction set.
func (x *Extractor[T]) ExtractInvoice(ctx context.Context, path string, optFns ...func(*Options)) (*T, error) {
	optFns = append([]func(*Options){WithInstructions(InvoiceInstructions)}, optFns...)
	return x.FromFiles(ctx, []string{path}, optFns...)
}

// generate performs ingestion, prompt assembly, and the model call, and
// returns the raw response bytes plus the analyzed schema.
func (x *Extractor[T]) generate(ctx context.Context, sources []Source, optFns []func(*Options)) ([]byte, *schemaModel, error) {
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("extract: %w", ErrNoSources)
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sch, err := schemaOf[T]()
	if err != nil {
		return nil, nil, fmt.Errorf("schema analysis failed: %w", err)
	}
	x.log.Debug("Analyzed schema", "model_name", sch.name, "field_count", sch.fieldCount())

	media, err := x.loadParts(ctx, sources, opts.Concurrency)
	if err != nil {
		return nil, nil, err
	}

	prompt, err := x.buildPrompt(sch, &opts)
	if err != nil {
		return nil, nil, err
	}

	x.log.Debug("Calling model",
		"model", opts.Model,
		"prompt_length", len(prompt),
		"media_count", len(media),
		"max_retries", opts.MaxRetries)

	var raw []byte
	err = retryable(func() error {
		var genErr error
		raw, genErr = x.invoker.Generate(ctx, opts.Model, prompt, media, &opts)
		if genErr != nil {
			x.log.Debug("Generate failed", "model", opts.Model, "error", genErr)
		}
		return genErr
	}, opts.MaxRetries, opts.Backoff, x.log)
	if err != nil {
		return nil, nil, err
	}

	x.log.Info("Extraction completed", "model", opts.Model, "response_length", len(raw))
	return raw, sch, nil
}

// buildPrompt assembles the final prompt text for one extraction.
func (x *Extractor[T]) buildPrompt(sch *schemaModel, opts *Options) (string, error) {
	if opts.Prompt != "" {
		return opts.Prompt, nil
	}
	schemaJSON, err := sch.MarshalIndent()
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return x.prompts.Build(string(schemaJSON), opts.Instructions)
}

// loadParts loads every source, concurrently but order-preserving.
func (x *Extractor[T]) loadParts(ctx context.Context, sources []Source, concurrency int) ([]*Part, error) {
	r := newLoadRunner(ctx, concurrency)
	partsBySource := make([][]*Part, len(sources))
	for i, src := range sources {
		i, src := i, src
		r.Go(func() error {
			parts, err := src.CreateParts(r.ctx, x.log)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			partsBySource[i] = parts
			return nil
		})
	}
	if err := r.Wait(); err != nil {
		return nil, err
	}

	var media []*Part
	for _, parts := range partsBySource {
		media = append(media, parts...)
	}
	return media, nil
}

// Preview describes what an extraction would send without calling the API.
type Preview struct {
	Model        string
	Prompt       string
	PromptTokens int // rough estimate
	SchemaFields int
}

// Preview assembles the prompt for the current schema and options and
// reports it together with a token estimate. No API call is made.
func (x *Extractor[T]) Preview(optFns ...func(*Options)) (*Preview, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	sch, err := schemaOf[T]()
	if err != nil {
		return nil, fmt.Errorf("schema analysis failed: %w", err)
	}
	prompt, err := x.buildPrompt(sch, &opts)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Model:        opts.Model,
		Prompt:       prompt,
		PromptTokens: estimateTokens(prompt),
		SchemaFields: sch.fieldCount(),
	}, nil
}

// estimateTokens approximates the token count of a prompt. Four characters
// per token is close enough for planning.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// retryable executes a function with exponential backoff retry logic.
func retryable(call func() error, max int, backoff time.Duration, log *slog.Logger) error {
	if max == 0 {
		return call() // no retry
	}

	delay := backoff
	var err error
	for i := 0; i <= max; i++ {
		if err = call(); err == nil {
			if i > 0 {
				log.Debug("Attempt succeeded", "attempt", i+1)
			}
			return nil
		}
		if i == max {
			break
		}
		log.Debug("Attempt failed, retrying", "attempt", i+1, "error", err, "delay", delay)
		time.Sleep(delay)
		delay *= 2
	}
	return err
}
