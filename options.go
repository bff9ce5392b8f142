package docstract

import "time"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// DefaultTemperature keeps extraction near-deterministic.
const DefaultTemperature float32 = 0.1

// Options represents functional options for extraction.
type Options struct {
	Model           string
	Temperature     *float32 // nil → DefaultTemperature
	TopP            *float32
	MaxOutputTokens int32
	Timeout         time.Duration
	MaxRetries      int           // 0 → no retry
	Backoff         time.Duration // backoff duration for retries
	Prompt          string        // full prompt override
	Instructions    string        // replaces the default instruction block
	Concurrency     int           // parallel source loading, 0 → NumCPU
}

// WithModel sets the model to call.
func WithModel(name string) func(*Options) {
	return func(o *Options) { o.Model = name }
}

// WithTemperature sets the generation temperature. Valid range is 0.0..1.0.
func WithTemperature(t float32) func(*Options) {
	return func(o *Options) { o.Temperature = &t }
}

// WithTopP sets the nucleus sampling parameter. Valid range is 0.0..1.0.
func WithTopP(p float32) func(*Options) {
	return func(o *Options) { o.TopP = &p }
}

// WithMaxOutputTokens caps the response length.
func WithMaxOutputTokens(n int32) func(*Options) {
	return func(o *Options) { o.MaxOutputTokens = n }
}

// WithTimeout bounds the whole extraction call.
func WithTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.Timeout = d }
}

// WithRetry retries failed model calls with exponential backoff.
func WithRetry(max int, backoff time.Duration) func(*Options) {
	return func(o *Options) {
		o.MaxRetries = max
		o.Backoff = backoff
	}
}

// WithPrompt replaces the whole assembled prompt. The schema description is
// not embedded when a full prompt override is supplied.
func WithPrompt(prompt string) func(*Options) {
	return func(o *Options) { o.Prompt = prompt }
}

// WithInstructions replaces the default instruction block while keeping the
// schema embedding.
func WithInstructions(instructions string) func(*Options) {
	return func(o *Options) { o.Instructions = instructions }
}

// WithConcurrency bounds how many sources load in parallel.
func WithConcurrency(n int) func(*Options) {
	return func(o *Options) { o.Concurrency = n }
}
