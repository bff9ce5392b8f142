package docstract

import (
	"context"
	"log/slog"
)

// stubInvoker is a canned-response invoker for testing. It records the last
// call so tests can assert on the prompt that was built.
type stubInvoker struct {
	response []byte
	err      error

	lastModel  string
	lastPrompt string
	lastMedia  []*Part
}

func (s *stubInvoker) Generate(
	ctx context.Context,
	model string,
	prompt string,
	media []*Part,
	opts *Options,
) ([]byte, error) {
	s.lastModel = model
	s.lastPrompt = prompt
	s.lastMedia = media
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

// NewForTesting creates an Extractor whose model calls return the supplied
// payload. No client or API key is needed.
func NewForTesting[T any](response []byte) *Extractor[T] {
	return &Extractor[T]{
		invoker: &stubInvoker{response: response},
		prompts: NewPromptBuilder(),
		log:     slog.Default(),
	}
}
