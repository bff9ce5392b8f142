package docstract

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceResponse = `{
	"first_name": "JUAN",
	"vendor_name": "ACME S.L.",
	"vat_number": "B12345678",
	"date": "05 07 1999",
	"items": [{"description": "Widget", "quantity": 2, "unit_price": 1.5, "total": 3.0}],
	"total_amount": 3.0,
	"currency": "EUR"
}`

func TestExtractor_Extract(t *testing.T) {
	ctx := context.Background()
	x := NewForTesting[testInvoice]([]byte(invoiceResponse))

	sources := []Source{NewBytesSource([]byte("fake scan"), "image/jpeg")}
	inv, err := x.Extract(ctx, sources)
	require.NoError(t, err)
	assert.Equal(t, "B12345678", inv.VATNumber)
	assert.Equal(t, 3.0, inv.TotalAmount)
	require.NotNil(t, inv.FirstName)
	assert.Equal(t, "JUAN", *inv.FirstName)
}

func TestExtractor_PromptEmbedsSchema(t *testing.T) {
	ctx := context.Background()
	x := NewForTesting[testInvoice]([]byte(invoiceResponse))
	stub := x.invoker.(*stubInvoker)

	_, err := x.Extract(ctx, []Source{NewBytesSource([]byte("scan"), "image/jpeg")})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, stub.lastModel)
	assert.Contains(t, stub.lastPrompt, `"vendor_name"`)
	assert.Contains(t, stub.lastPrompt, "The name of the emitter")
	assert.Contains(t, stub.lastPrompt, "Return ONLY the JSON object")
	require.Len(t, stub.lastMedia, 1)
	assert.Equal(t, "document", stub.lastMedia[0].Type)
}

func TestExtractor_PromptOverride(t *testing.T) {
	ctx := context.Background()
	x := NewForTesting[testInvoice]([]byte(invoiceResponse))
	stub := x.invoker.(*stubInvoker)

	_, err := x.Extract(ctx,
		[]Source{NewBytesSource([]byte("scan"), "image/jpeg")},
		WithPrompt("my full custom prompt"))
	require.NoError(t, err)
	assert.Equal(t, "my full custom prompt", stub.lastPrompt)
}

func TestExtractor_InstructionsOverride(t *testing.T) {
	ctx := context.Background()
	x := NewForTesting[testInvoice]([]byte(invoiceResponse))
	stub := x.invoker.(*stubInvoker)

	_, err := x.Extract(ctx,
		[]Source{NewBytesSource([]byte("scan"), "image/jpeg")},
		WithInstructions("Dates as DD MM YYYY."))
	require.NoError(t, err)
	assert.Contains(t, stub.lastPrompt, "Dates as DD MM YYYY.")
	assert.Contains(t, stub.lastPrompt, `"vendor_name"`, "schema embedding is kept")
	assert.NotContains(t, stub.lastPrompt, "Extract ALL visible fields")
}

func TestExtractor_NoSources(t *testing.T) {
	x := NewForTesting[testInvoice]([]byte(invoiceResponse))
	_, err := x.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestExtractor_ExtractRaw(t *testing.T) {
	ctx := context.Background()
	// Raw extraction tolerates payloads that would fail validation.
	x := NewForTesting[testInvoice]([]byte("```json\n{\"anything\": 1}\n```"))

	out, err := x.ExtractRaw(ctx, []Source{NewBytesSource([]byte("scan"), "image/jpeg")})
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["anything"])
}

func TestExtractor_ValidationFailure(t *testing.T) {
	ctx := context.Background()
	x := NewForTesting[testInvoice]([]byte(`{"vendor_name": "ACME S.L."}`))

	_, err := x.Extract(ctx, []Source{NewBytesSource([]byte("scan"), "image/jpeg")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields)
}

func TestExtractor_FromFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	front := filepath.Join(dir, "front.jpg")
	back := filepath.Join(dir, "back.jpg")
	require.NoError(t, os.WriteFile(front, []byte("front scan"), 0o644))
	require.NoError(t, os.WriteFile(back, []byte("back scan"), 0o644))

	x := NewForTesting[testInvoice]([]byte(invoiceResponse))
	stub := x.invoker.(*stubInvoker)

	_, err := x.FromFiles(ctx, []string{front, back})
	require.NoError(t, err)
	require.Len(t, stub.lastMedia, 2)
	assert.Equal(t, []byte("front scan"), stub.lastMedia[0].Data)
	assert.Equal(t, []byte("back scan"), stub.lastMedia[1].Data)
}

func TestExtractor_FromBase64(t *testing.T) {
	ctx := context.Background()
	x := NewForTesting[testInvoice]([]byte(invoiceResponse))

	encoded := base64.StdEncoding.EncodeToString([]byte("scan"))
	inv, err := x.FromBase64(ctx, []*Base64Source{NewBase64Source(encoded, "image/jpeg")})
	require.NoError(t, err)
	assert.Equal(t, "B12345678", inv.VATNumber)
}

func TestExtractor_ExtractIdentityDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	front := filepath.Join(dir, "dni_front.jpeg")
	back := filepath.Join(dir, "dni_back.jpeg")
	require.NoError(t, os.WriteFile(front, []byte("front"), 0o644))
	require.NoError(t, os.WriteFile(back, []byte("back"), 0o644))

	x := NewForTesting[testInvoice]([]byte(invoiceResponse))
	stub := x.invoker.(*stubInvoker)

	_, err := x.ExtractIdentityDocument(ctx, front, back)
	require.NoError(t, err)
	assert.Contains(t, stub.lastPrompt, "identity document")
	assert.Contains(t, stub.lastPrompt, "DD MM YYYY")
	assert.Len(t, stub.lastMedia, 2)
}

func TestExtractor_ExtractInvoice(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "factura.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))

	x := NewForTesting[testInvoice]([]byte(invoiceResponse))
	stub := x.invoker.(*stubInvoker)

	_, err := x.ExtractInvoice(ctx, path)
	require.NoError(t, err)
	assert.Contains(t, stub.lastPrompt, "VAT/CIF/NIF")
	require.Len(t, stub.lastMedia, 1)
	assert.Equal(t, "application/pdf", stub.lastMedia[0].MimeType)
}

// countingInvoker fails a fixed number of times before succeeding.
type countingInvoker struct {
	failures int
	calls    int
	response []byte
}

func (c *countingInvoker) Generate(ctx context.Context, model, prompt string, media []*Part, opts *Options) ([]byte, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("transient upstream error")
	}
	return c.response, nil
}

func TestExtractor_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvoker{failures: 2, response: []byte(invoiceResponse)}
	x := &Extractor[testInvoice]{invoker: inv, prompts: NewPromptBuilder(), log: slog.Default()}

	result, err := x.Extract(ctx,
		[]Source{NewBytesSource([]byte("scan"), "image/jpeg")},
		WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "B12345678", result.VATNumber)
	assert.Equal(t, 3, inv.calls)
}

func TestExtractor_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvoker{failures: 10}
	x := &Extractor[testInvoice]{invoker: inv, prompts: NewPromptBuilder(), log: slog.Default()}

	_, err := x.Extract(ctx,
		[]Source{NewBytesSource([]byte("scan"), "image/jpeg")},
		WithRetry(2, time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, 3, inv.calls)
}

func TestExtractor_LoadPartsKeepsOrder(t *testing.T) {
	ctx := context.Background()
	x := NewForTesting[testInvoice]([]byte(invoiceResponse))

	var sources []Source
	for i := 0; i < 16; i++ {
		sources = append(sources, NewBytesSource([]byte{byte(i + 1)}, "image/jpeg"))
	}

	parts, err := x.loadParts(ctx, sources, 4)
	require.NoError(t, err)
	require.Len(t, parts, 16)
	for i, p := range parts {
		assert.Equal(t, []byte{byte(i + 1)}, p.Data)
	}
}

func TestExtractor_Preview(t *testing.T) {
	x := NewForTesting[testInvoice](nil)

	preview, err := x.Preview()
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, preview.Model)
	assert.Contains(t, preview.Prompt, `"vendor_name"`)
	assert.Equal(t, 13, preview.SchemaFields)
	assert.Greater(t, preview.PromptTokens, 0)
}
