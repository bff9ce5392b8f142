package docstract

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func TestTextSource_CreateParts(t *testing.T) {
	ctx := context.Background()

	t.Run("valid content", func(t *testing.T) {
		parts, err := NewTextSource("supplier list: ACME").CreateParts(ctx, testLogger)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, "text", parts[0].Type)
		assert.Equal(t, "supplier list: ACME", parts[0].Text)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := NewTextSource("").CreateParts(ctx, testLogger)
		assert.Error(t, err)
	})
}

func TestPathSource_CreateParts(t *testing.T) {
	ctx := context.Background()

	t.Run("reads file and infers mime type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scan.jpg")
		require.NoError(t, os.WriteFile(path, []byte("fake image data"), 0o644))

		parts, err := NewPathSource(path).CreateParts(ctx, testLogger)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, "document", parts[0].Type)
		assert.Equal(t, []byte("fake image data"), parts[0].Data)
		assert.Equal(t, "image/jpeg", parts[0].MimeType)
	})

	t.Run("explicit mime type wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scan.jpg")
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

		src := &PathSource{Path: path, MimeType: "image/webp"}
		parts, err := src.CreateParts(ctx, testLogger)
		require.NoError(t, err)
		assert.Equal(t, "image/webp", parts[0].MimeType)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewPathSource("").CreateParts(ctx, testLogger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "file path is empty")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewPathSource("does-not-exist.pdf").CreateParts(ctx, testLogger)
		assert.Error(t, err)
	})
}

func TestBytesSource_CreateParts(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit mime type", func(t *testing.T) {
		parts, err := NewBytesSource([]byte("data"), "image/png").CreateParts(ctx, testLogger)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, "image/png", parts[0].MimeType)
	})

	t.Run("sniffs mime type when missing", func(t *testing.T) {
		parts, err := NewBytesSource([]byte("%PDF-1.7 fake"), "").CreateParts(ctx, testLogger)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", parts[0].MimeType)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := NewBytesSource(nil, "image/png").CreateParts(ctx, testLogger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "document data is empty")
	})
}

func TestBase64Source_CreateParts(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes payload", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("fake image data"))
		parts, err := NewBase64Source(encoded, "image/jpeg").CreateParts(ctx, testLogger)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, []byte("fake image data"), parts[0].Data)
		assert.Equal(t, "image/jpeg", parts[0].MimeType)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := NewBase64Source("not base64!!!", "image/jpeg").CreateParts(ctx, testLogger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode base64 document")
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := NewBase64Source("", "image/jpeg").CreateParts(ctx, testLogger)
		assert.Error(t, err)
	})
}

func TestUploadSource_RequiresClient(t *testing.T) {
	src := NewUploadSource(nil, "contract.pdf")
	_, err := src.CreateParts(context.Background(), testLogger)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires a genai.Client")
}

func TestSourcesFromPaths(t *testing.T) {
	sources := SourcesFromPaths("a.jpg", "b.pdf")
	require.Len(t, sources, 2)
	assert.Equal(t, "a.jpg", sources[0].(*PathSource).Path)
	assert.Equal(t, "b.pdf", sources[1].(*PathSource).Path)
}
