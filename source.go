package docstract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"google.golang.org/genai"
)

// ErrNoSources is returned when an extraction is attempted without inputs.
var ErrNoSources = errors.New("no sources provided")

// Source is any document input that can be converted into request parts.
type Source interface {
	CreateParts(ctx context.Context, log *slog.Logger) ([]*Part, error)
}

// TextSource adds contextual text alongside the documents, for callers that
// want to send reference data with the scans.
type TextSource struct {
	Content string
}

// NewTextSource creates a source from plain text.
func NewTextSource(content string) *TextSource {
	return &TextSource{Content: content}
}

// CreateParts implements Source for text content.
func (s *TextSource) CreateParts(ctx context.Context, log *slog.Logger) ([]*Part, error) {
	if s.Content == "" {
		return nil, errors.New("text content is empty")
	}
	return []*Part{NewTextPart(s.Content)}, nil
}

// PathSource reads a document (image or PDF) from disk and sends it inline.
type PathSource struct {
	Path     string
	MimeType string // empty → inferred from the path
}

// NewPathSource creates a source backed by a file on disk.
func NewPathSource(path string) *PathSource {
	return &PathSource{Path: path}
}

// CreateParts implements Source for on-disk documents.
func (s *PathSource) CreateParts(ctx context.Context, log *slog.Logger) ([]*Part, error) {
	if s.Path == "" {
		return nil, errors.New("file path is empty")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	mimeType := s.MimeType
	if mimeType == "" {
		mimeType = DetectMIMEType(s.Path)
	}
	log.Debug("Loaded document", "path", s.Path, "size", len(data), "mime_type", mimeType)
	return []*Part{NewDocumentPart(data, mimeType)}, nil
}

// BytesSource sends raw document bytes inline.
type BytesSource struct {
	Data     []byte
	MimeType string // empty → sniffed from the bytes
}

// NewBytesSource creates a source from in-memory document bytes.
func NewBytesSource(data []byte, mimeType string) *BytesSource {
	return &BytesSource{Data: data, MimeType: mimeType}
}

// CreateParts implements Source for in-memory documents.
func (s *BytesSource) CreateParts(ctx context.Context, log *slog.Logger) ([]*Part, error) {
	if len(s.Data) == 0 {
		return nil, errors.New("document data is empty")
	}
	mimeType := s.MimeType
	if mimeType == "" {
		mimeType = DetectMIMETypeFromBytes(s.Data)
		log.Debug("Sniffed MIME type", "mime_type", mimeType)
	}
	return []*Part{NewDocumentPart(s.Data, mimeType)}, nil
}

// Base64Source decodes a std-encoding base64 document and sends it inline.
type Base64Source struct {
	Encoded  string
	MimeType string // empty → sniffed after decoding
}

// NewBase64Source creates a source from a base64-encoded document.
func NewBase64Source(encoded, mimeType string) *Base64Source {
	return &Base64Source{Encoded: encoded, MimeType: mimeType}
}

// CreateParts implements Source for base64 documents.
func (s *Base64Source) CreateParts(ctx context.Context, log *slog.Logger) ([]*Part, error) {
	if s.Encoded == "" {
		return nil, errors.New("base64 document is empty")
	}
	data, err := base64.StdEncoding.DecodeString(s.Encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 document: %w", err)
	}
	bs := &BytesSource{Data: data, MimeType: s.MimeType}
	return bs.CreateParts(ctx, log)
}

// UploadSource pushes a file through the Gemini Files API and references the
// returned URI instead of inlining the bytes. Use it for documents too large
// to send inline. The uploaded file reference is cached across calls.
type UploadSource struct {
	Path        string
	MimeType    string
	DisplayName string
	client      *genai.Client

	uploadedFile *genai.File
}

// NewUploadSource creates a source that uploads the file to the Files API.
func NewUploadSource(client *genai.Client, path string, options ...func(*UploadSource)) *UploadSource {
	src := &UploadSource{client: client, Path: path}
	for _, opt := range options {
		opt(src)
	}
	return src
}

// WithUploadMimeType sets the MIME type for the uploaded file.
func WithUploadMimeType(mimeType string) func(*UploadSource) {
	return func(s *UploadSource) {
		s.MimeType = mimeType
	}
}

// WithUploadDisplayName sets the display name for the uploaded file.
func WithUploadDisplayName(name string) func(*UploadSource) {
	return func(s *UploadSource) {
		s.DisplayName = name
	}
}

// CreateParts implements Source for Files API uploads.
func (s *UploadSource) CreateParts(ctx context.Context, log *slog.Logger) ([]*Part, error) {
	if s.client == nil {
		return nil, fmt.Errorf("UploadSource requires a genai.Client for file uploads")
	}
	if s.Path == "" {
		return nil, errors.New("file path is empty")
	}
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", s.Path)
	}

	mimeType := s.MimeType
	if mimeType == "" {
		mimeType = DetectMIMEType(s.Path)
	}

	file := s.uploadedFile
	if file != nil {
		log.Debug("Using cached uploaded file", "uri", file.URI)
	} else {
		displayName := s.DisplayName
		if displayName == "" {
			displayName = filepath.Base(s.Path)
		}

		log.Debug("Uploading file to Files API", "path", s.Path, "mime_type", mimeType)
		uploaded, err := s.client.Files.UploadFromPath(ctx, s.Path, &genai.UploadFileConfig{
			MIMEType:    mimeType,
			DisplayName: displayName,
		})
		if err != nil {
			return nil, fmt.Errorf("upload file %s: %w", s.Path, err)
		}
		if uploaded.State != "ACTIVE" {
			log.Warn("Uploaded file is not in ACTIVE state", "state", uploaded.State, "uri", uploaded.URI)
		}
		log.Debug("File uploaded", "uri", uploaded.URI, "name", uploaded.Name, "state", uploaded.State)
		s.uploadedFile = uploaded
		file = uploaded
	}

	return []*Part{NewFilePart(file.URI, mimeType)}, nil
}

// SourcesFromPaths wraps a list of file paths as sources.
func SourcesFromPaths(paths ...string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = NewPathSource(p)
	}
	return sources
}
