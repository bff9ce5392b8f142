package docstract

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// fallbackMIMEType is returned when neither the extension table nor content
// sniffing can identify the input. Scanned documents are almost always JPEG.
const fallbackMIMEType = "image/jpeg"

// extensionMIMETypes maps the document extensions the library accepts to
// their MIME types.
var extensionMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".pdf":  "application/pdf",
}

// DetectMIMEType resolves the MIME type for a file path. The extension table
// wins; unknown extensions fall back to sniffing the file content, and
// unreadable files resolve to the JPEG fallback.
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionMIMETypes[ext]; ok {
		return mt
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	return fallbackMIMEType
}

// DetectMIMETypeFromBytes sniffs the MIME type from raw document bytes.
func DetectMIMETypeFromBytes(data []byte) string {
	if len(data) == 0 {
		return fallbackMIMEType
	}
	return mimetype.Detect(data).String()
}

// IsPDF reports whether the path points at a PDF document.
func IsPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}
