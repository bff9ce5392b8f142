package docstract

// Part is one piece of a request: prompt text, inline document bytes, or a
// reference to a file uploaded through the Files API.
type Part struct {
	Type     string
	Text     string
	Data     []byte
	FileURI  string // for uploaded files
	MimeType string // for documents and files
}

// NewTextPart creates a new text part
func NewTextPart(text string) *Part {
	return &Part{Type: "text", Text: text}
}

// NewDocumentPart creates a new inline document part with data and mime type
func NewDocumentPart(data []byte, mimeType string) *Part {
	return &Part{Type: "document", Data: data, MimeType: mimeType}
}

// NewFilePart creates a new file part that references an uploaded file URI
func NewFilePart(fileURI, mimeType string) *Part {
	return &Part{Type: "file", FileURI: fileURI, MimeType: mimeType}
}
