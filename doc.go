// Package docstract extracts structured data from document images and PDFs
// using the Gemini API. Callers describe the expected output as a tagged Go
// struct; the library infers MIME types, assembles the prompt, requests a
// JSON response, and validates it against the struct before returning.
//
// # Basic Usage
//
// Define a schema struct and extract:
//
//	type Invoice struct {
//	    VendorName  *string  `json:"vendor_name" description:"The name of the emitter"`
//	    VATNumber   *string  `json:"vat_number" description:"The VAT/CIF/NIF number of the emitter"`
//	    TotalAmount *float64 `json:"total_amount" description:"The invoice total"`
//	    Currency    *string  `json:"currency" description:"The invoice currency"`
//	}
//
//	func main() {
//	    ctx := context.Background()
//	    client, _ := docstract.NewClient(ctx, "") // falls back to GEMINI_API_KEY
//	    x := docstract.New[Invoice](client, nil)
//
//	    invoice, err := x.FromFiles(ctx, []string{"invoice.pdf"})
//	    ...
//	}
//
// # Schema Models
//
// Property names come from json tags and per-field extraction hints from
// description tags. Pointer fields are optional; non-pointer fields are
// required, and a missing or null required field fails validation with a
// *ValidationError. Embedded structs act as mixins: their fields are
// promoted into the parent schema. FlexibleDate accepts the date formats
// documents actually carry ("DD MM YYYY", "DD/MM/YYYY", "DD-MM-YYYY", ISO).
//
// # Sources
//
// Inputs implement the Source interface:
//
//	// Files on disk, MIME type inferred from extension or content
//	sources := docstract.SourcesFromPaths("dni_front.jpeg", "dni_back.jpeg")
//
//	// Raw bytes with an explicit or sniffed MIME type
//	src := docstract.NewBytesSource(data, "image/png")
//
//	// Base64 payloads, e.g. from a JSON API
//	src := docstract.NewBase64Source(encoded, "image/jpeg")
//
//	// Large files, uploaded through the Files API instead of inlined
//	src := docstract.NewUploadSource(client, "contract.pdf")
//
// Multiple sources may be combined in one request; parts keep source order.
//
// # Prompt Customization
//
// The default prompt embeds the schema JSON and a standard instruction
// block. WithInstructions swaps the instruction block, WithPrompt replaces
// the whole prompt, and NewPromptBuilder(WithTemplate(...)) rewrites the
// base Twig template. Canned instruction sets for identity documents and
// invoices are exposed as IdentityDocumentInstructions and
// InvoiceInstructions, with ExtractIdentityDocument and ExtractInvoice as
// shortcuts.
//
// # Options
//
//	result, err := x.Extract(ctx, sources,
//	    docstract.WithModel("gemini-2.0-flash"),
//	    docstract.WithTemperature(0.1),
//	    docstract.WithTimeout(30*time.Second),
//	    docstract.WithRetry(3, time.Second),
//	)
//
// ExtractRaw skips validation and returns the parsed response as a map.
// Preview assembles the prompt without calling the API, for inspection and
// rough token estimation.
package docstract
