package docstract

import (
	"fmt"
	"strings"

	"github.com/tyler-sommer/stick"
)

// defaultPromptTemplate is the base instruction template. It is a Twig
// template with two variables: the indented schema JSON and the
// instruction block.
const defaultPromptTemplate = `Analyze the provided documents and extract the information strictly following this schema, using each field description as the extraction instruction:

{{ schema }}

{{ instructions }}`

// DefaultInstructions is the instruction block used when the caller does
// not supply one.
const DefaultInstructions = `Important instructions:
- Extract ALL visible fields from the documents
- If a field is not visible or does not exist, use null
- Field descriptions in the schema tell you where to find each value
- For dates, use the format as shown on the document
- Make sure to extract all data accurately

Return ONLY the JSON object, with no additional text.`

// IdentityDocumentInstructions targets two-sided identity documents such as
// the Spanish DNI. The date format rule matters: downstream validation
// expects "DD MM YYYY" strings, not normalized ISO dates.
const IdentityDocumentInstructions = `Analyze these two images of an identity document:
- The first image is the front side of the document
- The second image is the back side of the document

Important instructions:
- Extract ALL visible fields from the images
- If a field is not visible or does not exist, use null
- For dates: CRITICAL - Extract dates as STRING in the exact format "DD MM YYYY" with spaces
- Example: if you see "05 07 1999", extract it as the string "05 07 1999"
- Do NOT convert dates to ISO format or any other format
- For sex, use "M" for male or "F" for female
- Be sure to extract both surnames and names if present
- The address should include all visible components

Return ONLY the JSON object, with no additional text.`

// InvoiceInstructions targets invoice documents.
const InvoiceInstructions = `Analyze this invoice and extract all visible information.
Important instructions:
- Extract the vendor/emitter name
- Extract the VAT/CIF/NIF number of the emitter
- Extract the invoice date
- Extract all items with description, quantity, unit price, and total
- Extract the total amount
- Extract the currency used
- If a field is not visible, use null

Return ONLY the JSON object, with no additional text.`

// PromptBuilder assembles the final prompt from the base template, the
// schema description, and an instruction block.
type PromptBuilder struct {
	env      *stick.Env
	template string
	vars     map[string]stick.Value
}

// PromptOption configures a PromptBuilder.
type PromptOption func(*PromptBuilder)

// WithTemplate replaces the base Twig template. The variables "schema" and
// "instructions" are available inside it.
func WithTemplate(tpl string) PromptOption {
	return func(p *PromptBuilder) { p.template = tpl }
}

// WithTemplateVar adds a variable available in the template.
func WithTemplateVar(key string, value any) PromptOption {
	return func(p *PromptBuilder) { p.vars[key] = value }
}

// NewPromptBuilder builds a prompt builder, defaulting to the base template.
func NewPromptBuilder(opts ...PromptOption) *PromptBuilder {
	p := &PromptBuilder{
		env:      stick.New(nil),
		template: defaultPromptTemplate,
		vars:     make(map[string]stick.Value),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build renders the prompt for the given schema JSON. An empty instructions
// argument selects DefaultInstructions.
func (p *PromptBuilder) Build(schemaJSON, instructions string) (string, error) {
	if instructions == "" {
		instructions = DefaultInstructions
	}

	templateCtx := make(map[string]stick.Value, len(p.vars)+2)
	for k, v := range p.vars {
		templateCtx[k] = v
	}
	templateCtx["schema"] = schemaJSON
	templateCtx["instructions"] = instructions

	var out strings.Builder
	if err := p.env.Execute(p.template, &out, templateCtx); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return out.String(), nil
}
