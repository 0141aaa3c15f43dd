// Package types provides type definitions for structured data used throughout the form-autofill system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// FieldType classifies a form field for fill-strategy selection
type FieldType string

const (
	// FieldTypeText is a single-line text input (including email, tel, url, number variants)
	FieldTypeText FieldType = "text"
	// FieldTypeTextarea is a multi-line text input
	FieldTypeTextarea FieldType = "textarea"
	// FieldTypeSelect is a dropdown with a fixed option list
	FieldTypeSelect FieldType = "select"
	// FieldTypeCheckbox is a boolean checkbox
	FieldTypeCheckbox FieldType = "checkbox"
	// FieldTypeRadio is one option in a radio group
	FieldTypeRadio FieldType = "radio"
	// FieldTypeFile is a file upload input (never auto-filled)
	FieldTypeFile FieldType = "file"
	// FieldTypeContentEditable is a contenteditable rich-text region
	FieldTypeContentEditable FieldType = "contenteditable"
	// FieldTypeDate is a date input
	FieldTypeDate FieldType = "date"
)

// FieldShape is the structural description of a form field: selector, label,
// type and options, without any generated value. This is the only field data
// that is ever persisted.
type FieldShape struct {
	Selector string    `json:"selector"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Options  []string  `json:"options,omitempty"`
}

// FormField represents one field discovered on a live page. It exists for a
// single page-execution lifetime and is re-derived on every extraction pass;
// only its stripped FieldShape is ever cached.
type FormField struct {
	Selector    string    `json:"selector"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// Shape strips a FormField down to its persistable structural description.
func (f FormField) Shape() FieldShape {
	return FieldShape{
		Selector: f.Selector,
		Label:    f.Label,
		Type:     f.Type,
		Options:  f.Options,
	}
}

// ShapesFromFields converts extracted fields into cacheable shapes.
func ShapesFromFields(fields []FormField) []FieldShape {
	shapes := make([]FieldShape, 0, len(fields))
	for _, f := range fields {
		shapes = append(shapes, f.Shape())
	}
	return shapes
}

// FieldsFromShapes rehydrates cached shapes into FormFields for the
// answer-generation path. Required is unknown for cached shapes and
// defaults to false.
func FieldsFromShapes(shapes []FieldShape) []FormField {
	fields := make([]FormField, 0, len(shapes))
	for _, s := range shapes {
		fields = append(fields, FormField{
			Selector: s.Selector,
			Label:    s.Label,
			Type:     s.Type,
			Options:  s.Options,
		})
	}
	return fields
}

// FormSchema is the output of a DOM extraction pass over one page.
type FormSchema struct {
	Fields    []FormField `json:"fields"`
	PageTitle string      `json:"page_title"`
	PageURL   string      `json:"page_url"`
}
