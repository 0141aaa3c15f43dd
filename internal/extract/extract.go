// Package extract provides cheap DOM-based form field extraction. It finds
// fillable fields and their structure without any AI call; the richer
// AI-over-HTML path lives in the analyze package.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/form-autofill/internal/types"
)

// fieldSelector matches every element the extractor considers fillable.
const fieldSelector = `input, textarea, select, [contenteditable="true"]`

// skippedInputTypes are input types that are never form answers.
var skippedInputTypes = map[string]bool{
	"hidden": true,
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
}

// Fields extracts the fillable field schema from page HTML. It may return a
// schema with zero fields when the page has no detectable form.
func Fields(html, pageURL string) (*types.FormSchema, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()

	schema := &types.FormSchema{
		PageTitle: strings.TrimSpace(doc.Find("title").First().Text()),
		PageURL:   pageURL,
	}

	seen := make(map[string]bool)
	doc.Find(fieldSelector).Each(func(i int, sel *goquery.Selection) {
		field, ok := fieldFromElement(doc, sel)
		if !ok {
			return
		}
		if seen[field.Selector] {
			return
		}
		seen[field.Selector] = true
		schema.Fields = append(schema.Fields, field)
	})

	return schema, nil
}

// fieldFromElement builds a FormField from a single fillable element.
func fieldFromElement(doc *goquery.Document, sel *goquery.Selection) (types.FormField, bool) {
	node := sel.Get(0)
	if node == nil {
		return types.FormField{}, false
	}
	tag := strings.ToLower(node.Data)

	inputType := strings.ToLower(sel.AttrOr("type", "text"))
	if tag == "input" && skippedInputTypes[inputType] {
		return types.FormField{}, false
	}
	if sel.AttrOr("disabled", "missing") != "missing" {
		return types.FormField{}, false
	}

	selector, ok := deriveSelector(sel, tag)
	if !ok {
		return types.FormField{}, false
	}

	field := types.FormField{
		Selector:    selector,
		Label:       resolveLabel(doc, sel),
		Type:        mapFieldType(tag, inputType, sel),
		Required:    sel.AttrOr("required", "missing") != "missing" || sel.AttrOr("aria-required", "") == "true",
		Placeholder: sel.AttrOr("placeholder", ""),
	}

	if tag == "select" {
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			text := strings.TrimSpace(opt.Text())
			if text != "" {
				field.Options = append(field.Options, text)
			}
		})
	}

	return field, true
}

// deriveSelector produces a stable CSS selector for the element: id first,
// then name, then a positional fallback.
func deriveSelector(sel *goquery.Selection, tag string) (string, bool) {
	if id, ok := sel.Attr("id"); ok && id != "" && !strings.ContainsAny(id, " \t\n") {
		return "#" + id, true
	}
	if name, ok := sel.Attr("name"); ok && name != "" {
		return fmt.Sprintf(`%s[name="%s"]`, tag, name), true
	}
	if automation, ok := sel.Attr("data-automation-id"); ok && automation != "" {
		return fmt.Sprintf(`[data-automation-id="%s"]`, automation), true
	}
	// No stable handle; positional selectors break too easily across
	// renders, so the field is dropped rather than mis-targeted.
	return "", false
}

// resolveLabel finds the human-readable label for a field, trying the
// strategies real ATS markup actually uses, in decreasing order of trust.
func resolveLabel(doc *goquery.Document, sel *goquery.Selection) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		label := doc.Find(fmt.Sprintf(`label[for="%s"]`, id)).First()
		if text := strings.TrimSpace(label.Text()); text != "" {
			return collapseSpace(text)
		}
	}

	if aria := strings.TrimSpace(sel.AttrOr("aria-label", "")); aria != "" {
		return collapseSpace(aria)
	}

	if wrapper := sel.Closest("label"); wrapper.Length() > 0 {
		if text := strings.TrimSpace(wrapper.Text()); text != "" {
			return collapseSpace(text)
		}
	}

	if placeholder := strings.TrimSpace(sel.AttrOr("placeholder", "")); placeholder != "" {
		return placeholder
	}

	return sel.AttrOr("name", "")
}

// mapFieldType classifies the element for fill-strategy selection.
func mapFieldType(tag, inputType string, sel *goquery.Selection) types.FieldType {
	switch tag {
	case "select":
		return types.FieldTypeSelect
	case "textarea":
		return types.FieldTypeTextarea
	case "input":
		switch inputType {
		case "checkbox":
			return types.FieldTypeCheckbox
		case "radio":
			return types.FieldTypeRadio
		case "file":
			return types.FieldTypeFile
		case "date":
			return types.FieldTypeDate
		default:
			return types.FieldTypeText
		}
	default:
		if sel.AttrOr("contenteditable", "") == "true" {
			return types.FieldTypeContentEditable
		}
		return types.FieldTypeText
	}
}

// collapseSpace normalizes runs of whitespace inside a label.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
