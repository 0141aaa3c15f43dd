// Package fill - script.go builds the in-page JavaScript that writes one value.
package fill

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/form-autofill/internal/types"
)

// Assignment is one selector/value pair the executor will write.
type Assignment struct {
	Selector string `json:"selector"`
	Label    string `json:"label"`
	Value    string `json:"value"`
}

// BuildAssignments converts answers into executor input, dropping any answer
// with an empty suggested value. Dropped answers are simply absent input:
// they are not failures and never count toward the fill total.
func BuildAssignments(answers []types.FieldAnswer) []Assignment {
	var assignments []Assignment
	for _, a := range answers {
		if a.SuggestedValue == "" {
			continue
		}
		assignments = append(assignments, Assignment{
			Selector: a.Selector,
			Label:    a.Label,
			Value:    a.SuggestedValue,
		})
	}
	return assignments
}

// fillScript returns a self-contained expression that writes value into the
// element at selector and reports "filled", "not_found", or "error".
//
// Write strategies by element kind:
//   - select: set .value (matching option text or value), dispatch change
//   - checkbox/radio: set .checked, dispatch change
//   - contenteditable: set textContent, dispatch input
//   - text-like inputs and textareas: write through the native value setter
//     so framework-patched setters (React, Vue) still see the change, then
//     dispatch input, change, blur in that order
func fillScript(selector, value string) string {
	sel := mustJSON(selector)
	val := mustJSON(value)

	return fmt.Sprintf(`(() => {
	try {
		const el = document.querySelector(%s);
		if (!el) return "not_found";
		const value = %s;
		const tag = el.tagName.toLowerCase();

		if (tag === "select") {
			let matched = false;
			for (const opt of el.options) {
				if (opt.text.trim() === value || opt.value === value) {
					el.value = opt.value;
					matched = true;
					break;
				}
			}
			if (!matched) el.value = value;
			el.dispatchEvent(new Event("change", { bubbles: true }));
			return "filled";
		}

		if (el.isContentEditable) {
			el.textContent = value;
			el.dispatchEvent(new Event("input", { bubbles: true }));
			return "filled";
		}

		if (tag === "input" && (el.type === "checkbox" || el.type === "radio")) {
			if (el.type === "radio") {
				el.checked = true;
			} else {
				el.checked = ["true", "yes", "on", "1"].includes(value.toLowerCase());
			}
			el.dispatchEvent(new Event("change", { bubbles: true }));
			return "filled";
		}

		const proto = tag === "textarea"
			? window.HTMLTextAreaElement.prototype
			: window.HTMLInputElement.prototype;
		const setter = Object.getOwnPropertyDescriptor(proto, "value").set;
		setter.call(el, value);
		for (const type of ["input", "change", "blur"]) {
			el.dispatchEvent(new Event(type, { bubbles: true }));
		}
		return "filled";
	} catch (e) {
		return "error";
	}
})()`, sel, val)
}

func mustJSON(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// json.Marshal cannot fail for a string
		return `""`
	}
	return string(b)
}
