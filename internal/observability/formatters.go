// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/form-autofill/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintFieldAnswers outputs the analyzer's suggested values before filling.
func (p *Printer) PrintFieldAnswers(answers []types.FieldAnswer) {
	if len(answers) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Suggested values for %d fields:\n\n", len(answers)))

	count := min(len(answers), maxItemsToShow)
	for i := 0; i < count; i++ {
		a := answers[i]
		label := a.Label
		if label == "" {
			label = a.Selector
		}
		value := a.SuggestedValue
		if value == "" {
			value = "(skipped: no value)"
		}
		if len(value) > 40 {
			value = value[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", label))
		sb.WriteString(fmt.Sprintf("  %s [%s]\n", value, a.Confidence))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(answers) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more fields", len(answers)-maxItemsToShow))
	}

	p.printBox("SUGGESTED FIELD VALUES", sb.String())
}

// PrintFillReport outputs the per-field outcome of a fill pass.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFillReport(report *types.FillReport) {
	if report == nil {
		return
	}

	if report.AllFilled() {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4,
			fmt.Sprintf("✅ ALL %d FIELDS FILLED", report.TotalFields))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Filled %d of %d fields:\n\n", report.FilledCount, report.TotalFields))

	failed := report.Failed()
	for i, fr := range failed {
		label := fr.Label
		if label == "" {
			label = fr.Selector
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", label))
		sb.WriteString(fmt.Sprintf("  %s\n", fr.Status))
		if i < len(failed)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("FILL REPORT", sb.String())
}

// PrintSession outputs the session state after a fill pass.
func (p *Printer) PrintSession(session *types.AutofillSession) {
	if session == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session:  %s\n", session.ID))
	sb.WriteString(fmt.Sprintf("Attempt:  %d of %d\n", session.AttemptNumber+1, session.MaxAttempts+1))
	if session.CacheKey != "" {
		sb.WriteString(fmt.Sprintf("Platform: %s\n", session.CacheKey))
	} else {
		sb.WriteString("Platform: (not recognized)\n")
	}
	if session.UsedCache {
		sb.WriteString("Source:   cached template\n")
	} else {
		sb.WriteString("Source:   fresh analysis\n")
	}

	p.printBox("AUTOFILL SESSION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCachedTemplates outputs the template cache contents for the cache
// list command.
func (p *Printer) PrintCachedTemplates(templates []types.CachedTemplate, now time.Time) {
	if len(templates) == 0 {
		p.printBox("TEMPLATE CACHE", "(empty)")
		return
	}

	sorted := make([]types.CachedTemplate, len(templates))
	copy(sorted, templates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d cached templates:\n\n", len(sorted)))

	for i, tmpl := range sorted {
		age := now.Sub(tmpl.CreatedAt).Round(time.Hour)
		sb.WriteString(fmt.Sprintf("• %s\n", tmpl.Key))
		sb.WriteString(fmt.Sprintf("  %d fields, age %s, failures %d\n",
			len(tmpl.Fields), age, tmpl.FailCount))
		if i < len(sorted)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("TEMPLATE CACHE", sb.String())
}
