// Package extract - clean.go prepares page HTML for the AI analyzer.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxCleanedHTMLLen bounds how much HTML is sent to the analyzer. Form
// markup past this point is almost always repeated option lists.
const MaxCleanedHTMLLen = 120_000

// noiseSelector lists elements that carry no form structure. Matches the
// noise classes seen across Greenhouse, Lever and Workday application pages.
const noiseSelector = `script, style, noscript, svg, img, video, iframe, link, meta,
	nav, footer, .cookie-banner, .cookie-consent, .gdpr-notice,
	.social-share, .share-buttons`

// CleanFormHTML strips non-structural markup and isolates the form region
// so the analyzer sees a small, relevant document. When the page has a
// <form>, only form markup is kept; otherwise the cleaned body is returned.
func CleanFormHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find(noiseSelector).Remove()

	var sb strings.Builder
	forms := doc.Find("form")
	if forms.Length() > 0 {
		forms.Each(func(_ int, form *goquery.Selection) {
			if markup, err := goquery.OuterHtml(form); err == nil {
				sb.WriteString(markup)
				sb.WriteString("\n")
			}
		})
	} else {
		body, err := doc.Find("body").Html()
		if err != nil {
			return "", err
		}
		sb.WriteString(body)
	}

	cleaned := sb.String()
	if len(cleaned) > MaxCleanedHTMLLen {
		cleaned = cleaned[:MaxCleanedHTMLLen]
	}
	return cleaned, nil
}
