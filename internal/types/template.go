//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// DefaultTemplateTTL is how long a cached template stays trustworthy.
const DefaultTemplateTTL = 30 * 24 * time.Hour

// DefaultFailThreshold is the fail count at which a template is evicted.
const DefaultFailThreshold = 3

// CachedTemplate is a previously-learned field layout for one ATS platform.
// Entries are keyed by platform pattern, not per-URL, because instances of
// the same ATS share form structure. Fields holds structural data only;
// generated values never appear here.
type CachedTemplate struct {
	Key       string       `json:"key"`
	Fields    []FieldShape `json:"fields"`
	CreatedAt time.Time    `json:"created_at"`
	FailCount int          `json:"fail_count"`
}

// Expired reports whether the template is older than ttl at the given time.
func (t *CachedTemplate) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(t.CreatedAt) > ttl
}

// OverThreshold reports whether the template has accumulated enough fill
// failures to be considered untrustworthy.
func (t *CachedTemplate) OverThreshold(threshold int) bool {
	return t.FailCount >= threshold
}
