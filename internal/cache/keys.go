// Package cache - keys.go provides platform detection and cache-key derivation.
package cache

import (
	"net/url"
	"strings"
)

// platformPattern maps URL host fragments to a stable cache key. Entries are
// keyed per ATS platform rather than per URL because instances of the same
// platform share form structure.
type platformPattern struct {
	key   string
	hosts []string
}

// platformPatterns is ordered most-specific first: when two patterns could
// match the same host, the earlier entry wins.
var platformPatterns = []platformPattern{
	{key: "greenhouse:application", hosts: []string{"boards.greenhouse.io", "job-boards.greenhouse.io", "greenhouse.io"}},
	{key: "lever:application", hosts: []string{"jobs.lever.co", "lever.co"}},
	{key: "workday:application", hosts: []string{"myworkdayjobs.com", "workday.com"}},
	{key: "ashby:application", hosts: []string{"jobs.ashbyhq.com", "ashbyhq.com"}},
	{key: "smartrecruiters:application", hosts: []string{"jobs.smartrecruiters.com", "smartrecruiters.com"}},
	{key: "icims:application", hosts: []string{"icims.com"}},
	{key: "taleo:application", hosts: []string{"taleo.net"}},
	{key: "bamboohr:application", hosts: []string{"bamboohr.com"}},
	{key: "jobvite:application", hosts: []string{"jobs.jobvite.com", "jobvite.com"}},
	{key: "hh:application", hosts: []string{"hh.ru"}},
}

// DeriveKey maps a page URL to its platform cache key. It is a pure function
// of the URL's host pattern: any two URLs on the same ATS platform derive the
// same key regardless of path. Returns ok=false for unrecognized platforms,
// which signals "do not use the cache for this page."
func DeriveKey(pageURL string) (string, bool) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return "", false
	}

	host := strings.ToLower(parsed.Host)

	for _, pattern := range platformPatterns {
		for _, h := range pattern.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return pattern.key, true
			}
		}
	}

	return "", false
}
