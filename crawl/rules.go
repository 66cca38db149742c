// Package crawl: URL rules.
// Provides helpers to classify, filter and normalize URLs during seeding
// and fetching.
package crawl

import (
	"net/url"
	"path"
	"strings"
)

// staticExtensions are file extensions never worth fetching for text.
// PDFs are deliberately absent: they have their own extraction path.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true,
}

// IsPDF classifies a URL purely by its text: a ".pdf" suffix or an
// "application/pdf" marker anywhere in it.
func IsPDF(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "application/pdf")
}

// Partition splits urls into PDF and HTML sets, each keeping input order.
func Partition(urls []string) (pdfs, pages []string) {
	for _, u := range urls {
		if IsPDF(u) {
			pdfs = append(pdfs, u)
		} else {
			pages = append(pages, u)
		}
	}
	return pdfs, pages
}

// BaseDomain returns the host of rawURL without a leading "www.".
func BaseDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// IsSameDomain checks if the given URL belongs to domain or one of its
// subdomains. domain is expected without "www.".
func IsSameDomain(rawURL string, domain string) bool {
	host := BaseDomain(rawURL)
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// IsStaticAsset checks if a URL points to a static asset (image, CSS, JS, etc.).
func IsStaticAsset(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	return staticExtensions[ext]
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	parsed.Fragment = ""

	// Remove trailing slash (but keep root "/").
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}

// Dedupe keeps the first occurrence of each URL, preserving order.
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
