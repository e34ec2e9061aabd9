package services

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	fallbackSlug  = "product"
	maxSlugLength = 80
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// SlugBase lowercases name and collapses everything outside [a-z0-9] into
// single hyphens. Names with no latin characters fall back to "product".
func SlugBase(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// NextAvailableSlug returns base, or base-2, base-3, ... whichever is first
// not reported as taken.
func NextAvailableSlug(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}
