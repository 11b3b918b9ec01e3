package domain

import (
	"sort"
	"strings"
)

// NormalizeTags trims, deduplicates, and lexicographically sorts a tag list.
// Comparison is case-sensitive.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	sort.Strings(cleaned)
	return cleaned
}

// EncodeTags renders a tag list into the delimited storage encoding.
func EncodeTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}

// DecodeTags parses the delimited storage encoding back into a list.
func DecodeTags(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, t := range parts {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// HasTag reports whether the (normalized) tag list contains tag.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
