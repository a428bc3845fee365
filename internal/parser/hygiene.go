package parser

import "regexp"

// urlArtifactPatterns match tags that leaked into frontmatter from web
// clippings: fragments, tracking parameters and generated element ids.
var urlArtifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^pdp-`),
	regexp.MustCompile(`(?i)^post-\d+$`),
	regexp.MustCompile(`(?i)^[a-f0-9]{8,}$`),
	regexp.MustCompile(`(?i)^utm[-_]`),
	regexp.MustCompile(`(?i)^ref[-_]`),
	regexp.MustCompile(`^[0-9]{8,}$`),
	regexp.MustCompile(`(?i)-container$`),
	regexp.MustCompile(`(?i)-wrapper$`),
	regexp.MustCompile(`(?i)-section$`),
}

// IsURLArtifact reports whether tag looks generated from a URL.
func IsURLArtifact(tag string) bool {
	for _, re := range urlArtifactPatterns {
		if re.MatchString(tag) {
			return true
		}
	}
	return false
}

// CleanURLTags returns tags without URL artifacts, preserving order.
func CleanURLTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !IsURLArtifact(t) {
			out = append(out, t)
		}
	}
	return out
}
