package catalog

import (
	"slices"
	"strings"
)

// TagSet is the parsed form of a product's comma-joined tag string.
// Membership is case-sensitive.
type TagSet map[string]bool

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	return s[tag]
}

// Values returns the tags as a sorted slice. The set itself is unordered.
func (s TagSet) Values() []string {
	tags := make([]string, 0, len(s))
	for tag := range s {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// ParseTags splits a raw comma-joined tag string into a TagSet. Tokens are
// trimmed and empty tokens dropped, so "Shoes, red , , blue" parses to
// {Shoes, red, blue}. The result is never nil; a blank input yields an
// empty set.
func ParseTags(raw string) TagSet {
	set := make(TagSet)
	if strings.TrimSpace(raw) == "" {
		return set
	}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			set[tag] = true
		}
	}
	return set
}
