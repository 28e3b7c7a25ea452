package core

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxBulkIDs caps how many rows one bulk action touches.
const MaxBulkIDs = 10

var idSeparator = regexp.MustCompile(`[,\s]+`)

// ParseIDList reads a free-text id list such as "5, 5 abc,-1 6".
// Tokens that are not positive integers are dropped, duplicates keep their
// first position and the result is truncated to MaxBulkIDs.
func ParseIDList(raw string) []int64 {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, tok := range idSeparator.Split(raw, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		ids = append(ids, n)
		if len(ids) == MaxBulkIDs {
			break
		}
	}
	return ids
}

// ParseTagList splits a comma separated tag field into trimmed, non-empty,
// de-duplicated names. Matching is case-sensitive.
func ParseTagList(raw string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags
}

// ParseID parses a single positive id form field.
func ParseID(raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
