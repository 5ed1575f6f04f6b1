package parser

import (
	"regexp"
	"strings"
)

var (
	schemePrefix = regexp.MustCompile(`^[a-z][a-z0-9+]*:/{1,3}[^/]*`)
	tableCleaner = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	datePattern  = regexp.MustCompile(`^\d{4}[-_]?\d{2}[-_]?\d{2}$|^\d+$`)
)

// Path segments that never name a table. Checked in order from the end of
// the path; the first segment not listed here wins.
var noiseSegments = []string{
	"current", "data", "publish", "staging", "input", "output",
	"tmp", "temp", "main", "latest", "part",
}

// TableNameFromPath infers a dataset name from a storage path. Returns ""
// when no segment survives the precedence list. Pure function; the only
// table inference fallback in the tree.
func TableNameFromPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	trimmed = schemePrefix.ReplaceAllString(strings.ToLower(trimmed), "")
	segments := strings.Split(trimmed, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		segment := strings.TrimSpace(segments[i])
		if segment == "" || strings.ContainsAny(segment, "*${}") {
			continue
		}
		if isNoiseSegment(segment) {
			continue
		}
		cleaned := tableCleaner.ReplaceAllString(segment, "")
		if cleaned == "" || datePattern.MatchString(cleaned) {
			continue
		}
		return cleaned
	}
	return ""
}

func isNoiseSegment(segment string) bool {
	for _, noise := range noiseSegments {
		if segment == noise {
			return true
		}
	}
	return false
}
