package scrape

import (
	"regexp"
	"strings"
)

var (
	hashtagPattern  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)
)

// ValidateTarget checks a bare target (no leading # or @) against the
// characters its method allows.
func ValidateTarget(method Method, target string) error {
	switch method {
	case MethodHashtag:
		if !hashtagPattern.MatchString(target) {
			return invalidf("invalid hashtag %q: use letters, digits and underscores only", target)
		}
	case MethodUsername:
		if !usernamePattern.MatchString(target) {
			return invalidf("invalid username %q: use up to 30 letters, digits, dots and underscores", target)
		}
	default:
		return invalidf("unknown discovery method %q", method)
	}
	return nil
}

// NormalizeTarget trims whitespace and any leading '#' or '@', and lower-cases
// the rest. Hashtags and handles are case-insensitive on both platforms.
func NormalizeTarget(s string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(s), "#@"))
}

// ParseTargets splits a comma-separated list into valid targets and the
// raw entries that failed validation. Empty entries are ignored and
// duplicates keep their first position.
func ParseTargets(method Method, raw string) (valid, invalid []string) {
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t := NormalizeTarget(part)
		if ValidateTarget(method, t) != nil {
			invalid = append(invalid, strings.TrimSpace(part))
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		valid = append(valid, t)
	}
	return valid, invalid
}
