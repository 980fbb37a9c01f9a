package topic

import "strings"

const (
	// Separator delimits segments in event names and patterns.
	Separator = "."

	// Wildcard matches exactly one segment.
	Wildcard = "*"

	// DeepWildcard matches one or more trailing segments. It is only
	// meaningful as the final segment of a pattern.
	DeepWildcard = "**"
)

// internalTopics are lifecycle notifications that originate locally rather
// than from the remote event stream, so they are valid regardless of the
// server-provided topic list.
var internalTopics = map[string]struct{}{
	"configured":   {},
	"response":     {},
	"retry":        {},
	"unauthorized": {},
	"notfound":     {},
}

// IsInternal reports whether name is a locally-originated lifecycle topic.
func IsInternal(name string) bool {
	_, ok := internalTopics[name]
	return ok
}

// Matches reports whether eventName matches the given subscription pattern.
func Matches(eventName, pattern string) bool {
	// Exact equality fast path.
	if eventName == pattern {
		return true
	}

	// Without a wildcard a non-exact match can never succeed.
	if !strings.Contains(pattern, Wildcard) {
		return false
	}

	eventSegments := strings.Split(eventName, Separator)
	patternSegments := strings.Split(pattern, Separator)

	if patternSegments[len(patternSegments)-1] == DeepWildcard {
		// "**" must absorb at least one trailing segment.
		if len(patternSegments) > len(eventSegments) {
			return false
		}
		for i := 0; i < len(patternSegments)-1; i++ {
			if patternSegments[i] != eventSegments[i] {
				return false
			}
		}
		return true
	}

	if len(patternSegments) != len(eventSegments) {
		return false
	}
	for i, seg := range patternSegments {
		if seg != Wildcard && seg != eventSegments[i] {
			return false
		}
	}
	return true
}

// HasSubscribedTopic reports whether eventName matches any of the given
// patterns.
func HasSubscribedTopic(eventName string, patterns []string) bool {
	for _, pattern := range patterns {
		if Matches(eventName, pattern) {
			return true
		}
	}
	return false
}
