// Package topic implements matching of dot-segmented event names against
// subscription patterns.
//
// A pattern is a dot-delimited string where any segment may be the literal
// "*" (matches exactly one segment) and the final segment may be "**"
// (matches one or more trailing segments):
//
//	topic.Matches("com.test.event", "com.test.event")    // true, exact
//	topic.Matches("com.test.anything", "com.test.*")     // true
//	topic.Matches("com.test.a.b", "com.test.*")          // false, segment count
//	topic.Matches("com.test.a.b.c", "com.test.**")       // true
//	topic.Matches("com.test", "com.test.**")             // false, "**" needs >=1 segment
//
// Wildcards are only meaningful as whole segments; "foo*bar" is a literal.
// Matching is binary: overlapping patterns have no precedence among each
// other, callers only learn whether any pattern matched.
package topic
