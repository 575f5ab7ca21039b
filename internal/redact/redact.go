// Package redact scrubs credential-shaped substrings out of text before
// it reaches a log line, an HTTP response, or the terminal.
package redact

import "regexp"

// sensitivePattern matches a password/secret keyword followed by an
// assignment and its value, quoted or bare. Case-insensitive so
// "Password=", "PASSWORD:", etc. are all caught.
var sensitivePattern = regexp.MustCompile(`(?i)(password|secret)\s*[:=]\s*("[^"]*"|'[^']*'|\S+)`)

const mask = "*****"

// Scrub replaces every password=/secret=-shaped substring in s with a
// mask, preserving the rest of the text.
func Scrub(s string) string {
	return sensitivePattern.ReplaceAllString(s, "${1}="+mask)
}

// Error returns err's message with Scrub applied, or "" for a nil err.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Scrub(err.Error())
}
