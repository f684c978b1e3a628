package common

import (
	"regexp"
	"strings"
)

// CompileInsensitive compiles pattern as a case-insensitive regular expression.
func CompileInsensitive(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// MatchRegex compiles and matches a case-insensitive regex pattern against a string.
// Returns an error if the pattern is invalid.
func MatchRegex(pattern, text string) (bool, error) {
	re, err := CompileInsensitive(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}
