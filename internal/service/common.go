package service

import (
	"strings"
)

// SanitizeLimit clamps limit to defaultVal when it falls outside [1, max].
func SanitizeLimit(limit *int, defaultVal, max int) {
	if *limit <= 0 || *limit > max {
		*limit = defaultVal
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
