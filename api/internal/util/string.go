package util

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s, returning def when s is blank.
func AtoiDefault(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
