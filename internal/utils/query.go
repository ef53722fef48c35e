// Package utils provides small parsing helpers for query-string and header
// values. They never fail: malformed input yields the caller's default.
package utils

import (
	"strconv"
	"strings"
	"time"
)

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// not an integer.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// BoolDefault parses "true"/"false"/"1"/"0" (any case, surrounding spaces
// ignored) and returns def for anything else.
func BoolDefault(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return b
}

// SecondsDefault reads a positive whole number of seconds. Zero, negative or
// malformed values return def.
func SecondsDefault(s string, def time.Duration) time.Duration {
	if n := AtoiDefault(strings.TrimSpace(s), 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
