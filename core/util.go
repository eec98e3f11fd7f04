package core

import (
	"strings"

	"github.com/kat-co/vala"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NotNil checks an interface parameter. Unlike vala.IsNotNil it accepts implementations of any kind, structs included.
func NotNil(obtained interface{}, paramName string) vala.Checker {
	return func() (bool, string) {
		return obtained != nil, "Parameter was nil: " + paramName
	}
}
