/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Attribute name patterns
 */

package cli

import (
	"strings"

	"github.com/OpenPrinting/goipp"
)

// globChars are characters that make attribute name a pattern
const globChars = "*?\\"

// isGlob tells if attribute name is a glob-style pattern
func isGlob(name string) bool {
	return strings.ContainsAny(name, globChars)
}

// globMatch matches attribute name against glob-style pattern.
// Pattern may contain wildcards and has a following syntax:
//
//	?   - matches exactly one character
//	*   - matches any sequence of characters
//	\C  - matches character C
//	C   - matches character C (C is not *, ? or \)
func globMatch(name, pattern string) bool {
	for pattern != "" {
		p := pattern[0]
		pattern = pattern[1:]

		switch p {
		case '*':
			pattern = strings.TrimLeft(pattern, "*")
			if pattern == "" {
				return true
			}

			for i := 0; i < len(name); i++ {
				if globMatch(name[i:], pattern) {
					return true
				}
			}
			return false

		case '?':
			if name == "" {
				return false
			}
			name = name[1:]

		case '\\':
			if pattern == "" {
				return false
			}
			p, pattern = pattern[0], pattern[1:]
			fallthrough

		default:
			if name == "" || name[0] != p {
				return false
			}
			name = name[1:]
		}
	}

	return name == ""
}

// globSplit splits requested attribute names into plain names,
// sent to the printer, and patterns, applied locally. If there
// are patterns, "all" is requested from the printer
func globSplit(args []string) (names, patterns []string) {
	for _, arg := range args {
		if isGlob(arg) {
			patterns = append(patterns, arg)
		} else {
			names = append(names, arg)
		}
	}

	if len(patterns) != 0 {
		names = append(names, "all")
	}

	return
}

// globFilter returns attributes that match any of patterns
// or explicitly requested names. Without patterns, attributes
// are returned as is
func globFilter(attrs goipp.Attributes, names, patterns []string) goipp.Attributes {
	if len(patterns) == 0 {
		return attrs
	}

	var out goipp.Attributes
	for _, attr := range attrs {
		if globAccepts(attr.Name, names, patterns) {
			out = append(out, attr)
		}
	}

	return out
}

// globAccepts tells if attribute name is requested
func globAccepts(name string, names, patterns []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	for _, pattern := range patterns {
		if globMatch(name, pattern) {
			return true
		}
	}

	return false
}
