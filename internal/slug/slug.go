// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
// Project, grant, and member URLs are built from these slugs.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	// combiningDiacriticals is the Combining Diacritical Marks block.
	combiningDiacriticals = &unicode.RangeTable{
		R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
	}
)

// Normalize creates a URL-friendly slug from the given string.
// Example: "Héllò World!" → "hello-world"
//
// Accents are folded to their base letter, everything outside ASCII
// letters, digits, underscores, whitespace and hyphens is dropped, and
// whitespace runs become single hyphens. The result is empty when nothing
// survives the filter. Normalize is safe for concurrent use.
func Normalize(s string) string {
	result := stripDiacritics(s)
	result = strings.ToLower(result)
	result = strings.Map(keepSlugRune, result)
	result = hyphenateSpaces(result)
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return strings.TrimSpace(result)
}

// Valid reports whether s is a non-empty slug that Normalize leaves unchanged.
func Valid(s string) bool {
	return s != "" && Normalize(s) == s
}

// stripDiacritics decomposes s (NFD) and drops combining diacritical marks.
// Transformers carry state, so a fresh chain is built per call.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningDiacriticals)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// keepSlugRune is a strings.Map callback: ASCII word characters, whitespace
// and hyphens pass through, every other rune is removed.
func keepSlugRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		return r
	case isSpace(r):
		return r
	}
	return -1
}

// hyphenateSpaces replaces each maximal run of whitespace with one hyphen.
func hyphenateSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// isSpace reports Unicode white space plus the byte order mark (U+FEFF),
// minus NEL (U+0085).
func isSpace(r rune) bool {
	if r == '\ufeff' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}
