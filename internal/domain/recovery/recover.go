// Package recovery turns near-JSON model output into a decoded value.
//
// Only two decoder artifacts are repaired: truncation (missing outer or
// trailing brackets) and unquoted object keys. Anything else is left for the
// JSON parser to reject.
package recovery

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Recover repairs text and decodes it. It never panics; a text that still
// does not parse after repair yields an error and a nil value.
func Recover(text string) (any, error) {
	repaired := Repair(text)

	var v any
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, fmt.Errorf("parsing repaired output: %w", err)
	}
	return v, nil
}

// Repair applies the lexical rewrites without parsing.
func Repair(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "{") {
		s = "{" + s
	}
	s = quoteBareKeys(s)
	s = closeOpenBrackets(s)
	if !strings.HasSuffix(s, "}") {
		s += "}"
	}
	return s
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// quoteBareKeys rewrites word: to "word": outside string literals.
func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString, escaped := false, false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])

		if inString {
			b.WriteString(s[i : i+size])
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			i += size
			continue
		}

		if r == '"' {
			inString = true
			b.WriteRune(r)
			i += size
			continue
		}

		if !isWordRune(r) {
			b.WriteString(s[i : i+size])
			i += size
			continue
		}

		j := i
		for j < len(s) {
			wr, wsize := utf8.DecodeRuneInString(s[j:])
			if !isWordRune(wr) {
				break
			}
			j += wsize
		}
		word := s[i:j]
		if j < len(s) && s[j] == ':' {
			b.WriteByte('"')
			b.WriteString(word)
			b.WriteString(`":`)
			i = j + 1
			continue
		}
		b.WriteString(word)
		i = j
	}
	return b.String()
}

// closeOpenBrackets appends the closers for every { or [ left open,
// innermost first.
func closeOpenBrackets(s string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 {
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
