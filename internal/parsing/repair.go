// Package parsing turns raw model output into typed values.
//
// Model responses are expected to be JSON but frequently arrive wrapped in
// markdown fences, with trailing commas, unquoted keys, single quotes, or
// stray control characters. Parse applies an ordered list of repair
// strategies, each a pure string transform, and stops at the first stage
// that unmarshals. It never returns an error: if every stage fails the
// caller's fallback value is returned so downstream code always holds a
// schema-valid artifact.
package parsing

import (
	"encoding/json"
	"regexp"
	"strings"
)

// RepairLevel records how much repair a parse needed.
type RepairLevel int

const (
	RepairNone RepairLevel = iota
	RepairBasic
	RepairAggressive
	RepairFallback
)

func (l RepairLevel) String() string {
	switch l {
	case RepairNone:
		return "none"
	case RepairBasic:
		return "basic"
	case RepairAggressive:
		return "aggressive"
	default:
		return "fallback"
	}
}

// Outcome pairs a parsed value with the repair level that produced it.
type Outcome[T any] struct {
	Value T
	Level RepairLevel
}

// Parse decodes raw into T, repairing progressively. The fallback must be a
// structurally valid placeholder; it is returned verbatim at RepairFallback.
func Parse[T any](raw string, fallback T) Outcome[T] {
	text := StripCodeFences(raw)
	if v, ok := tryUnmarshal[T](text); ok {
		return Outcome[T]{Value: v, Level: RepairNone}
	}

	basic := StripControlChars(NormalizeQuotes(QuoteBareKeys(RemoveTrailingCommas(text))))
	if v, ok := tryUnmarshal[T](basic); ok {
		return Outcome[T]{Value: v, Level: RepairBasic}
	}

	aggressive := RemoveTrailingCommas(NormalizeArrayTokens(ExtractObject(basic)))
	if v, ok := tryUnmarshal[T](aggressive); ok {
		return Outcome[T]{Value: v, Level: RepairAggressive}
	}

	return Outcome[T]{Value: fallback, Level: RepairFallback}
}

func tryUnmarshal[T any](text string) (T, bool) {
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// ---------------------------------------------------------------------------
// Repair strategies. Each is pure and independently testable.
// ---------------------------------------------------------------------------

var (
	fenceOpenRE     = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	fenceCloseRE    = regexp.MustCompile("\\s*```\\s*$")
	trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRE       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	flatArrayRE     = regexp.MustCompile(`\[([^\[\]{}]*)\]`)
	numberTokenRE   = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)
)

// StripCodeFences removes a leading ```lang marker and a trailing ``` from
// the trimmed input.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpenRE.ReplaceAllString(s, "")
	s = fenceCloseRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// RemoveTrailingCommas drops commas that directly precede a closing brace
// or bracket.
func RemoveTrailingCommas(s string) string {
	return trailingCommaRE.ReplaceAllString(s, "${1}")
}

// QuoteBareKeys wraps unquoted object keys in double quotes.
func QuoteBareKeys(s string) string {
	return bareKeyRE.ReplaceAllString(s, `${1}"${2}":`)
}

// NormalizeQuotes converts single quotes to double quotes. Deliberately
// naive: if the result still fails to parse the next stage takes over, and
// the final fallback guarantees totality.
func NormalizeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}

// StripControlChars removes raw control characters, which are illegal inside
// JSON strings. Whitespace between tokens is not significant, so dropping
// newlines and tabs wholesale is safe.
func StripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

// ExtractObject truncates to the substring between the first '{' and the
// last '}', discarding prose the model wrapped around the payload.
func ExtractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// NormalizeArrayTokens re-quotes bare string tokens inside flat arrays,
// leaving numbers, booleans, and null untouched.
func NormalizeArrayTokens(s string) string {
	return flatArrayRE.ReplaceAllStringFunc(s, func(match string) string {
		inner := match[1 : len(match)-1]
		if strings.TrimSpace(inner) == "" {
			return match
		}
		parts := strings.Split(inner, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			tok := strings.TrimSpace(p)
			if tok == "" {
				continue
			}
			if isLiteralToken(tok) {
				out = append(out, tok)
				continue
			}
			tok = strings.Trim(tok, `"`)
			out = append(out, `"`+strings.ReplaceAll(tok, `"`, `\"`)+`"`)
		}
		return "[" + strings.Join(out, ",") + "]"
	})
}

func isLiteralToken(tok string) bool {
	if tok == "true" || tok == "false" || tok == "null" {
		return true
	}
	if numberTokenRE.MatchString(tok) {
		return true
	}
	// Already a well-formed quoted string.
	if len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) &&
		!strings.Contains(tok[1:len(tok)-1], `"`) {
		return true
	}
	return false
}
