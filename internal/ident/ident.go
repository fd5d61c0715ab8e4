// Package ident converts WIT kebab-case names into Go identifiers
// (SPEC_FULL.md §4.1): Public names render PascalCase for exported
// declarations, Private names render camelCase for unexported package-level
// declarations, and Local names render snake_case for function-local
// variables. All three resolve reserved-word clashes by deterministic
// suffixing and go through a Scope, which reserves every rendered name:
// a second request for the same source name in the same role and scope
// gets a new, suffixed string.
//
// Grounded on the teacher's wit/bindgen/names.go (ExportedName, SnakeName,
// CommonWords, the acronym list now in internal/gengo.Initialisms) plus
// internal/gengo.Scope for collision tracking.
package ident

import (
	"strings"
	"unicode"

	"github.com/wasmgravity/gravity/internal/gengo"
)

// Role distinguishes the three renderings a single WIT name can take
// depending on where it's used. Two requests for the same source name
// and the same Role, in the same scope, return two different strings;
// requests with different Roles may legitimately collide as strings
// (e.g. a Public "Foo" and a Private "foo") without error, since they
// occupy different Go scopes (exported type vs. unexported field) or are
// spelled differently to begin with.
type Role int

const (
	// Public renders kebab-case as PascalCase, for exported package-level
	// declarations (types, exported functions, struct fields).
	Public Role = iota
	// Private renders kebab-case as camelCase, for unexported
	// package-level declarations.
	Private
	// Local renders kebab-case as snake_case, for function-local
	// variables and parameters, with a monotonic suffix on collision.
	Local
)

// Render converts witName into a Go identifier suitable for role, unique
// within scope. Every call declares the rendered name in scope, so calling
// Render twice with the same witName, role, and scope returns two
// different strings, the second one suffixed with "_".
func Render(scope gengo.Scope, witName string, role Role) string {
	var base string
	switch role {
	case Public:
		base = exportedName(witName)
	case Private:
		base = privateName(witName)
	case Local:
		base = snakeName(witName)
	default:
		panic("ident: unknown role")
	}
	if base == "" {
		base = "_"
	}
	return scope.DeclareName(base)
}

func words(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
}

// exportedName renders kebab-case as PascalCase, preserving acronym runs
// (e.g. "http" -> "HTTP", via gengo.Initialisms) and applying the same
// opinionated common-word substitutions the teacher's generator used for
// WASI vocabulary (e.g. "datetime" -> "DateTime").
func exportedName(name string) string {
	var b strings.Builder
	for _, w := range words(name) {
		switch {
		case commonWords[w] != "":
			b.WriteString(commonWords[w])
		case gengo.Initialisms[w]:
			b.WriteString(strings.ToUpper(w))
		default:
			b.WriteString(titleCase(w))
		}
	}
	return b.String()
}

// privateName renders kebab-case as camelCase: like exportedName, but the
// first word is lowercased (and de-acronymed if it would otherwise be an
// all-caps leading word, to avoid e.g. "HTTPServer" reading as exported).
func privateName(name string) string {
	ws := words(name)
	var b strings.Builder
	for i, w := range ws {
		switch {
		case i == 0:
			b.WriteString(w)
		case commonWords[w] != "":
			b.WriteString(commonWords[w])
		case gengo.Initialisms[w]:
			b.WriteString(strings.ToUpper(w))
		default:
			b.WriteString(titleCase(w))
		}
	}
	return b.String()
}

func snakeName(name string) string {
	return strings.Join(words(name), "_")
}

func titleCase(w string) string {
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// commonWords maps WASI/WIT vocabulary to opinionated Go spellings that
// don't follow the plain acronym or title-case rule.
var commonWords = map[string]string{
	"cabi":     "CABI",
	"datetime": "DateTime",
	"filesize": "FileSize",
	"ipv4":     "IPv4",
	"ipv6":     "IPv6",
}
