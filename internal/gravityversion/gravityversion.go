// Package gravityversion stamps generated files with the Gravity release
// that produced them, so a downstream consumer can tell when regenerating
// against a newer Gravity is worth doing.
package gravityversion

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/coreos/go-semver/semver"
)

// String returns the running binary's version, derived from Go's embedded
// module build info, falling back to "(devel)" when unavailable (e.g. a
// test binary or a `go run` invocation).
func String() string {
	return versionString()
}

var versionString = sync.OnceValue(func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	v := info.Main.Version
	if v == "" || v == "(devel)" {
		var revision string
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				revision = s.Value
			}
		}
		if revision == "" {
			return "(devel)"
		}
		return "(devel+" + revision + ")"
	}
	return v
})

// Semantic parses String() as a semantic version, returning ok=false for
// non-semver build versions such as "(devel)" or a pseudo-version.
func Semantic() (v semver.Version, ok bool) {
	s := String()
	if len(s) == 0 || s[0] != 'v' {
		return semver.Version{}, false
	}
	parsed, err := semver.NewVersion(s[1:])
	if err != nil {
		return semver.Version{}, false
	}
	return *parsed, true
}

// Notice returns the "do not edit" header comment that precedes every
// generated Go file, naming the Gravity version and the source world.
func Notice(world string) string {
	return fmt.Sprintf(
		"// Code generated by gravity %s for world %q. DO NOT EDIT.\n\n",
		String(), world,
	)
}
