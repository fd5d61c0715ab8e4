// Package gopkg resolves the Go module path that encloses a filesystem
// directory, so the CLI can compute a fully qualified import path for
// generated output when --package-root is not given explicitly.
package gopkg

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ImportPath returns the Go import path for directory dir: the module path
// declared by the nearest enclosing go.mod, joined with dir's path relative
// to that go.mod's directory. It returns an error if dir, or none of its
// ancestors, contains a go.mod file.
func ImportPath(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err != nil {
		return "", err
	} else if !info.IsDir() {
		return "", fmt.Errorf("gopkg: not a directory: %s", dir)
	}

	var modPath string
	var suffix string
	for {
		candidate := filepath.Join(dir, "go.mod")
		data, err := os.ReadFile(candidate)
		if err == nil {
			modPath = modfile.ModulePath(data)
			if modPath == "" {
				return "", fmt.Errorf("gopkg: no module path declared in %s", candidate)
			}
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}

		parent, base := filepath.Split(dir)
		parent = filepath.Clean(parent)
		if parent == dir {
			return "", fmt.Errorf("gopkg: no go.mod found above %s", dir)
		}
		suffix = path.Join(base, suffix)
		dir = parent
	}

	return path.Join(modPath, suffix), nil
}
