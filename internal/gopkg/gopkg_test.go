package gopkg

import (
	"os"
	"testing"
)

func TestImportPath(t *testing.T) {
	got, err := ImportPath(".")
	if err != nil {
		t.Fatal(err)
	}
	want := "github.com/wasmgravity/gravity/internal/gopkg"
	if got != want {
		t.Errorf("ImportPath(.): got %s, want %s", got, want)
	}

	tmp := os.TempDir()
	if _, err := ImportPath(tmp); err == nil {
		t.Errorf("ImportPath(%q): expected error, got nil", tmp)
	}
}
