package gengo

import "testing"

func TestFileHasContent(t *testing.T) {
	positives := []File{
		{Name: "comment.go", Content: []byte("// Comment\n")},
		{Name: "package_docs.go", PackageDocs: "package documentation"},
		{Name: "header.go", Header: "// Header\n"},
		{Name: "trailer.go", Trailer: "// Trailer\n"},
		{Name: "blank_imports.go", Imports: map[string]string{"unsafe": "_"}},
		{Name: "assembly.s", Content: []byte("// Comment\n")},
	}
	for _, f := range positives {
		t.Run(f.Name, func(t *testing.T) {
			if got := f.HasContent(); !got {
				t.Errorf("HasContent() = false, want true")
			}
		})
	}

	negatives := []File{
		{Name: "empty.go", GeneratedBy: "package testing"},
		{Name: "build_tag_only.go", GoBuild: "!wasip1"},
		{Name: "named_imports.go", Imports: map[string]string{"unsafe": "unsafe"}},
		{Name: "assembly.s", Content: nil},
	}
	for _, f := range negatives {
		t.Run(f.Name, func(t *testing.T) {
			if got := f.HasContent(); got {
				t.Errorf("HasContent() = true, want false")
			}
		})
	}
}

func TestFileBytes(t *testing.T) {
	pkg := NewPackage("gravity/internal/examplepkg")
	f := pkg.File("example.gravity.go")
	if !f.IsGo() {
		t.Fatalf("file %s should be Go", f.Name)
	}
	f.Import("encoding/json")
	f.Import("io")
	f.WriteString("var _ = json.Marshal\nvar _ io.Reader\n")
	if _, err := f.Bytes(); err != nil {
		t.Errorf("Bytes(): %v", err)
	}
}

func TestFileImport(t *testing.T) {
	pkg := NewPackage("gravity/internal/examplepkg")
	f := pkg.File("example.gravity.go")

	tests := []struct {
		selector string
		want     string
	}{
		{"encoding/json", "json"},
		{"encoding/xml", "xml"},
		{"example/error", "error_"},
		{"example/error", "error_"},
		{"example/foo#example_foo", "example_foo"},
		{"example/foo#example_foo2", "example_foo"},
		{"example/chan", "chan_"},
		{"example/chan", "chan_"},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			if got := f.Import(tt.selector); got != tt.want {
				t.Errorf("Import(%q) = %q, want %q", tt.selector, got, tt.want)
			}
		})
	}
}
