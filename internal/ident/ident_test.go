package ident_test

import (
	"testing"

	"github.com/wasmgravity/gravity/internal/gengo"
	"github.com/wasmgravity/gravity/internal/ident"
)

func TestRenderPublic(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"get-stdout", "GetStdout"},
		{"http-status", "HTTPStatus"},
		{"filesize", "FileSize"},
		{"a", "A"},
	}
	for _, tt := range tests {
		scope := gengo.NewScope(nil)
		if got := ident.Render(scope, tt.name, ident.Public); got != tt.want {
			t.Errorf("Render(%q, Public) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRenderPrivate(t *testing.T) {
	scope := gengo.NewScope(nil)
	if got := ident.Render(scope, "get-stdout", ident.Private); got != "getStdout" {
		t.Errorf("Render(Private) = %q, want getStdout", got)
	}
}

func TestRenderLocalCollision(t *testing.T) {
	scope := gengo.NewScope(nil)
	a := ident.Render(scope, "len", ident.Local)
	b := ident.Render(scope, "len", ident.Local)
	if a == b {
		t.Fatalf("two distinct Render calls for %q collided on %q", "len", a)
	}
	if a != "len_" {
		t.Errorf("first render = %q, want len_ (len is a predeclared identifier)", a)
	}
}

func TestRenderReservedWord(t *testing.T) {
	scope := gengo.NewScope(nil)
	got := ident.Render(scope, "func", ident.Local)
	if got == "func" {
		t.Errorf("Render(%q) returned reserved word unmodified", "func")
	}
}

func TestRenderDiffersAcrossRoles(t *testing.T) {
	scope := gengo.NewScope(nil)
	pub := ident.Render(scope, "my-type", ident.Public)
	priv := ident.Render(gengo.NewScope(nil), "my-type", ident.Private)
	if pub == priv {
		t.Errorf("Public and Private renders of %q unexpectedly equal: %q", "my-type", pub)
	}
}
