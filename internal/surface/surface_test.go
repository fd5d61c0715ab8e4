package surface_test

import (
	"strings"
	"testing"

	"github.com/bytecodealliance/wasm-tools-go/wit"

	"github.com/wasmgravity/gravity/internal/gengo"
	"github.com/wasmgravity/gravity/internal/surface"
)

func newFile(t *testing.T) *gengo.File {
	t.Helper()
	pkg := gengo.NewPackage("example.com/gen")
	return pkg.File("gen.go")
}

func TestRenderPrimitives(t *testing.T) {
	tests := []struct {
		in   wit.Type
		want string
	}{
		{wit.Bool{}, "bool"},
		{wit.S8{}, "int8"},
		{wit.U32{}, "uint32"},
		{wit.F64{}, "float64"},
		{wit.String{}, "string"},
		{wit.Char{}, "rune"},
	}
	for _, tt := range tests {
		if got := surface.Render(newFile(t), nil, tt.in, surface.Param); got != tt.want {
			t.Errorf("Render(%T) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderOptionPositionDependence(t *testing.T) {
	opt := &wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}

	ret := surface.Render(newFile(t), nil, opt, surface.Return)
	if !strings.Contains(ret, "ValueOrOk") {
		t.Errorf("option in return position = %q, want ValueOrOk", ret)
	}

	field := surface.Render(newFile(t), nil, opt, surface.Field)
	if field != "*uint32" {
		t.Errorf("option in field position = %q, want *uint32", field)
	}
}

func TestRenderResultPrimitiveOKInReturnPosition(t *testing.T) {
	res := &wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}, Err: wit.String{}}}

	ret := surface.Render(newFile(t), nil, res, surface.Return)
	if ret != "uint32" {
		t.Errorf("result<u32,string> in return position = %q, want uint32", ret)
	}

	field := surface.Render(newFile(t), nil, res, surface.Field)
	if !strings.Contains(field, "ValueOrError") {
		t.Errorf("result<u32,string> in field position = %q, want ValueOrError", field)
	}
}

func TestRenderListOfU8IsByteSlice(t *testing.T) {
	l := &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}
	if got := surface.Render(newFile(t), nil, l, surface.Param); got != "[]byte" {
		t.Errorf("Render(list<u8>) = %q, want []byte", got)
	}
}

func TestFlattenPrimitives(t *testing.T) {
	tests := []struct {
		in   wit.Type
		want []surface.CoreType
	}{
		{wit.S32{}, []surface.CoreType{surface.CoreI32}},
		{wit.U64{}, []surface.CoreType{surface.CoreI64}},
		{wit.F32{}, []surface.CoreType{surface.CoreF32}},
		{wit.String{}, []surface.CoreType{surface.CoreI32, surface.CoreI32}},
	}
	for _, tt := range tests {
		got := surface.Flatten(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("Flatten(%T) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Flatten(%T)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
