package witsource

import (
	"bytes"
	"fmt"
)

// wasmMagic is the first four bytes of the fixed 8-byte Wasm module
// preamble; the four version bytes after it are copied as they are.
var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6d}

const customSectionID = 0

// StripCustomSection returns wasmBytes with the custom section named
// sectionName removed, for the `--inline-wasm` embedding path (spec.md
// §6: "stripped of the WIT custom section before embedding to avoid
// re-shipping metadata"). If no such section exists, wasmBytes is
// returned unmodified.
//
// No library in this generator's dependency set edits Wasm binaries —
// wazero only decodes them — so this is a direct, minimal re-encode of
// the module's section stream: copy every section whose name doesn't
// match, byte for byte, with its original LEB128 length prefix. No length
// is recomputed; dropping a whole section changes no other section.
func StripCustomSection(wasmBytes []byte, sectionName string) ([]byte, error) {
	if len(wasmBytes) < 8 || !bytes.Equal(wasmBytes[:4], wasmMagic[:]) {
		return nil, fmt.Errorf("witsource: not a Wasm module (bad magic)")
	}

	out := make([]byte, 8)
	copy(out, wasmBytes[:8])

	r := wasmBytes[8:]
	for len(r) > 0 {
		id := r[0]
		size, n, err := readVarUint32(r[1:])
		if err != nil {
			return nil, fmt.Errorf("witsource: reading section length: %w", err)
		}
		headerLen := 1 + n
		if headerLen+int(size) > len(r) {
			return nil, fmt.Errorf("witsource: truncated section body")
		}
		body := r[headerLen : headerLen+int(size)]

		keep := true
		if id == customSectionID {
			name, _, err := readName(body)
			if err == nil && name == sectionName {
				keep = false
			}
		}
		if keep {
			out = append(out, r[:headerLen+int(size)]...)
		}
		r = r[headerLen+int(size):]
	}
	return out, nil
}

// readVarUint32 decodes a LEB128-encoded uint32 from the front of b,
// returning the value and the number of bytes consumed.
func readVarUint32(b []byte) (uint32, int, error) {
	var result uint32
	var shift uint
	for i, c := range b {
		result |= uint32(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, 0, fmt.Errorf("witsource: LEB128 value overflows uint32")
		}
	}
	return 0, 0, fmt.Errorf("witsource: truncated LEB128 value")
}

// readName decodes a Wasm "name" value (a LEB128 length followed by that
// many UTF-8 bytes) from the front of b, as found at the start of every
// custom section's body.
func readName(b []byte) (string, int, error) {
	size, n, err := readVarUint32(b)
	if err != nil {
		return "", 0, err
	}
	if n+int(size) > len(b) {
		return "", 0, fmt.Errorf("witsource: truncated section name")
	}
	return string(b[n : n+int(size)]), n + int(size), nil
}
