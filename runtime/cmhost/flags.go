package cmhost

// Flags is the host-side representation of a WIT flags type: a bitset
// whose bit positions follow WIT declaration order (spec.md §4.5). A
// 64-bit backing store comfortably covers every flags type this generator
// accepts; WIT flags with more than 64 members are rejected by the type
// definition emitter as an unsupported construct, matching the Canonical
// ABI's own practical ceiling on flattened flag storage.
type Flags uint64

// IsSet reports whether bit is set.
func (f Flags) IsSet(bit uint) bool {
	return f&(1<<bit) != 0
}

// Set returns f with bit set.
func (f Flags) Set(bit uint) Flags {
	return f | (1 << bit)
}

// Clear returns f with bit cleared.
func (f Flags) Clear(bit uint) Flags {
	return f &^ (1 << bit)
}
