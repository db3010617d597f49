package ebstack

import "fmt"

// Ref is a stamped reference to an allocator slot.
// The low 32 bits hold the slot index and the high 32 bits hold the generation stamp.
// Index 0 is the nil reference, so the zero Ref is nil.
type Ref uint64

const (
	indexBits = 32
	indexMask = 1<<indexBits - 1

	nilRef Ref = 0
)

// MakeRef packs a slot index and a generation stamp
func MakeRef(index, stamp uint32) Ref {
	return Ref(uint64(stamp)<<indexBits | uint64(index))
}

// Index returns the slot index
func (r Ref) Index() uint32 { return uint32(r & indexMask) }

// Stamp returns the generation stamp
func (r Ref) Stamp() uint32 { return uint32(r >> indexBits) }

// WithStamp returns a copy of r carrying stamp s
func (r Ref) WithStamp(s uint32) Ref { return MakeRef(r.Index(), s) }

// IncStamp returns a copy of r with its stamp advanced by one.
// The stamp wraps to 0 after math.MaxUint32.
func (r Ref) IncStamp() Ref { return r.WithStamp(r.Stamp() + 1) }

// IsNil reports whether r points at no slot
func (r Ref) IsNil() bool { return r.Index() == 0 }

func (r Ref) String() string {
	if r.IsNil() {
		return "Ref(nil)"
	}
	return fmt.Sprintf("Ref(%d@%d)", r.Index(), r.Stamp())
}
