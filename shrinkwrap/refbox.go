package shrinkwrap

import (
	"github.com/wireweaver-go/wireweaver/bitbuf"
	"github.com/wireweaver-go/wireweaver/varint"
)

// RefBox wraps a value that must always be self-describing: it is preceded
// by a Nib16 byte length of its own serialized payload, so it can be placed
// anywhere in a record (including a non-terminal field) without the
// enclosing record having to reserve a LenSlot for it. Unlike a relocated
// LenSlot, the prefix sits immediately before the payload rather than at the
// record's tail, so it is written by reserving the prefix's fixed worst-case
// width forward, serializing the payload directly afterward (sharing the
// same writer and its reverse cursor, so the payload's own flags and
// LenSlots, if any, land in the right place), then patching the reserved
// nibbles once the payload's length is known.
type RefBox[T SerializeShrinkWrap] struct {
	Value T
}

// ShrinkWrapElementSize reports RefBox as self-describing regardless of what
// T's own ElementSize is.
func (RefBox[T]) ShrinkWrapElementSize() ElementSize { return SelfDescribing() }

// SerShrinkWrap writes the forward Nib16 length prefix followed by the boxed
// value's own encoding.
func (b RefBox[T]) SerShrinkWrap(wr *bitbuf.BufWriter) error {
	handle, err := varint.ReserveNib16Fwd(wr)
	if err != nil {
		return err
	}
	before := wr.Tell()
	if err := b.Value.SerShrinkWrap(wr); err != nil {
		return err
	}
	if err := wr.AlignByte(); err != nil {
		return err
	}
	byteLen := (wr.Tell() - before) / 8
	if byteLen > 0xFFFF {
		return ErrItemTooLong
	}
	return varint.PatchNib16Fwd(wr, handle, uint16(byteLen))
}

// DesRefBox reads a RefBox's length prefix and deserializes T from exactly
// that many bytes, sharing rd's reverse cursor with the rest of the message
// for the duration.
func DesRefBox[T any, PT PtrDes[T]](rd *bitbuf.BufReader) (T, error) {
	var zero T
	n, err := varint.ReadNib16Forward(rd)
	if err != nil {
		return zero, err
	}
	prev, err := rd.PushFwdLimit(int(n))
	if err != nil {
		return zero, err
	}
	defer rd.PopFwdLimit(prev)
	p := PT(&zero)
	if err := p.DesShrinkWrap(rd); err != nil {
		return zero, err
	}
	return zero, nil
}
