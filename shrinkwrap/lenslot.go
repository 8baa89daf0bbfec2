package shrinkwrap

import (
	"github.com/wireweaver-go/wireweaver/bitbuf"
	"github.com/wireweaver-go/wireweaver/varint"
)

// LenSlot is a reverse-encoded Nib16 length reservation for a struct field or
// enum variant body whose byte length is only known after it has been
// written. Reserve before writing the content, write the content, align to a
// byte boundary, then Patch with the byte count measured in between.
type LenSlot struct {
	handle int
}

// ReserveLenSlot reserves worst-case space for a LenSlot at wr's current
// reverse cursor.
func ReserveLenSlot(wr *bitbuf.BufWriter) (LenSlot, error) {
	h, err := varint.ReserveNib16Rev(wr)
	return LenSlot{handle: h}, err
}

// Patch fills the slot with the byte length of whatever was written between
// ReserveLenSlot and this call. ErrItemTooLong is returned if it does not fit
// in a Nib16 (more than 65535 bytes).
func (s LenSlot) Patch(wr *bitbuf.BufWriter, byteLen int) error {
	if byteLen < 0 || byteLen > 0xFFFF {
		return ErrItemTooLong
	}
	return varint.PatchNib16Rev(wr, s.handle, uint16(byteLen))
}

// ReadLenSlot reads a Nib16 length previously written via LenSlot.Patch, off
// rd's reverse cursor. Slots are consumed in the same order they were
// reserved: the reverse cursor's first-reserved-first-read ordering lets a
// struct's non-terminal fields be parsed in declaration order.
func ReadLenSlot(rd *bitbuf.BufReader) (int, error) {
	n, err := varint.ReadNib16Reversed(rd)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
