// Package varint implements the two nibble-based variable length integer
// encodings ShrinkWrap uses for lengths and enum discriminants: UNib32 (up to
// 11 nibbles, carries a uint32, chunked least-significant-nibble first) and
// Nib16 (up to 6 nibbles, carries a uint16, chunked most-significant-nibble
// first). Each has a forward form (written at the writer's current forward
// position) and a reversed form (written nibble-by-nibble at the writer's
// reverse cursor, used for length slots whose value is not known until after
// the content they describe has already been serialized). In both forms
// every nibble but the last one written carries a continuation bit.
package varint

import (
	"errors"

	"github.com/wireweaver-go/wireweaver/bitbuf"
)

// continuationBit marks "one more nibble follows" in both encodings.
const continuationBit = 0b1000

// ErrMalformedUNib32 is returned when an 11-nibble UNib32 still has its
// continuation bit set, which can never happen in a canonically encoded value.
var ErrMalformedUNib32 = errors.New("varint: malformed UNib32 (11th nibble has continuation bit set)")

// ErrMalformedNib16 is returned when a 6-nibble Nib16 still has its
// continuation bit set.
var ErrMalformedNib16 = errors.New("varint: malformed Nib16 (6th nibble has continuation bit set)")

// UNib32 is a variable-length encoding of a uint32 across 1 to 11 nibbles.
type UNib32 uint32

// Nib16 is a variable-length encoding of a uint16 across 1 to 6 nibbles.
type Nib16 uint16

func uNib32LenNibbles(v uint32) int {
	if v == 0 {
		return 1
	}
	bits := 32
	for (v>>uint(bits-1))&1 == 0 {
		bits--
	}
	return (bits + 2) / 3
}

func nib16LenNibbles(v uint16) int {
	switch {
	case v <= 7:
		return 1
	case v <= 63:
		return 2
	case v <= 511:
		return 3
	case v <= 4095:
		return 4
	case v <= 32767:
		return 5
	default:
		return 6
	}
}

// uNib32Chunks splits v into its nibble sequence least-significant-chunk
// first, continuation bit set on every chunk but the last (most significant,
// i.e. final) one. This order and convention is shared by both UNib32's
// forward and reversed forms.
func uNib32Chunks(v uint32) []byte {
	n := uNib32LenNibbles(v)
	out := make([]byte, n)
	val := v
	for i := 0; i < n; i++ {
		nib := uint8(val & 0b111)
		if i != n-1 {
			nib |= continuationBit
		}
		out[i] = nib
		val >>= 3
	}
	return out
}

// nib16Chunks splits v into its nibble sequence most-significant-chunk
// first, continuation bit set on every chunk but the last (least
// significant) one. This order and convention is shared by both Nib16's
// forward and reversed forms.
func nib16Chunks(v uint16) []byte {
	return nib16ChunksWidth(v, nib16LenNibbles(v))
}

// nib16ChunksWidth is nib16Chunks forced to exactly width nibbles (width must
// be >= the value's natural nibble count), padding with leading zero chunks.
// The decoder follows continuation bits regardless of whether the high
// chunks happen to be zero, so this over-long form decodes to the same value
// as the minimal one; it lets a fixed-width slot be reserved ahead of time
// for a length that is not yet known, such as RefBox's inline prefix.
func nib16ChunksWidth(v uint16, width int) []byte {
	out := make([]byte, width)
	shift := uint((width - 1) * 3)
	val := uint32(v)
	for i := 0; i < width; i++ {
		nib := uint8((val >> shift) & 0b111)
		if i != width-1 {
			nib |= continuationBit
		}
		out[i] = nib
		if shift >= 3 {
			shift -= 3
		}
	}
	return out
}

// WriteForward writes v as its nibble chunk sequence at the writer's current
// forward position.
func (v UNib32) WriteForward(w *bitbuf.BufWriter) error {
	for _, nib := range uNib32Chunks(uint32(v)) {
		if err := w.WriteU4(nib); err != nil {
			return err
		}
	}
	return nil
}

// WriteReversed writes v's nibble chunk sequence at the writer's current
// reverse cursor. Use this when v is already known; for deferred values,
// reserve a slot with ReserveNib16Rev/PatchNib16Rev instead (only Nib16
// lengths are reserved ahead of time in this package).
func (v UNib32) WriteReversed(w *bitbuf.BufWriter) error {
	for _, nib := range uNib32Chunks(uint32(v)) {
		if err := w.WriteU4Rev(nib); err != nil {
			return err
		}
	}
	return nil
}

func readUNib32Chunks(next func() (uint8, error)) (UNib32, error) {
	var num uint32
	offset := uint(0)
	for i := 0; i <= 10; i++ {
		nib, err := next()
		if err != nil {
			return 0, err
		}
		if i == 10 && nib&continuationBit != 0 {
			return 0, ErrMalformedUNib32
		}
		num |= uint32(nib&0b111) << offset
		if nib&continuationBit == 0 {
			break
		}
		offset += 3
	}
	return UNib32(num), nil
}

// ReadUNib32Forward reads a UNib32 written by WriteForward.
func ReadUNib32Forward(r *bitbuf.BufReader) (UNib32, error) {
	return readUNib32Chunks(r.ReadU4)
}

// ReadUNib32Reversed reads a UNib32 written by WriteReversed.
func ReadUNib32Reversed(r *bitbuf.BufReader) (UNib32, error) {
	return readUNib32Chunks(r.ReadU4Rev)
}

// WriteForward writes v as its nibble chunk sequence at the writer's current
// forward position.
func (v Nib16) WriteForward(w *bitbuf.BufWriter) error {
	for _, nib := range nib16Chunks(uint16(v)) {
		if err := w.WriteU4(nib); err != nil {
			return err
		}
	}
	return nil
}

// WriteReversed writes v's nibble chunk sequence at the writer's current
// reverse cursor. Prefer this only when v is already known at the call
// site; struct/enum length slots that are not yet known use
// ReserveNib16Rev + PatchNib16Rev.
func (v Nib16) WriteReversed(w *bitbuf.BufWriter) error {
	for _, nib := range nib16Chunks(uint16(v)) {
		if err := w.WriteU4Rev(nib); err != nil {
			return err
		}
	}
	return nil
}

func readNib16Chunks(next func() (uint8, error)) (Nib16, error) {
	var num uint16
	for i := 0; i <= 5; i++ {
		nib, err := next()
		if err != nil {
			return 0, err
		}
		if i == 5 && nib&continuationBit != 0 {
			return 0, ErrMalformedNib16
		}
		num = num<<3 | uint16(nib&0b111)
		if nib&continuationBit == 0 {
			break
		}
	}
	return Nib16(num), nil
}

// ReadNib16Forward reads a Nib16 written by WriteForward.
func ReadNib16Forward(r *bitbuf.BufReader) (Nib16, error) {
	return readNib16Chunks(r.ReadU4)
}

// ReadNib16Reversed reads a Nib16 written by WriteReversed or patched in by
// PatchNib16Rev.
func ReadNib16Reversed(r *bitbuf.BufReader) (Nib16, error) {
	return readNib16Chunks(r.ReadU4Rev)
}

// MaxNib16RevNibbles is the worst-case nibble width reserved by
// ReserveNib16Rev before the true value is known.
const MaxNib16RevNibbles = 6

// ReserveNib16Rev reserves worst-case space for a Nib16 at the writer's
// current reverse cursor, to be filled in later by PatchNib16Rev once the
// value (typically a field or variant byte length) is known.
func ReserveNib16Rev(w *bitbuf.BufWriter) (int, error) {
	return w.ReserveRevNibbles(MaxNib16RevNibbles)
}

// PatchNib16Rev fills a slot previously reserved by ReserveNib16Rev with v,
// releasing any unused reserved capacity back to the reverse cursor when
// nothing has been nested inside the reservation (see PatchRevNibbles).
func PatchNib16Rev(w *bitbuf.BufWriter, handle int, v uint16) error {
	return w.PatchRevNibbles(handle, MaxNib16RevNibbles, nib16Chunks(v))
}

// ReserveNib16Fwd reserves fixed-width (MaxNib16RevNibbles) nibble space for
// a Nib16 at the writer's current forward cursor, to be filled in later by
// PatchNib16Fwd once the value is known. Used for an inline length prefix
// (e.g. RefBox's) that must precede its payload rather than sit in the
// record's tail reverse region.
func ReserveNib16Fwd(w *bitbuf.BufWriter) (int, error) {
	return w.ReserveFwdNibbles(MaxNib16RevNibbles)
}

// PatchNib16Fwd fills a slot previously reserved by ReserveNib16Fwd with v,
// encoded at the full fixed width so the reservation's byte length never
// changes.
func PatchNib16Fwd(w *bitbuf.BufWriter, handle int, v uint16) error {
	return w.PatchFwdNibbles(handle, nib16ChunksWidth(v, MaxNib16RevNibbles))
}
