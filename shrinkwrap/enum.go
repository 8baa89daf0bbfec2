package shrinkwrap

import "github.com/wireweaver-go/wireweaver/bitbuf"

// EnumRepr selects the wire width of an enum's discriminant.
type EnumRepr int

const (
	ReprU4 EnumRepr = iota
	ReprU8
	ReprU16
	ReprU32
	ReprUNib32
)

// WriteDiscriminant writes an enum tag in the given representation.
func WriteDiscriminant(wr *bitbuf.BufWriter, repr EnumRepr, tag uint32) error {
	switch repr {
	case ReprU4:
		return wr.WriteU4(uint8(tag))
	case ReprU8:
		return wr.WriteU8(uint8(tag))
	case ReprU16:
		return wr.WriteU16(uint16(tag))
	case ReprU32:
		return wr.WriteU32(tag)
	default:
		return WriteVarU32(wr, tag)
	}
}

// ReadDiscriminant reads an enum tag written by WriteDiscriminant.
func ReadDiscriminant(rd *bitbuf.BufReader, repr EnumRepr) (uint32, error) {
	switch repr {
	case ReprU4:
		v, err := rd.ReadU4()
		return uint32(v), err
	case ReprU8:
		v, err := rd.ReadU8()
		return uint32(v), err
	case ReprU16:
		v, err := rd.ReadU16()
		return uint32(v), err
	case ReprU32:
		return rd.ReadU32()
	default:
		return ReadVarU32(rd)
	}
}

// BeginVariantBody reserves a LenSlot ahead of a skippable (not
// #[final_structure]) enum variant's body, so a reader that does not
// recognise this variant's discriminant can still skip past it using the
// patched length. Closed enums, where the variant body is always the last
// thing in the record and unknown discriminants are a hard error, do not
// call this.
func BeginVariantBody(wr *bitbuf.BufWriter) (LenSlot, int, error) {
	slot, err := ReserveLenSlot(wr)
	return slot, wr.Tell(), err
}

// EndVariantBody patches the slot reserved by BeginVariantBody with the byte
// length of the variant body written since then.
func EndVariantBody(wr *bitbuf.BufWriter, slot LenSlot, bitsBefore int) error {
	if err := wr.AlignByte(); err != nil {
		return err
	}
	byteLen := (wr.Tell() - bitsBefore) / 8
	return slot.Patch(wr, byteLen)
}

// SkipVariantBody reads a LenSlot's length and skips that many bytes forward,
// used by a reader that encounters a discriminant it does not recognise in a
// skippable enum. Returns EnumFutureVersionError-shaped context is the
// caller's responsibility; this only performs the skip.
func SkipVariantBody(rd *bitbuf.BufReader) error {
	n, err := ReadLenSlot(rd)
	if err != nil {
		return err
	}
	return rd.Skip(n)
}
