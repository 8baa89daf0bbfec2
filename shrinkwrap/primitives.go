package shrinkwrap

import (
	"github.com/wireweaver-go/wireweaver/bitbuf"
	"github.com/wireweaver-go/wireweaver/varint"
)

// WriteI8 writes a signed byte, byte-aligned, two's complement.
func WriteI8(wr *bitbuf.BufWriter, v int8) error { return wr.WriteU8(uint8(v)) }

// ReadI8 reads a signed byte written by WriteI8.
func ReadI8(rd *bitbuf.BufReader) (int8, error) {
	v, err := rd.ReadU8()
	return int8(v), err
}

// WriteI16 writes a signed 16-bit value, byte-aligned, little-endian two's
// complement.
func WriteI16(wr *bitbuf.BufWriter, v int16) error { return wr.WriteU16(uint16(v)) }

// ReadI16 reads a signed 16-bit value written by WriteI16.
func ReadI16(rd *bitbuf.BufReader) (int16, error) {
	v, err := rd.ReadU16()
	return int16(v), err
}

// WriteI32 writes a signed 32-bit value, byte-aligned, little-endian two's
// complement.
func WriteI32(wr *bitbuf.BufWriter, v int32) error { return wr.WriteU32(uint32(v)) }

// ReadI32 reads a signed 32-bit value written by WriteI32.
func ReadI32(rd *bitbuf.BufReader) (int32, error) {
	v, err := rd.ReadU32()
	return int32(v), err
}

// WriteI64 writes a signed 64-bit value, byte-aligned, little-endian two's
// complement.
func WriteI64(wr *bitbuf.BufWriter, v int64) error { return wr.WriteU64(uint64(v)) }

// ReadI64 reads a signed 64-bit value written by WriteI64.
func ReadI64(rd *bitbuf.BufReader) (int64, error) {
	v, err := rd.ReadU64()
	return int64(v), err
}

// WriteU128 writes a 128-bit unsigned value, byte-aligned, as hi:lo 64-bit
// halves, the widest entry in the fixed-width typed-value table. Go has no
// native 128-bit integer, so callers split the value into its high and low
// 64-bit halves themselves.
func WriteU128(wr *bitbuf.BufWriter, hi, lo uint64) error { return wr.WriteU128(hi, lo) }

// ReadU128 reads a 128-bit unsigned value written by WriteU128.
func ReadU128(rd *bitbuf.BufReader) (hi, lo uint64, err error) { return rd.ReadU128() }

// WriteI128 writes a signed 128-bit two's-complement value as hi:lo halves;
// hi carries the sign bit.
func WriteI128(wr *bitbuf.BufWriter, hi int64, lo uint64) error {
	return wr.WriteU128(uint64(hi), lo)
}

// ReadI128 reads a signed 128-bit value written by WriteI128.
func ReadI128(rd *bitbuf.BufReader) (hi int64, lo uint64, err error) {
	hiU, loV, err := rd.ReadU128()
	if err != nil {
		return 0, 0, err
	}
	return int64(hiU), loV, nil
}

// WriteIN writes an arbitrary-width (2..63 bit) signed two's-complement
// value; the general form Year's fixed-width encoding specializes.
func WriteIN(wr *bitbuf.BufWriter, n int, v int64) error { return wr.WriteIN(n, v) }

// ReadIN reads a value written by WriteIN, sign-extending it back to int64.
func ReadIN(rd *bitbuf.BufReader, n int) (int64, error) { return rd.ReadIN(n) }

// WriteVarU32 writes v as a forward UNib32, used for enum discriminants
// declared with a UNib32 representation and for standalone variable-length
// counts that are not struct-field lengths.
func WriteVarU32(wr *bitbuf.BufWriter, v uint32) error {
	return varint.UNib32(v).WriteForward(wr)
}

// ReadVarU32 reads a value written by WriteVarU32.
func ReadVarU32(rd *bitbuf.BufReader) (uint32, error) {
	v, err := varint.ReadUNib32Forward(rd)
	return uint32(v), err
}

// WriteVarU16 writes v as a forward Nib16, used for Vec element counts and
// small enum discriminants.
func WriteVarU16(wr *bitbuf.BufWriter, v uint16) error {
	return varint.Nib16(v).WriteForward(wr)
}

// ReadVarU16 reads a value written by WriteVarU16.
func ReadVarU16(rd *bitbuf.BufReader) (uint16, error) {
	v, err := varint.ReadNib16Forward(rd)
	return uint16(v), err
}
