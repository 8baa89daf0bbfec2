package shrinkwrap

import "github.com/wireweaver-go/wireweaver/bitbuf"

// yearBits is the wire width of Year: a 19-bit two's complement field, wide
// enough for -262144..262143 but with the two lowest and two highest values
// reserved, leaving a usable domain of -262142..262141. Year is the canonical example of a
// ShrinkWrap subtype: a plain sized integer on the wire whose Go type
// narrows the set of values considered valid.
const yearBits = 19

// MinYear and MaxYear bound Year's valid domain.
const (
	MinYear = -262142
	MaxYear = 262141
)

// Year is a 19-bit signed year offset with the two lowest and two highest
// values excluded from its valid range.
type Year int32

// ShrinkWrapElementSize reports Year as a fixed 19-bit field.
func (Year) ShrinkWrapElementSize() ElementSize { return Sized(yearBits) }

// SerShrinkWrap writes y as 19 bits two's complement, failing with
// SubtypeOutOfRangeError if y falls outside [MinYear, MaxYear].
func (y Year) SerShrinkWrap(wr *bitbuf.BufWriter) error {
	if y < MinYear || y > MaxYear {
		return &SubtypeOutOfRangeError{TypeName: "Year", Value: int64(y)}
	}
	return wr.WriteIN(yearBits, int64(y))
}

// DesShrinkWrap reads a 19-bit two's complement value and rejects it with
// SubtypeOutOfRangeError if it falls outside Year's valid domain, even
// though the bit width could represent it.
func (y *Year) DesShrinkWrap(rd *bitbuf.BufReader) error {
	v, err := rd.ReadIN(yearBits)
	if err != nil {
		return err
	}
	if v < MinYear || v > MaxYear {
		return &SubtypeOutOfRangeError{TypeName: "Year", Value: v}
	}
	*y = Year(v)
	return nil
}
