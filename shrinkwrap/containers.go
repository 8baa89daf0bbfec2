package shrinkwrap

import (
	"github.com/wireweaver-go/wireweaver/bitbuf"
)

// PtrDes is satisfied by *T for any T whose zero value can be deserialized in
// place, letting generic Des helpers construct a T without a reflection-based
// "new instance of the type parameter" step.
type PtrDes[T any] interface {
	*T
	DeserializeShrinkWrap
}

// SerOption writes an Option's presence bit to wr's reverse cursor, at the
// point the field is reached, and the value inline if present. The payload
// is written immediately; callers whose payload is UnsizedFinalStructure and
// not the record's terminal field must wrap it in a LenSlot themselves, same
// as any other non-terminal unsized field.
func SerOption[T SerializeShrinkWrap](wr *bitbuf.BufWriter, present bool, v T) error {
	if err := WriteFlag(wr, present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return v.SerShrinkWrap(wr)
}

// DesOption reads an Option's presence bit from rd's reverse cursor and, if
// present, deserializes the payload into a new T. Must be called at the
// matching point in field order relative to the SerOption call it mirrors.
func DesOption[T any, PT PtrDes[T]](rd *bitbuf.BufReader) (T, bool, error) {
	var zero T
	if !ReadFlag(rd) {
		return zero, false, nil
	}
	p := PT(&zero)
	if err := p.DesShrinkWrap(rd); err != nil {
		return zero, false, err
	}
	return zero, true, nil
}

// SerResult writes a Result's is_ok bit to wr's reverse cursor and then
// whichever of the ok/err payloads applies.
func SerResult[T, E SerializeShrinkWrap](wr *bitbuf.BufWriter, ok bool, okVal T, errVal E) error {
	if err := WriteFlag(wr, ok); err != nil {
		return err
	}
	if ok {
		return okVal.SerShrinkWrap(wr)
	}
	return errVal.SerShrinkWrap(wr)
}

// DesResult reads a Result's is_ok bit from rd's reverse cursor and
// deserializes the matching payload.
func DesResult[T any, PT PtrDes[T], E any, PE PtrDes[E]](rd *bitbuf.BufReader) (okVal T, errVal E, ok bool, err error) {
	ok = ReadFlag(rd)
	if ok {
		p := PT(&okVal)
		err = p.DesShrinkWrap(rd)
		return
	}
	p := PE(&errVal)
	err = p.DesShrinkWrap(rd)
	return
}

// SerVecSized writes a Vec whose element type is statically Sized: a forward
// Nib16 element count followed by the elements themselves. The count alone
// lets a reader determine the Vec's full extent, so a Vec of Sized elements
// never needs a LenSlot from its enclosing record even when it is not the
// last field.
func SerVecSized[T SerializeShrinkWrap](wr *bitbuf.BufWriter, items []T) error {
	if err := WriteVarU16(wr, uint16(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := it.SerShrinkWrap(wr); err != nil {
			return err
		}
	}
	return nil
}

// DesVecSized reads a Vec written by SerVecSized.
func DesVecSized[T any, PT PtrDes[T]](rd *bitbuf.BufReader) ([]T, error) {
	n, err := ReadVarU16(rd)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		p := PT(&out[i])
		if err := p.DesShrinkWrap(rd); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SerVecUnsizedFinal writes a Vec of Unsized elements with no count prefix:
// elements are simply concatenated, and a reader consumes them until its
// bounded extent runs out. Legal only as a record's terminal field, or
// behind a LenSlot reserved by the caller around this call.
func SerVecUnsizedFinal[T SerializeShrinkWrap](wr *bitbuf.BufWriter, items []T) error {
	for _, it := range items {
		if err := it.SerShrinkWrap(wr); err != nil {
			return err
		}
	}
	return nil
}

// DesVecUnsizedFinal reads elements from rd until its current forward limit
// is exhausted. rd must already be bounded to exactly this Vec's extent (via
// BufReader.PushFwdLimit against a length learned from a LenSlot, or because
// this is the outermost reader for a terminal field).
func DesVecUnsizedFinal[T any, PT PtrDes[T]](rd *bitbuf.BufReader) ([]T, error) {
	var out []T
	for rd.FwdBitsLeft() > 0 {
		var v T
		p := PT(&v)
		if err := p.DesShrinkWrap(rd); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
