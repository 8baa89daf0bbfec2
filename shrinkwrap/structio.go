package shrinkwrap

import "github.com/wireweaver-go/wireweaver/bitbuf"

// StructWriter bundles the buffer a hand-written struct Ser method needs, in
// the same spirit as the teacher's cser.Writer pairing a bit writer with a
// byte writer. Option/Result fields write their relocated presence flag
// directly to BW's reverse cursor as they are serialized; there is nothing to
// flush at the end.
type StructWriter struct {
	BW *bitbuf.BufWriter
}

// NewStructWriter wraps wr for a single struct or enum variant body.
func NewStructWriter(wr *bitbuf.BufWriter) *StructWriter {
	return &StructWriter{BW: wr}
}

// BeginUnsizedField reserves a LenSlot for a non-terminal field whose
// ElementSize.NeedsLenSlot() is true. Skip this call for the record's
// terminal field (if unsized) and for Sized or SelfDescribing fields.
func (s *StructWriter) BeginUnsizedField() (LenSlot, error) {
	return ReserveLenSlot(s.BW)
}

// EndUnsizedField patches a slot returned by BeginUnsizedField with the byte
// length written since then, after aligning to a byte boundary.
func (s *StructWriter) EndUnsizedField(slot LenSlot, bitsBefore int) error {
	if err := s.BW.AlignByte(); err != nil {
		return err
	}
	byteLen := (s.BW.Tell() - bitsBefore) / 8
	return slot.Patch(s.BW, byteLen)
}

// StructReader mirrors StructWriter for deserialization. rd must already be
// bounded to exactly this struct's extent: the outermost reader for a
// terminal/top-level value, or the same shared reader narrowed by an
// enclosing BeginUnsizedField call for a nested one. Option/Result fields
// read their presence flag directly off RD's reverse cursor as they are
// parsed, in the same order SerOption/SerResult wrote them.
type StructReader struct {
	RD *bitbuf.BufReader
}

// NewStructReader wraps rd for parsing a struct's fields in declaration
// order.
func NewStructReader(rd *bitbuf.BufReader) *StructReader {
	return &StructReader{RD: rd}
}

// BeginUnsizedField reads a LenSlot's length off RD's reverse cursor and
// narrows RD's forward limit to exactly that many bytes, since the field's
// own flags and LenSlots (if it has any) belong to the same shared reverse
// region as everything else in the record and must not be isolated behind
// an independent sub-reader. Pass the returned handle to EndUnsizedField
// once the field has been fully parsed.
func (s *StructReader) BeginUnsizedField() (int, error) {
	n, err := ReadLenSlot(s.RD)
	if err != nil {
		return 0, err
	}
	return s.RD.PushFwdLimit(n)
}

// EndUnsizedField restores the forward limit saved by BeginUnsizedField,
// letting parsing continue into this record's remaining fields.
func (s *StructReader) EndUnsizedField(prevLimit int) {
	s.RD.PopFwdLimit(prevLimit)
}
