package shrinkwrap

import "github.com/wireweaver-go/wireweaver/bitbuf"

// WriteFlag writes one relocated is_some/is_ok bit to the writer's shared
// reverse cursor, at the point an Option or Result field is serialized. Flags
// interleave naturally with sibling fields' LenSlot reservations on the same
// reverse cursor; since both writer and reader consume that cursor in the
// same field-declaration order, no separate buffering or per-struct
// isolation is needed to keep them lined up.
func WriteFlag(wr *bitbuf.BufWriter, present bool) error {
	return wr.WriteBoolRev(present)
}

// ReadFlag reads one flag written by WriteFlag. Past the end of the buffer
// (an older payload that predates this Option/Result field) it returns
// false rather than an error, per the wire-compatibility rule that lets a
// struct gain new optional fields without breaking readers built against an
// older field count.
func ReadFlag(rd *bitbuf.BufReader) bool {
	v, err := rd.ReadBoolRev()
	if err != nil {
		return false
	}
	return v
}
