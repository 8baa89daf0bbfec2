package crc16

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestChecksum_KnownVector pins the algorithm to the CCITT-FALSE variant:
// "123456789" must checksum to 0x29B1, the standard test vector for this
// polynomial/init/xorout combination (distinct from the reflected variants).
func TestChecksum_KnownVector(t *testing.T) {
	assert.Equal(t, uint16(0x29B1), Checksum([]byte("123456789")))
}

func TestChecksum_Empty(t *testing.T) {
	assert.Equal(t, uint16(0xFFFF), Checksum(nil))
}

// TestWriter_MatchesChecksum verifies that folding a message across several
// Write calls produces the same result as hashing it in one shot.
func TestWriter_MatchesChecksum(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog")
	want := Checksum(msg)

	w := NewWriter()
	w.Write(msg[:10])
	w.Write(msg[10:20])
	w.Write(msg[20:])
	assert.Equal(t, want, w.Sum())
}

// TestChecksum_SingleByteFlip verifies the CRC law from spec.md §8.5: mutating
// any single byte of the message must change the checksum.
func TestChecksum_SingleByteFlip(t *testing.T) {
	msg := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	base := Checksum(msg)
	for i := range msg {
		mutated := append([]byte(nil), msg...)
		mutated[i] ^= 0xFF
		assert.NotEqual(t, base, Checksum(mutated), "byte %d flip did not change CRC", i)
	}
}

func TestWriter_Reset(t *testing.T) {
	w := NewWriter()
	w.Write([]byte{1, 2, 3})
	w.Reset()
	w.Write([]byte{4, 5, 6})
	assert.Equal(t, Checksum([]byte{4, 5, 6}), w.Sum())
}
