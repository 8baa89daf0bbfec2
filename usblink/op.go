// Package usblink implements WireWeaver-USB Link: a framed message transport
// that multiplexes arbitrary-length application messages over fixed-size USB
// packets. It performs fragmentation/reassembly, a CRC-16 integrity check,
// link setup (version negotiation), keep-alive, and graceful disconnect.
//
// The link is single-threaded and synchronous: PacketSink/PacketSource are
// plain blocking interfaces rather than async traits, matching the Design
// Note in spec.md that a blocking pair composes with the same receiver state
// machine. Callers that want non-blocking behavior run a Link in its own
// goroutine.
package usblink

// Op is the 4-bit record opcode. Only 8 of 16 values are implemented; the
// rest are reserved (some named after host-side enumerations that exist in
// the original protocol but are not wired into this canonical set, per
// spec.md §9's Open Question) and must be skipped using the record's length
// field rather than failing the link.
type Op uint8

const (
	OpNop Op = 0

	// OpGetDeviceInfo and OpDeviceInfo are reserved: defined in the original
	// protocol's opcode table but out of this spec's canonical set.
	OpGetDeviceInfo Op = 1
	OpDeviceInfo    Op = 2

	OpLinkSetup Op = 3

	// OpLinkReady is reserved, same reason as OpGetDeviceInfo.
	OpLinkReady Op = 4

	OpMessageStart    Op = 5
	OpMessageContinue Op = 6
	OpMessageEnd      Op = 7
	OpMessageStartEnd Op = 8
	OpPing            Op = 9

	// OpGetStats, OpStats and OpLoopback are reserved for the same reason.
	OpGetStats Op = 10
	OpStats    Op = 11
	OpLoopback Op = 12

	// 13 and 14 are unassigned.

	OpDisconnect Op = 15
)

// implemented reports whether op has sender/receiver logic in this package.
// Anything else is a reserved or unassigned opcode and must be skipped, never
// treated as a protocol failure.
func (op Op) implemented() bool {
	switch op {
	case OpNop, OpLinkSetup, OpMessageStart, OpMessageContinue, OpMessageEnd,
		OpMessageStartEnd, OpPing, OpDisconnect:
		return true
	default:
		return false
	}
}

func (op Op) String() string {
	switch op {
	case OpNop:
		return "Nop"
	case OpGetDeviceInfo:
		return "GetDeviceInfo"
	case OpDeviceInfo:
		return "DeviceInfo"
	case OpLinkSetup:
		return "LinkSetup"
	case OpLinkReady:
		return "LinkReady"
	case OpMessageStart:
		return "MessageStart"
	case OpMessageContinue:
		return "MessageContinue"
	case OpMessageEnd:
		return "MessageEnd"
	case OpMessageStartEnd:
		return "MessageStartEnd"
	case OpPing:
		return "Ping"
	case OpGetStats:
		return "GetStats"
	case OpStats:
		return "Stats"
	case OpLoopback:
		return "Loopback"
	case OpDisconnect:
		return "Disconnect"
	default:
		return "Reserved"
	}
}
