package usblink

import (
	"errors"
	"fmt"

	"github.com/wireweaver-go/wireweaver/bitbuf"
	"github.com/wireweaver-go/wireweaver/crc16"
)

// LinkProtocolVersion is the wire version of this framing layer itself,
// exchanged during LinkSetup and distinct from any higher-level user protocol
// version.
const LinkProtocolVersion uint8 = 1

// MinMessageSize is the remote_max_message_size assumed before a link has
// completed its handshake.
const MinMessageSize = 64

// MaxRecordPayload is the largest payload a single record's 12-bit length
// field can carry. A message bigger than this must be fragmented across
// MessageStart/MessageContinue/MessageEnd records.
const MaxRecordPayload = 4095

// Sentinel errors from spec.md §7's ShrinkWrap-independent link taxonomy.
// Transport failures are wrapped with fmt.Errorf("%w", ...) rather than
// carried as a generic type parameter, since Go error values already compose
// with errors.Is/errors.As without needing Error[T, R].
var (
	ErrInternalBufOverflow      = errors.New("usblink: internal buffer overflow")
	ErrReceivedEmptyPacket      = errors.New("usblink: received empty packet")
	ErrEmptyMessage             = errors.New("usblink: message is empty")
	ErrMessageTooBig            = errors.New("usblink: message exceeds remote max message size")
	ErrProtocolsVersionMismatch = errors.New("usblink: protocols version mismatch")
	ErrDisconnected             = errors.New("usblink: link is disconnected")
)

// sinkError wraps a PacketSink failure so callers can still errors.Is/As
// against the underlying transport error.
func sinkError(err error) error { return fmt.Errorf("usblink: sink error: %w", err) }

// sourceError wraps a PacketSource failure the same way.
func sourceError(err error) error { return fmt.Errorf("usblink: source error: %w", err) }

// PacketSink writes one complete packet to the transport.
type PacketSink interface {
	WritePacket(data []byte) error
}

// PacketSource reads one packet into buf, returning the number of bytes
// filled. A return of (0, nil) is a valid empty packet.
type PacketSource interface {
	ReadPacket(buf []byte) (int, error)
}

// USBConnectionWaiter is an optional capability a device-side PacketSource
// may implement: block until the physical USB cable is connected and the
// interface is enabled. Host-side transports need not implement it.
type USBConnectionWaiter interface {
	WaitUSBConnection()
}

// ProtocolInfo identifies the higher-level user protocol running over this
// link, exchanged (but not interpreted) during LinkSetup.
type ProtocolInfo struct {
	ProtocolID uint8
	Major      uint8
	Minor      uint8
}

func writeProtocolInfo(wr *bitbuf.BufWriter, p ProtocolInfo) error {
	if err := wr.WriteU8(p.ProtocolID); err != nil {
		return err
	}
	if err := wr.WriteU8(p.Major); err != nil {
		return err
	}
	return wr.WriteU8(p.Minor)
}

func readProtocolInfo(rd *bitbuf.BufReader) (ProtocolInfo, error) {
	var p ProtocolInfo
	id, err := rd.ReadU8()
	if err != nil {
		return p, err
	}
	major, err := rd.ReadU8()
	if err != nil {
		return p, err
	}
	minor, err := rd.ReadU8()
	if err != nil {
		return p, err
	}
	return ProtocolInfo{ProtocolID: id, Major: major, Minor: minor}, nil
}

// protocolInfoWireBytes is ProtocolInfo's fixed encoded size: 3 bytes.
const protocolInfoWireBytes = 3

// linkSetupPayloadBytes is LinkSetup's fixed payload size: u32 max_msg_size +
// u8 link_version + ProtocolInfo.
const linkSetupPayloadBytes = 4 + 1 + protocolInfoWireBytes

// SenderStats counts what has been sent since the Link was created or
// WaitLinkConnection last returned.
type SenderStats struct {
	MessagesSent uint32
	PacketsSent  uint32
	// BytesSent counts only message payload bytes, not framing overhead.
	BytesSent uint64
}

// ReceiverStats counts what has been received since the Link was created or
// WaitLinkConnection last returned.
type ReceiverStats struct {
	PacketsReceived  uint32
	MessagesReceived uint32
	BytesReceived    uint64
	ReceiveErrors    uint32
}

// Link carries messages between two peers over a transport that can write
// and read one packet at a time. It owns one reusable transmit buffer and one
// reusable receive buffer, and is not safe for concurrent use. The two
// directions share state: ReceiveMessage updates the link-up flag and the
// remote max message size that SendMessage reads, and on the device side it
// replies to LinkSetup through the transmit writer.
type Link struct {
	protocol ProtocolInfo
	isDevice bool

	isLinkUp             bool
	remoteMaxMessageSize uint32
	remoteProtocol       ProtocolInfo
	haveRemoteProtocol   bool

	tx       PacketSink
	txBuf    []byte
	txWriter *bitbuf.BufWriter
	txStats  SenderStats

	rx           PacketSource
	rxPacketBuf  []byte
	rxStartPos   int
	rxLeftBytes  int
	rxInFragment bool
	rxStagingLen int
	rxCRC        crc16.Writer
	rxStats      ReceiverStats
}

// NewLink constructs a Link. txBuf and rxPacketBuf must each be at least as
// large as the transport's maximum packet size; protocol identifies the
// user-level protocol this link will declare during LinkSetup. isDevice picks
// device-side handshake behavior (auto-replying to a received LinkSetup).
func NewLink(tx PacketSink, txBuf []byte, rx PacketSource, rxPacketBuf []byte, protocol ProtocolInfo, isDevice bool) *Link {
	return &Link{
		protocol:             protocol,
		isDevice:             isDevice,
		remoteMaxMessageSize: MinMessageSize,
		tx:                   tx,
		txBuf:                txBuf,
		txWriter:             bitbuf.NewBufWriter(txBuf),
		rx:                   rx,
		rxPacketBuf:          rxPacketBuf,
	}
}

// IsLinkUp reports whether a compatible LinkSetup has been exchanged.
func (l *Link) IsLinkUp() bool { return l.isLinkUp }

// RemoteMaxMessageSize returns the peer's declared receive capacity, or
// MinMessageSize before handshake.
func (l *Link) RemoteMaxMessageSize() uint32 { return l.remoteMaxMessageSize }

// RemoteProtocol returns the peer's declared ProtocolInfo and whether one has
// been received yet.
func (l *Link) RemoteProtocol() (ProtocolInfo, bool) { return l.remoteProtocol, l.haveRemoteProtocol }

// SenderStatsSnapshot returns a snapshot of send-side counters.
func (l *Link) SenderStatsSnapshot() SenderStats { return l.txStats }

// ReceiverStatsSnapshot returns a snapshot of receive-side counters.
func (l *Link) ReceiverStatsSnapshot() ReceiverStats { return l.rxStats }

// SilentDisconnect marks the link down locally without notifying the peer.
func (l *Link) SilentDisconnect() {
	l.isLinkUp = false
	l.haveRemoteProtocol = false
	l.remoteMaxMessageSize = MinMessageSize
}

// WaitUSBConnection blocks until the underlying device-side transport reports
// a physical USB connection, if it implements USBConnectionWaiter. It is a
// no-op otherwise (e.g. on the host side, or over an in-process transport).
func (l *Link) WaitUSBConnection() {
	if w, ok := l.rx.(USBConnectionWaiter); ok {
		w.WaitUSBConnection()
	}
}
