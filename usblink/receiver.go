package usblink

import (
	"context"

	"github.com/wireweaver-go/wireweaver/bitbuf"
)

// MessageKindTag discriminates the variants of MessageKind.
type MessageKindTag int

const (
	KindData MessageKindTag = iota
	KindPing
	KindLinkInfo
	KindDisconnect
)

// MessageKind is what ReceiveMessage yields. Only the fields relevant to Kind
// are populated: Len for KindData, RemoteMaxMessageSize/RemoteProtocol for
// KindLinkInfo.
type MessageKind struct {
	Kind                 MessageKindTag
	Len                  int
	RemoteMaxMessageSize uint32
	RemoteProtocol       ProtocolInfo
}

// adjustReadPos updates the unread-tail bookkeeping after a record has been
// fully consumed, so a packet containing more than one record is drained
// across successive ReceiveMessage calls without an extra ReadPacket.
func (l *Link) adjustReadPos(isNewFrame bool, rdBytesLeft, packetLen int) {
	enoughForHeader := rdBytesLeft >= 2
	readBytes := packetLen - rdBytesLeft
	switch {
	case isNewFrame && enoughForHeader:
		l.rxStartPos = readBytes
		l.rxLeftBytes = rdBytesLeft
	case !isNewFrame && enoughForHeader:
		l.rxStartPos += readBytes
		l.rxLeftBytes -= readBytes
	default:
		l.rxStartPos = 0
		l.rxLeftBytes = 0
	}
}

// ReceiveMessage pulls records, reading fresh packets from the source as
// needed, until it can report a complete MessageKind. If a fragmented message
// spans more than one packet it blocks (via PacketSource.ReadPacket) until
// all fragments arrive. If a packet holds more than one record, this
// function returns as soon as the first one is ready and leaves the rest
// buffered for the next call.
//
// ctx is only checked immediately before a ReadPacket call, never mid-record:
// this guarantees a cancellation never discards partially consumed record
// bytes, only the decision to wait for a new packet.
func (l *Link) ReceiveMessage(ctx context.Context, out []byte) (MessageKind, error) {
nextMessage:
	for {
		var packet []byte
		isNewFrame := false

		if l.rxLeftBytes > 0 {
			packet = l.rxPacketBuf[l.rxStartPos : l.rxStartPos+l.rxLeftBytes]
		} else {
			select {
			case <-ctx.Done():
				return MessageKind{}, ctx.Err()
			default:
			}
			n, err := l.rx.ReadPacket(l.rxPacketBuf)
			if err != nil {
				return MessageKind{}, sourceError(err)
			}
			l.rxStats.PacketsReceived++
			if n == 0 {
				return MessageKind{}, ErrReceivedEmptyPacket
			}
			packet = l.rxPacketBuf[:n]
			isNewFrame = true
		}

		rd := bitbuf.NewBufReader(packet)
		for rd.BitsLeft() >= 16 {
			opNibble, err := rd.ReadU4()
			if err != nil {
				l.rxLeftBytes = 0
				continue nextMessage
			}
			op := Op(opNibble)

			lenHi, err := rd.ReadU4()
			if err != nil {
				l.rxLeftBytes = 0
				continue nextMessage
			}
			lenLo, err := rd.ReadU8()
			if err != nil {
				l.rxLeftBytes = 0
				continue nextMessage
			}
			payloadLen := int(lenHi)<<8 | int(lenLo)

			// Reserved or unassigned opcodes are skipped using their own
			// length field and never fail the link (spec.md §9 "Opcode
			// space"); this is the literal E5 resync scenario.
			if !op.implemented() {
				l.rxStats.ReceiveErrors++
				if err := rd.Skip(payloadLen); err != nil {
					l.rxLeftBytes = 0
					continue nextMessage
				}
				continue
			}

			if !l.isLinkUp && op != OpLinkSetup && op != OpNop {
				l.rxLeftBytes = 0
				return MessageKind{}, ErrProtocolsVersionMismatch
			}

			switch op {
			case OpNop:
				// nothing to do, move on to the next record

			case OpMessageStart, OpMessageContinue, OpMessageEnd:
				piece, err := rd.ReadRawSlice(payloadLen)
				if err != nil {
					l.rxStats.ReceiveErrors++
					l.rxStagingLen = 0
					l.rxInFragment = false
					l.rxLeftBytes = 0
					continue nextMessage
				}
				if op == OpMessageStart {
					l.rxInFragment = true
					l.rxStagingLen = 0
					l.rxCRC.Reset()
				} else if !l.rxInFragment {
					// Continue/End without a preceding Start: drop this
					// piece, but still consume a trailing CRC on End so
					// parsing resynchronises at the next record.
					l.rxStats.ReceiveErrors++
					if op == OpMessageEnd {
						if _, err := rd.ReadU16(); err != nil {
							l.rxLeftBytes = 0
							continue nextMessage
						}
					}
					continue
				}
				if l.rxStagingLen+len(piece) > len(out) {
					l.rxStats.ReceiveErrors++
					l.rxStagingLen = 0
					l.rxInFragment = false
					l.rxLeftBytes = 0
					continue nextMessage
				}
				copy(out[l.rxStagingLen:], piece)
				l.rxStagingLen += len(piece)
				l.rxCRC.Write(piece)

				if op == OpMessageEnd {
					crcReceived, err := rd.ReadU16()
					if err != nil {
						l.rxStats.ReceiveErrors++
						l.rxStagingLen = 0
						l.rxInFragment = false
						l.rxLeftBytes = 0
						continue nextMessage
					}
					if crcReceived != l.rxCRC.Sum() {
						l.rxStats.ReceiveErrors++
						l.rxStagingLen = 0
						l.rxInFragment = false
						continue // other records in this packet may still be good
					}
					l.rxInFragment = false
					l.adjustReadPos(isNewFrame, rd.BitsLeft()/8, len(packet))
					l.rxStats.BytesReceived += uint64(l.rxStagingLen)
					l.rxStats.MessagesReceived++
					msgLen := l.rxStagingLen
					l.rxStagingLen = 0
					return MessageKind{Kind: KindData, Len: msgLen}, nil
				}

			case OpMessageStartEnd:
				piece, err := rd.ReadRawSlice(payloadLen)
				if err != nil || len(piece) > len(out) {
					l.rxStats.ReceiveErrors++
					l.rxInFragment = false
					l.rxLeftBytes = 0
					continue nextMessage
				}
				copy(out, piece)
				l.rxStats.BytesReceived += uint64(len(piece))
				l.rxStats.MessagesReceived++
				l.adjustReadPos(isNewFrame, rd.BitsLeft()/8, len(packet))
				return MessageKind{Kind: KindData, Len: len(piece)}, nil

			case OpLinkSetup:
				if payloadLen != linkSetupPayloadBytes || rd.BitsLeft()/8 < linkSetupPayloadBytes {
					l.rxLeftBytes = 0
					continue nextMessage
				}
				remoteMax, err := rd.ReadU32()
				if err != nil {
					l.rxLeftBytes = 0
					continue nextMessage
				}
				linkVersion, err := rd.ReadU8()
				if err != nil {
					l.rxLeftBytes = 0
					continue nextMessage
				}
				remoteProtocol, err := readProtocolInfo(rd)
				if err != nil {
					l.rxLeftBytes = 0
					continue nextMessage
				}
				if linkVersion == LinkProtocolVersion {
					l.remoteProtocol = remoteProtocol
					l.haveRemoteProtocol = true
					l.remoteMaxMessageSize = remoteMax
					l.isLinkUp = true
				} else {
					l.haveRemoteProtocol = false
					l.isLinkUp = false
				}
				l.adjustReadPos(isNewFrame, rd.BitsLeft()/8, len(packet))
				if l.isDevice {
					if err := l.SendLinkSetup(uint32(len(out))); err != nil {
						return MessageKind{}, err
					}
				}
				return MessageKind{
					Kind:                 KindLinkInfo,
					RemoteMaxMessageSize: remoteMax,
					RemoteProtocol:       remoteProtocol,
				}, nil

			case OpDisconnect:
				l.haveRemoteProtocol = false
				l.isLinkUp = false
				l.remoteMaxMessageSize = MinMessageSize
				l.rxInFragment = false
				l.rxStagingLen = 0
				l.rxLeftBytes = 0
				return MessageKind{Kind: KindDisconnect}, nil

			case OpPing:
				l.adjustReadPos(isNewFrame, rd.BitsLeft()/8, len(packet))
				return MessageKind{Kind: KindPing}, nil
			}
		}
		l.rxLeftBytes = 0
	}
}

// WaitLinkConnection loops receiving records until a compatible LinkSetup has
// been exchanged, replying in kind on the device side (ReceiveMessage already
// does this per record). A ProtocolsVersionMismatch is swallowed and
// retried, since that just means the peer sent data before its own
// LinkSetup; any other error is returned to the caller. Stats are reset once
// the link comes up.
func (l *Link) WaitLinkConnection(ctx context.Context, msgBuf []byte) error {
	for !l.haveRemoteProtocol {
		kind, err := l.ReceiveMessage(ctx, msgBuf)
		if err == ErrProtocolsVersionMismatch {
			continue
		}
		if err != nil {
			return err
		}
		if kind.Kind == KindLinkInfo && l.isLinkUp {
			break
		}
	}
	l.txStats = SenderStats{}
	l.rxStats = ReceiverStats{}
	return nil
}
