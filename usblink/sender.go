package usblink

import (
	"github.com/wireweaver-go/wireweaver/bitbuf"
	"github.com/wireweaver-go/wireweaver/crc16"
)

// bytesLeft reports how many whole bytes remain free in the current packet
// being assembled.
func (l *Link) bytesLeft() int {
	return l.txWriter.BitsLeft() / 8
}

// writeHeader writes a record's 4-bit opcode and 12-bit length: opcode and
// the length's top nibble share the first byte, the length's low byte
// follows, matching spec.md §3.6's "big-endian-within-nibbles" layout.
func (l *Link) writeHeader(op Op, payloadLen int) error {
	if err := l.txWriter.WriteU4(uint8(op)); err != nil {
		return ErrInternalBufOverflow
	}
	if err := l.txWriter.WriteU4(uint8((payloadLen >> 8) & 0x0F)); err != nil {
		return ErrInternalBufOverflow
	}
	if err := l.txWriter.WriteU8(uint8(payloadLen & 0xFF)); err != nil {
		return ErrInternalBufOverflow
	}
	return nil
}

// SendNop emits an opcode-only record and force-sends it immediately. Used
// once after connect to flush any stale USB data-toggle state.
func (l *Link) SendNop() error {
	if l.bytesLeft() < 2 {
		if err := l.ForceSend(); err != nil {
			return err
		}
	}
	if err := l.writeHeader(OpNop, 0); err != nil {
		return err
	}
	return l.ForceSend()
}

// SendLinkSetup emits a LinkSetup record carrying this link's codec version,
// maxMessageSize (this side's receive capacity to declare to the peer), and
// this Link's ProtocolInfo, then force-sends it.
func (l *Link) SendLinkSetup(maxMessageSize uint32) error {
	if l.bytesLeft() < 2+linkSetupPayloadBytes {
		if err := l.ForceSend(); err != nil {
			return err
		}
	}
	if err := l.writeHeader(OpLinkSetup, linkSetupPayloadBytes); err != nil {
		return err
	}
	if err := l.txWriter.WriteU32(maxMessageSize); err != nil {
		return ErrInternalBufOverflow
	}
	if err := l.txWriter.WriteU8(LinkProtocolVersion); err != nil {
		return ErrInternalBufOverflow
	}
	if err := writeProtocolInfo(l.txWriter, l.protocol); err != nil {
		return ErrInternalBufOverflow
	}
	return l.ForceSend()
}

// SendMessage tries to write message into the current packet. If it fits
// alongside its 2-byte header, it is sent to the sink only if fewer than 3
// bytes of the packet remain free afterward; otherwise it waits for
// ForceSend or a later SendMessage to flush. Otherwise it is fragmented
// across as many MessageStart/MessageContinue/MessageEnd records as needed,
// sending a packet each time the current one fills up.
func (l *Link) SendMessage(message []byte) error {
	if len(message) == 0 {
		return ErrEmptyMessage
	}
	if uint32(len(message)) > l.remoteMaxMessageSize {
		return ErrMessageTooBig
	}

	if len(message)+2 <= l.bytesLeft() {
		if err := l.writeHeader(OpMessageStartEnd, len(message)); err != nil {
			return err
		}
		if err := l.txWriter.WriteRawSlice(message); err != nil {
			return ErrInternalBufOverflow
		}
		l.txStats.MessagesSent++
		l.txStats.BytesSent += uint64(len(message))
		if l.bytesLeft() < 3 {
			return l.ForceSend()
		}
		return nil
	}

	remaining := message
	crcInNextPacket := false
	crc := crc16.Checksum(message)
	isFirstChunk := true
	for len(remaining) > 0 {
		if l.bytesLeft() < 3 {
			if err := l.ForceSend(); err != nil {
				return err
			}
		}
		chunkLen := len(remaining)
		if max := l.bytesLeft() - 2; chunkLen > max {
			chunkLen = max
		}

		var kind Op
		switch {
		case isFirstChunk:
			kind = OpMessageStart
			isFirstChunk = false
		case len(remaining)-chunkLen > 0:
			kind = OpMessageContinue
		case l.bytesLeft()-chunkLen-2 >= 2:
			kind = OpMessageEnd
		default:
			// CRC does not fit alongside the final chunk in this packet; send
			// the chunk as a Continue and carry the CRC over as a 0-byte
			// MessageEnd in the next packet.
			kind = OpMessageContinue
			crcInNextPacket = true
		}

		if err := l.writeHeader(kind, chunkLen); err != nil {
			return err
		}
		if err := l.txWriter.WriteRawSlice(remaining[:chunkLen]); err != nil {
			return ErrInternalBufOverflow
		}
		remaining = remaining[chunkLen:]

		if kind == OpMessageEnd {
			if err := l.txWriter.WriteU16(crc); err != nil {
				return ErrInternalBufOverflow
			}
			l.txStats.MessagesSent++
			l.txStats.BytesSent += uint64(len(message))
		}
	}

	if crcInNextPacket {
		if l.bytesLeft() < 2 {
			if err := l.ForceSend(); err != nil {
				return err
			}
		}
		if err := l.writeHeader(OpMessageEnd, 0); err != nil {
			return err
		}
		if err := l.txWriter.WriteU16(crc); err != nil {
			return ErrInternalBufOverflow
		}
		l.txStats.MessagesSent++
		l.txStats.BytesSent += uint64(len(message))
	}

	if l.bytesLeft() < 3 {
		return l.ForceSend()
	}
	return nil
}

// SendPing emits a Ping keep-alive record and force-sends it.
func (l *Link) SendPing() error {
	if l.bytesLeft() < 2 {
		if err := l.ForceSend(); err != nil {
			return err
		}
	}
	if err := l.writeHeader(OpPing, 0); err != nil {
		return err
	}
	return l.ForceSend()
}

// SendDisconnect emits a Disconnect record, force-sends it, and marks the
// link down locally so no more data is accepted from an incompatible peer.
func (l *Link) SendDisconnect() error {
	if l.bytesLeft() < 2 {
		if err := l.ForceSend(); err != nil {
			return err
		}
	}
	if err := l.writeHeader(OpDisconnect, 0); err != nil {
		return err
	}
	if err := l.ForceSend(); err != nil {
		return err
	}
	l.SilentDisconnect()
	return nil
}

// ForceSend finalizes whatever has been accumulated in the transmit writer
// and, if non-empty, hands it to the sink. It always resets the writer over
// the same backing buffer afterward, even on a sink error, so the link can
// keep accumulating the next packet.
func (l *Link) ForceSend() error {
	data, err := l.txWriter.Finish()
	l.txWriter = bitbuf.NewBufWriter(l.txBuf)
	if err != nil {
		return ErrInternalBufOverflow
	}
	if len(data) > 0 {
		if err := l.tx.WritePacket(data); err != nil {
			return sinkError(err)
		}
	}
	l.txStats.PacketsSent++
	return nil
}

// IsTxQueueEmpty reports whether there is nothing queued to send.
func (l *Link) IsTxQueueEmpty() bool {
	return l.txWriter.Tell() == 0
}
