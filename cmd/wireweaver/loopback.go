package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/wireweaver-go/wireweaver/config"
	"github.com/wireweaver-go/wireweaver/flags"
	"github.com/wireweaver-go/wireweaver/internal/wlog"
	"github.com/wireweaver-go/wireweaver/usblink"
)

// chanTransport pipes packets between the two loopback Link halves without
// any real USB hardware, the way WaitUSBConnection-less host-side transports
// do in tests.
type chanTransport struct {
	ch chan []byte
}

func newChanTransport() *chanTransport { return &chanTransport{ch: make(chan []byte, 8)} }

func (c *chanTransport) WritePacket(data []byte) error {
	c.ch <- append([]byte(nil), data...)
	return nil
}

func (c *chanTransport) ReadPacket(buf []byte) (int, error) {
	p := <-c.ch
	return copy(buf, p), nil
}

func loopbackCommand() cli.Command {
	return cli.Command{
		Name:  "loopback",
		Usage: "Run a sender and receiver Link back-to-back and report stats",
		Flags: append(append(flags.LinkFlags(), flags.IOFlags()...), cli.IntFlag{
			Name:  "count",
			Usage: "Number of messages to send",
			Value: 10,
		}, cli.IntFlag{
			Name:  "message-size",
			Usage: "Size in bytes of each message sent",
			Value: 32,
		}),
		Action: runLoopback,
	}
}

func runLoopback(ctx *cli.Context) error {
	cfg, err := config.FromCLIContext(ctx)
	if err != nil {
		return err
	}
	logger, err := wlog.New(cfg.Logging.Format, cfg.Logging.Verbosity, cfg.Logging.Color, cfg.Logging.SentryDSN)
	if err != nil {
		return err
	}

	aToB := newChanTransport()
	bToA := newChanTransport()

	protocol := usblink.ProtocolInfo{ProtocolID: cfg.Link.ProtocolID, Major: 0, Minor: 1}
	host := usblink.NewLink(aToB, make([]byte, cfg.Link.PacketSize), bToA, make([]byte, cfg.Link.PacketSize), protocol, false)
	device := usblink.NewLink(bToA, make([]byte, cfg.Link.PacketSize), aToB, make([]byte, cfg.Link.PacketSize), protocol, true)

	logger.WithFields(logrus.Fields{"packet_size": cfg.Link.PacketSize, "max_message_size": cfg.Link.MaxMessageSize}).Debug("loopback: starting handshake")

	ctx2 := context.Background()
	deviceErrCh := make(chan error, 1)
	go func() {
		deviceErrCh <- device.WaitLinkConnection(ctx2, make([]byte, cfg.Link.MaxMessageSize))
	}()
	if err := host.SendLinkSetup(cfg.Link.MaxMessageSize); err != nil {
		return fmt.Errorf("loopback: handshake: %w", err)
	}
	if _, err := host.ReceiveMessage(ctx2, make([]byte, cfg.Link.MaxMessageSize)); err != nil {
		return fmt.Errorf("loopback: handshake: %w", err)
	}
	if err := <-deviceErrCh; err != nil {
		return fmt.Errorf("loopback: handshake: %w", err)
	}
	logger.Debug("loopback: link up")

	msgSize := ctx.Int("message-size")
	count := ctx.Int("count")
	recvDone := make(chan error, 1)
	go func() {
		buf := make([]byte, cfg.Link.MaxMessageSize)
		for i := 0; i < count; i++ {
			if _, err := device.ReceiveMessage(ctx2, buf); err != nil {
				recvDone <- err
				return
			}
		}
		recvDone <- nil
	}()

	msg := make([]byte, msgSize)
	for i := 0; i < count; i++ {
		for j := range msg {
			msg[j] = byte(i + j)
		}
		if err := host.SendMessage(msg); err != nil {
			return fmt.Errorf("loopback: send: %w", err)
		}
	}
	if err := host.ForceSend(); err != nil {
		return fmt.Errorf("loopback: flush: %w", err)
	}
	if err := <-recvDone; err != nil {
		return fmt.Errorf("loopback: receive: %w", err)
	}

	sent := host.SenderStatsSnapshot()
	received := device.ReceiverStatsSnapshot()
	logger.WithFields(logrus.Fields{
		"messages_sent": sent.MessagesSent, "messages_received": received.MessagesReceived,
		"receive_errors": received.ReceiveErrors,
	}).Info("loopback: done")
	out := fmt.Sprintf("sent: messages=%d bytes=%d packets=%d\nreceived: messages=%d bytes=%d packets=%d errors=%d",
		sent.MessagesSent, sent.BytesSent, sent.PacketsSent,
		received.MessagesReceived, received.BytesReceived, received.PacketsReceived, received.ReceiveErrors)
	return writeOutput(ctx.String("out"), []byte(out))
}
