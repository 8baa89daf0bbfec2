package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// LinkFlags returns the CLI flags that drive a usblink.Link's transport and
// handshake parameters.
func LinkFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "packet-size",
			Usage: "Transport packet size in bytes, ignored when --preset is set",
			Value: 64,
		},
		cli.IntFlag{
			Name:  "max-message-size",
			Usage: "Largest message this side will accept, declared to the peer during LinkSetup",
			Value: 4096,
		},
		cli.IntFlag{
			Name:  "protocol-id",
			Usage: "User-level protocol identifier advertised during LinkSetup",
			Value: 1,
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Named transport preset (usb-interrupt-ls, usb-interrupt-fs, usb-bulk-hs); overrides --packet-size",
		},
	}
}
