// wireweaver is the CLI entry point wiring flags, config, and the
// ShrinkWrap/usblink packages together: encode/decode a demo struct, drive a
// loopback link, or compute a CRC-16 for interop testing against a device.
package main

import (
	"gopkg.in/urfave/cli.v1"

	"github.com/wireweaver-go/wireweaver/flags"
)

var (
	// Git SHA1 commit hash of the release (set via linker flags).
	gitCommit = ""
	gitDate   = ""
)

// Run parses args and dispatches to the matching subcommand.
func Run(args []string) error {
	app := flags.NewApp(gitCommit, gitDate, "the WireWeaver command line interface")
	app.Flags = flags.CommonFlags()
	app.Commands = []cli.Command{
		encodeCommand(),
		decodeCommand(),
		loopbackCommand(),
		crcCommand(),
	}
	return app.Run(args)
}
