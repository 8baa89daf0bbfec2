package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// IOFlags returns the input/output selection flags shared by the encode and
// decode subcommands.
func IOFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "in",
			Usage: "Input file, - for stdin",
			Value: "-",
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "Output file, - for stdout",
			Value: "-",
		},
	}
}
