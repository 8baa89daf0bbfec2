package main

import (
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"github.com/wireweaver-go/wireweaver/crc16"
	"github.com/wireweaver-go/wireweaver/flags"
)

func crcCommand() cli.Command {
	return cli.Command{
		Name:   "crc",
		Usage:  "Compute the CRC-16/CCITT-FALSE of the input, for interop testing against a device",
		Flags:  flags.IOFlags(),
		Action: runCRC,
	}
}

func runCRC(ctx *cli.Context) error {
	data, err := readInput(ctx.String("in"))
	if err != nil {
		return err
	}
	sum := crc16.Checksum(data)
	return writeOutput(ctx.String("out"), []byte(fmt.Sprintf("0x%04X", sum)))
}
