package main

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"

	"github.com/wireweaver-go/wireweaver/bitbuf"
	"github.com/wireweaver-go/wireweaver/examples"
	"github.com/wireweaver-go/wireweaver/flags"
)

func encodeCommand() cli.Command {
	return cli.Command{
		Name:  "encode",
		Usage: "ShrinkWrap-encode a demo SensorSample and hex-dump the result",
		Flags: append(append([]cli.Flag{
			cli.Uint64Flag{Name: "timestamp", Usage: "SensorSample.Timestamp", Value: 0},
			cli.StringFlag{Name: "label", Usage: "SensorSample.Label", Value: "demo"},
			cli.IntFlag{Name: "calibration", Usage: "SensorSample.Calibration; omit to leave unset", Value: -1},
		}, flags.IOFlags()...)),
		Action: runEncode,
	}
}

func runEncode(ctx *cli.Context) error {
	payload, err := readInput(ctx.String("in"))
	if err != nil {
		return err
	}

	sample := examples.SensorSample{
		Timestamp: uint32(ctx.Uint64("timestamp")),
		Label:     []byte(ctx.String("label")),
		Payload:   payload,
	}
	if ctx.IsSet("calibration") {
		c := uint32(ctx.Int("calibration"))
		sample.Calibration = &c
	}

	buf := make([]byte, len(payload)+len(sample.Label)+64)
	wr := bitbuf.NewBufWriter(buf)
	if err := sample.SerShrinkWrap(wr); err != nil {
		return err
	}
	encoded, err := wr.Finish()
	if err != nil {
		return err
	}

	return writeOutput(ctx.String("out"), []byte(hexutil.Encode(encoded)))
}
