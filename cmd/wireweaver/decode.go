package main

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"

	"github.com/wireweaver-go/wireweaver/bitbuf"
	"github.com/wireweaver-go/wireweaver/examples"
	"github.com/wireweaver-go/wireweaver/flags"
)

func decodeCommand() cli.Command {
	return cli.Command{
		Name:   "decode",
		Usage:  "Decode a hex-encoded SensorSample and print its fields",
		Flags:  flags.IOFlags(),
		Action: runDecode,
	}
}

func runDecode(ctx *cli.Context) error {
	raw, err := readInput(ctx.String("in"))
	if err != nil {
		return err
	}

	encoded, err := hexutil.Decode(string(bytes.TrimSpace(raw)))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	var sample examples.SensorSample
	rd := bitbuf.NewBufReader(encoded)
	if err := sample.DesShrinkWrap(rd); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	out := fmt.Sprintf("timestamp=%d label=%q calibration=%v payload=%s",
		sample.Timestamp, sample.Label, calibrationString(sample.Calibration), hexutil.Encode(sample.Payload))
	return writeOutput(ctx.String("out"), []byte(out))
}

func calibrationString(c *uint32) string {
	if c == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *c)
}
