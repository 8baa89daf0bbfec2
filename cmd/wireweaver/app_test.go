package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withStdio temporarily redirects stdin/stdout for the duration of fn and
// returns whatever was written to stdout.
func withStdio(t *testing.T, in []byte, fn func()) []byte {
	t.Helper()

	origStdin, origStdout := os.Stdin, os.Stdout

	inR, inW, err := os.Pipe()
	require.NoError(t, err)
	_, err = inW.Write(in)
	require.NoError(t, err)
	require.NoError(t, inW.Close())
	os.Stdin = inR

	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = outW

	fn()

	require.NoError(t, outW.Close())
	got, err := ioutil.ReadAll(outR)
	require.NoError(t, err)

	os.Stdin, os.Stdout = origStdin, origStdout
	return got
}

func TestEncodeDecodeRoundTrip_viaCLI(t *testing.T) {
	payload := []byte("hello")

	encoded := withStdio(t, payload, func() {
		require.NoError(t, Run([]string{"wireweaver", "encode", "--label", "cli-test", "--timestamp", "42"}))
	})
	encodedHex := bytes.TrimSpace(encoded)
	require.NotEmpty(t, encodedHex)

	decoded := withStdio(t, encodedHex, func() {
		require.NoError(t, Run([]string{"wireweaver", "decode"}))
	})
	assert.Contains(t, string(decoded), "timestamp=42")
	assert.Contains(t, string(decoded), `label="cli-test"`)
	assert.Contains(t, string(decoded), "calibration=none")
}

func TestCRCCommand_knownVector(t *testing.T) {
	out := withStdio(t, []byte("123456789"), func() {
		require.NoError(t, Run([]string{"wireweaver", "crc"}))
	})
	assert.Equal(t, "0x29B1\n", string(out))
}

func TestLoopbackCommand_reportsStats(t *testing.T) {
	out := withStdio(t, nil, func() {
		require.NoError(t, Run([]string{"wireweaver", "loopback", "--count", "5", "--message-size", "16"}))
	})
	assert.Contains(t, string(out), "sent: messages=5")
	assert.Contains(t, string(out), "received: messages=5")
	assert.Contains(t, string(out), "errors=0")
}
