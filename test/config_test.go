package test

import (
	"testing"

	"gopkg.in/urfave/cli.v1"

	"github.com/wireweaver-go/wireweaver/config"
	"github.com/wireweaver-go/wireweaver/flags"
)

// runConfigFromArgs builds a synthetic app carrying the flag sets under test
// and returns whatever config.FromCLIContext produces for args.
func runConfigFromArgs(t *testing.T, args []string) config.Config {
	t.Helper()

	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.LinkFlags()...)
	app.Flags = append(app.Flags, flags.IOFlags()...)

	var got config.Config
	app.Action = func(c *cli.Context) error {
		var err error
		got, err = config.FromCLIContext(c)
		return err
	}

	if err := app.Run(append([]string{"wireweaver"}, args...)); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	return got
}

// TestFromCLIContext_flagOverrides verifies that every flag declared across
// CommonFlags/LinkFlags/IOFlags correctly overrides the corresponding field
// in the aggregated Config struct.
func TestFromCLIContext_flagOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(t *testing.T, cfg config.Config)
	}{
		{
			name: "logging overrides",
			args: []string{"--log.format", "json", "--log.verbosity", "5", "--log.color", "--sentry-dsn", "https://key@sentry.example/1"},
			want: func(t *testing.T, cfg config.Config) {
				if cfg.Logging.Format != "json" {
					t.Fatalf("Format = %q, want json", cfg.Logging.Format)
				}
				if cfg.Logging.Verbosity != 5 {
					t.Fatalf("Verbosity = %d, want 5", cfg.Logging.Verbosity)
				}
				if !cfg.Logging.Color {
					t.Fatalf("Color = false, want true")
				}
				if cfg.Logging.SentryDSN != "https://key@sentry.example/1" {
					t.Fatalf("SentryDSN = %q", cfg.Logging.SentryDSN)
				}
			},
		},
		{
			name: "explicit packet size and message size",
			args: []string{"--packet-size", "32", "--max-message-size", "1024", "--protocol-id", "7"},
			want: func(t *testing.T, cfg config.Config) {
				if cfg.Link.PacketSize != 32 {
					t.Fatalf("PacketSize = %d, want 32", cfg.Link.PacketSize)
				}
				if cfg.Link.MaxMessageSize != 1024 {
					t.Fatalf("MaxMessageSize = %d, want 1024", cfg.Link.MaxMessageSize)
				}
				if cfg.Link.ProtocolID != 7 {
					t.Fatalf("ProtocolID = %d, want 7", cfg.Link.ProtocolID)
				}
			},
		},
		{
			name: "preset overrides packet size",
			args: []string{"--packet-size", "32", "--preset", "usb-bulk-hs"},
			want: func(t *testing.T, cfg config.Config) {
				if cfg.Link.PacketSize != 512 {
					t.Fatalf("PacketSize = %d, want 512 (from preset)", cfg.Link.PacketSize)
				}
				if cfg.Link.Preset != "usb-bulk-hs" {
					t.Fatalf("Preset = %q, want usb-bulk-hs", cfg.Link.Preset)
				}
			},
		},
		{
			name: "io paths",
			args: []string{"--in", "msg.bin", "--out", "msg.hex"},
			want: func(t *testing.T, cfg config.Config) {
				if cfg.CLI.InPath != "msg.bin" || cfg.CLI.OutPath != "msg.hex" {
					t.Fatalf("CLI = %#v", cfg.CLI)
				}
			},
		},
		{
			name: "defaults when nothing set",
			args: nil,
			want: func(t *testing.T, cfg config.Config) {
				want := config.Default()
				if cfg != want {
					t.Fatalf("cfg = %#v, want defaults %#v", cfg, want)
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := runConfigFromArgs(t, test.args)
			test.want(t, cfg)
		})
	}
}

// TestFromCLIContext_globalFlagsFromSubcommand mirrors the real wireweaver
// CLI's flag scoping (cmd/wireweaver/app.go): CommonFlags live only on the
// app, never redeclared on a subcommand, so FromCLIContext must still read
// them from a subcommand's own Context via its global fallback.
func TestFromCLIContext_globalFlagsFromSubcommand(t *testing.T) {
	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = flags.CommonFlags()

	var got config.Config
	app.Commands = []cli.Command{{
		Name:  "sub",
		Flags: flags.LinkFlags(),
		Action: func(c *cli.Context) error {
			var err error
			got, err = config.FromCLIContext(c)
			return err
		},
	}}

	args := []string{"wireweaver", "--log.verbosity", "5", "--sentry-dsn", "https://key@sentry.example/1", "sub", "--packet-size", "32"}
	if err := app.Run(args); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	if got.Logging.Verbosity != 5 {
		t.Fatalf("Verbosity = %d, want 5 (from app-level flag)", got.Logging.Verbosity)
	}
	if got.Logging.SentryDSN != "https://key@sentry.example/1" {
		t.Fatalf("SentryDSN = %q, want app-level value", got.Logging.SentryDSN)
	}
	if got.Link.PacketSize != 32 {
		t.Fatalf("PacketSize = %d, want 32 (from subcommand-level flag)", got.Link.PacketSize)
	}
}

func TestFromCLIContext_unknownPreset(t *testing.T) {
	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = append(app.Flags, flags.LinkFlags()...)

	var runErr error
	app.Action = func(c *cli.Context) error {
		_, runErr = config.FromCLIContext(c)
		return nil
	}
	if err := app.Run([]string{"wireweaver", "--preset", "nope"}); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	if runErr == nil {
		t.Fatalf("expected an error for an unknown preset")
	}
}
