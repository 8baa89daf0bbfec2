// Package config aggregates the settings every wireweaver subcommand needs:
// link transport parameters, logging shape, and CLI input/output selection.
// It merges baked-in defaults with CLI flag overrides, the way the teacher's
// launcher config merges Defaults with CLI-context values.
package config

import (
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"github.com/wireweaver-go/wireweaver/integration"
)

// Config aggregates every subsystem's configuration a wireweaver subcommand
// needs.
type Config struct {
	Link    LinkConfig
	Logging LoggingConfig
	CLI     CLIConfig
}

// LinkConfig configures a usblink.Link's transport and handshake parameters.
type LinkConfig struct {
	PacketSize     int
	MaxMessageSize uint32
	ProtocolID     uint8
	Preset         string
}

// LoggingConfig controls log verbosity/format and the optional Sentry hook.
type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

// CLIConfig selects the encode/decode subcommands' input and output.
type CLIConfig struct {
	InPath  string
	OutPath string
}

// Default returns the baseline configuration before any CLI flags are
// applied.
func Default() Config {
	return Config{
		Link: LinkConfig{
			PacketSize:     64,
			MaxMessageSize: 4096,
			ProtocolID:     1,
		},
		Logging: LoggingConfig{
			Verbosity: 3,
			Format:    "text",
			Color:     true,
		},
		CLI: CLIConfig{
			InPath:  "-",
			OutPath: "-",
		},
	}
}

// isSet reports whether name was passed either on ctx's own flag set or on
// an ancestor (app-level) one: flags.CommonFlags is attached to the app, not
// to each subcommand, so a subcommand's own IsSet alone never sees them.
func isSet(ctx *cli.Context, name string) bool {
	return ctx.IsSet(name) || ctx.GlobalIsSet(name)
}

func stringFlag(ctx *cli.Context, name string) string {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	return ctx.GlobalString(name)
}

func intFlag(ctx *cli.Context, name string) int {
	if ctx.IsSet(name) {
		return ctx.Int(name)
	}
	return ctx.GlobalInt(name)
}

func boolFlag(ctx *cli.Context, name string) bool {
	if ctx.IsSet(name) {
		return ctx.Bool(name)
	}
	return ctx.GlobalBool(name)
}

// FromCLIContext merges CLI flag overrides (see flags.CommonFlags,
// flags.LinkFlags, flags.IOFlags) onto Default.
func FromCLIContext(ctx *cli.Context) (Config, error) {
	cfg := Default()

	if isSet(ctx, "preset") {
		preset, err := integration.PresetByName(stringFlag(ctx, "preset"))
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		cfg.Link.PacketSize = preset.PacketSize
		cfg.Link.Preset = preset.Name
	} else if isSet(ctx, "packet-size") {
		cfg.Link.PacketSize = intFlag(ctx, "packet-size")
	}
	if isSet(ctx, "max-message-size") {
		cfg.Link.MaxMessageSize = uint32(intFlag(ctx, "max-message-size"))
	}
	if isSet(ctx, "protocol-id") {
		cfg.Link.ProtocolID = uint8(intFlag(ctx, "protocol-id"))
	}

	if isSet(ctx, "log.format") {
		cfg.Logging.Format = stringFlag(ctx, "log.format")
	}
	if isSet(ctx, "log.verbosity") {
		cfg.Logging.Verbosity = intFlag(ctx, "log.verbosity")
	}
	if isSet(ctx, "log.color") {
		cfg.Logging.Color = boolFlag(ctx, "log.color")
	}
	if isSet(ctx, "sentry-dsn") {
		cfg.Logging.SentryDSN = stringFlag(ctx, "sentry-dsn")
	}

	if isSet(ctx, "in") {
		cfg.CLI.InPath = stringFlag(ctx, "in")
	}
	if isSet(ctx, "out") {
		cfg.CLI.OutPath = stringFlag(ctx, "out")
	}

	return cfg, nil
}
