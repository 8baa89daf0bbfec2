package integration

import "fmt"

// Package integration supplies named transport presets: bundles of packet
// framing parameters tuned for a specific physical USB transport class, the
// way the teacher's presets bundle cache/GC/DB tuning into named profiles
// operators pick by name instead of tweaking flags individually.
//
// Usage:
//
//	preset, err := integration.PresetByName("usb-bulk-hs")
//	link := usblink.NewLink(sink, make([]byte, preset.PacketSize), ...)

// TransportPreset captures the tunable parameters that vary across transport
// classes.
type TransportPreset struct {
	Name       string // human-readable identifier (e.g., "usb-bulk-hs")
	PacketSize int    // maximum bytes per packet this transport class carries
}

// USBInterruptLowSpeed is tuned for low-speed USB interrupt endpoints (8-64
// byte packets, polled slowly); 64 bytes is the largest interrupt packet a
// low-speed device can declare.
func USBInterruptLowSpeed() TransportPreset {
	return TransportPreset{Name: "usb-interrupt-ls", PacketSize: 64}
}

// USBInterruptFullSpeed is tuned for full-speed USB interrupt endpoints,
// which share the same 64-byte packet ceiling as low-speed but poll faster.
func USBInterruptFullSpeed() TransportPreset {
	return TransportPreset{Name: "usb-interrupt-fs", PacketSize: 64}
}

// USBBulkHighSpeed is tuned for high-speed USB bulk endpoints, which can
// carry up to 512-byte packets.
func USBBulkHighSpeed() TransportPreset {
	return TransportPreset{Name: "usb-bulk-hs", PacketSize: 512}
}

// PresetByName looks up a preset by its string identifier. This backs CLI
// flags like --preset=usb-bulk-hs that select a transport profile by name.
func PresetByName(name string) (TransportPreset, error) {
	switch name {
	case "usb-interrupt-ls":
		return USBInterruptLowSpeed(), nil
	case "usb-interrupt-fs":
		return USBInterruptFullSpeed(), nil
	case "usb-bulk-hs":
		return USBBulkHighSpeed(), nil
	default:
		return TransportPreset{}, fmt.Errorf("unknown transport preset: %q (valid: usb-interrupt-ls, usb-interrupt-fs, usb-bulk-hs)", name)
	}
}
