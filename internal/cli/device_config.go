package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/go-idevice/idevice/ideviceerr"
	"github.com/go-idevice/idevice/provider"
	"github.com/go-idevice/idevice/usbmux"
	"gopkg.in/alecthomas/kingpin.v2"
	"howett.net/plist"
)

// DeviceConfig holds the flags every idevice-* command needs to resolve a
// target device and turn it into a provider.Provider: which device
// (usbmuxd-enumerated by UDID, or a directly-reachable network host), and
// the pairing material needed to negotiate TLS services.
type DeviceConfig struct {
	Host        string
	PairingFile string
	UDID        string
	About       bool
}

// RegisterDeviceFlags wires --host, --pairing-file, --about, and the
// positional UDID argument into kingpin's default app.
func RegisterDeviceFlags(config *DeviceConfig) {
	kingpin.Flag("host", "Connect directly to a network-paired device at host:port instead of usbmuxd.").StringVar(&config.Host)
	kingpin.Flag("pairing-file", "Path to a pair record plist. Required with --host; read from usbmuxd otherwise if omitted.").StringVar(&config.PairingFile)
	kingpin.Flag("about", "Print version and service information, then exit.").BoolVar(&config.About)
	kingpin.Arg("udid", "Device UDID. Required when more than one device is visible to usbmuxd.").StringVar(&config.UDID)
}

// PrintAboutAndExit prints appName's version string and exits 0, for
// commands invoked with --about.
func PrintAboutAndExit(appName string) {
	fmt.Println(versionString(appName))
	os.Exit(0)
}

// Provider resolves this config into a connected provider.Provider: a
// DirectTCPProvider if --host was given, otherwise a MultiplexedProvider
// bound to whichever usbmuxd-visible device matches UDID (or the sole
// visible device, if UDID was left empty and exactly one is present).
func (c *DeviceConfig) Provider(ctx context.Context, label string) (provider.Provider, error) {
	pairRecord, err := c.loadPairRecordFile()
	if err != nil {
		return nil, err
	}

	if c.Host != "" {
		if pairRecord == nil {
			return nil, ideviceerr.New(ideviceerr.InvalidArg, "--pairing-file is required with --host")
		}
		return provider.NewDirectTCPProvider(c.Host, pairRecord, label), nil
	}

	addr := usbmux.AddrFromEnv()
	mux, err := usbmux.Connect(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer mux.Close()

	devices, err := mux.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	target, err := resolveDevice(devices, c.UDID)
	if err != nil {
		return nil, err
	}

	if pairRecord == nil {
		pairRecord, err = mux.ReadPairRecord(ctx, target.UDID)
		if err != nil {
			return nil, err
		}
	}
	return provider.NewMultiplexedProvider(addr, target.DeviceID, pairRecord, label), nil
}

func (c *DeviceConfig) loadPairRecordFile() ([]byte, error) {
	if c.PairingFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.PairingFile)
	if err != nil {
		return nil, ideviceerr.IoErr(err)
	}
	// Validate it parses as a plist before handing it further down the
	// stack, so a malformed --pairing-file fails fast with a clear error
	// instead of surfacing as an obscure TLS handshake failure later.
	var probe map[string]interface{}
	if _, err := plist.Unmarshal(data, &probe); err != nil {
		return nil, ideviceerr.Wrap(ideviceerr.PlistMalformed, "parse pairing file", err)
	}
	return data, nil
}

func resolveDevice(devices []usbmux.Device, udid string) (usbmux.Device, error) {
	if udid != "" {
		for _, d := range devices {
			if d.UDID == udid {
				return d, nil
			}
		}
		return usbmux.Device{}, ideviceerr.New(ideviceerr.DeviceNotFound, "no device with UDID "+udid)
	}
	switch len(devices) {
	case 0:
		return usbmux.Device{}, ideviceerr.New(ideviceerr.DeviceNotFound, "no devices visible to usbmuxd")
	case 1:
		return devices[0], nil
	default:
		return usbmux.Device{}, ideviceerr.New(ideviceerr.InvalidArg, "multiple devices visible; specify a UDID")
	}
}
