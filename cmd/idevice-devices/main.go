// Command idevice-devices lists the devices currently visible to usbmuxd.
package main

import (
	"context"
	"fmt"

	"github.com/go-idevice/idevice/internal/cli"
	"github.com/go-idevice/idevice/usbmux"
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-devices", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-devices")
	}

	ctx := context.Background()
	addr := usbmux.AddrFromEnv()
	mux, err := usbmux.Connect(ctx, addr)
	if err != nil {
		cli.Fail("connect to usbmuxd", err)
	}
	defer mux.Close()

	devices, err := mux.ListDevices(ctx)
	if err != nil {
		cli.Fail("list devices", err)
	}

	for _, d := range devices {
		fmt.Printf("%s\t%s\n", d.UDID, d.Connection)
	}
}
