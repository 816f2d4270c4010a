// Command idevice-diagnostics retrieves diagnostics or issues power-state
// commands to a device.
package main

import (
	"context"
	"fmt"

	"github.com/go-idevice/idevice/diagnostics"
	"github.com/go-idevice/idevice/internal/cli"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	all               = kingpin.Flag("all", "Request full diagnostics.").Bool()
	ioRegistry        = kingpin.Flag("ioregistry", "Request I/O Registry dump.").Bool()
	networkInterfaces = kingpin.Flag("network-interfaces", "Request network interface listing.").Bool()
	restart           = kingpin.Flag("restart", "Restart the device.").Bool()
	shutdown          = kingpin.Flag("shutdown", "Shut down the device.").Bool()
	sleep             = kingpin.Flag("sleep", "Put the device to sleep.").Bool()
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-diagnostics", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-diagnostics")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-diagnostics")
	if err != nil {
		cli.Fail("resolve device", err)
	}
	s, err := p.StartService(ctx, diagnostics.ServiceName)
	if err != nil {
		cli.Fail("connect to diagnostics relay", err)
	}
	client := diagnostics.New(s)
	defer client.Close()

	switch {
	case *all:
		result, err := client.All(ctx)
		if err != nil {
			cli.Fail("request diagnostics", err)
		}
		printDict(result)
	case *ioRegistry:
		result, err := client.IORegistry(ctx)
		if err != nil {
			cli.Fail("request I/O registry", err)
		}
		printDict(result)
	case *networkInterfaces:
		result, err := client.NetworkInterfaces(ctx)
		if err != nil {
			cli.Fail("request network interfaces", err)
		}
		printDict(result)
	case *restart:
		if err := client.Restart(ctx); err != nil {
			cli.Fail("restart device", err)
		}
	case *shutdown:
		if err := client.Shutdown(ctx); err != nil {
			cli.Fail("shut down device", err)
		}
	case *sleep:
		if err := client.Sleep(ctx); err != nil {
			cli.Fail("sleep device", err)
		}
	}
}

func printDict(d map[string]interface{}) {
	for k, v := range d {
		fmt.Printf("%s: %v\n", k, v)
	}
}
