// Command idevice-filerelay collects log/diagnostic bundles from a device.
package main

import (
	"context"
	"os"

	"github.com/go-idevice/idevice/filerelay"
	"github.com/go-idevice/idevice/internal/cli"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	sources = kingpin.Flag("source", "Source to collect (repeatable). Defaults to All.").Strings()
	output  = kingpin.Flag("output", "File to write the resulting archive to.").Short('o').Default("relay.cpio.gz").String()
)

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-filerelay", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-filerelay")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-filerelay")
	if err != nil {
		cli.Fail("resolve device", err)
	}
	s, err := p.StartService(ctx, filerelay.ServiceName)
	if err != nil {
		cli.Fail("connect to file relay", err)
	}
	client := filerelay.New(s)
	defer client.Close()

	var requested []filerelay.Source
	if len(*sources) == 0 {
		requested = []filerelay.Source{filerelay.SourceAll}
	} else {
		for _, name := range *sources {
			requested = append(requested, filerelay.Source(name))
		}
	}

	data, err := client.RequestFiles(ctx, requested)
	if err != nil {
		cli.Fail("request files", err)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		cli.Fail("write archive", err)
	}
}
