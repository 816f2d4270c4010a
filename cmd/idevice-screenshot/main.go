// Command idevice-screenshot captures the device's screen to a file.
package main

import (
	"context"
	"os"

	"github.com/go-idevice/idevice/internal/cli"
	"github.com/go-idevice/idevice/screenshot"
	"gopkg.in/alecthomas/kingpin.v2"
)

var output = kingpin.Flag("output", "File to write the captured image to.").Short('o').Default("screenshot.img").String()

func main() {
	var config cli.DeviceConfig
	var base cli.BaseConfig
	cli.RegisterDeviceFlags(&config)
	cli.RegisterBaseFlags(&base)
	cli.Initialize("idevice-screenshot", &base)

	if config.About {
		cli.PrintAboutAndExit("idevice-screenshot")
	}

	ctx := context.Background()
	p, err := config.Provider(ctx, "idevice-screenshot")
	if err != nil {
		cli.Fail("resolve device", err)
	}
	s, err := p.StartService(ctx, screenshot.ServiceName)
	if err != nil {
		cli.Fail("connect to screenshotr", err)
	}
	client := screenshot.New(s)
	defer client.Close()

	data, err := client.Take(ctx)
	if err != nil {
		cli.Fail("take screenshot", err)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		cli.Fail("write screenshot", err)
	}
}
